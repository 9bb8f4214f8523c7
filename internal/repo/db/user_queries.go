package db

const userSelectCols = `
	u.id,
	u.username,
	u.email,
	u.password,
	u.role,
	u.company_id,
	u.is_active,
	u.last_login,
	u.created_at,
	u.updated_at
`

const userGetByIDQ = `
SELECT ` + userSelectCols + `
FROM users u
WHERE u.id = $1
`

const userGetByLoginQ = `
SELECT ` + userSelectCols + `
FROM users u
WHERE u.username = $1 OR u.email = $1
`

const userGetByLoginCIQ = `
SELECT ` + userSelectCols + `
FROM users u
WHERE LOWER(u.username) = LOWER($1) OR LOWER(u.email) = LOWER($1)
ORDER BY u.id
LIMIT 1
`

const userCreateQ = `
INSERT INTO users (username, email, password, role, company_id)
VALUES ($1, $2, $3, $4, $5)
RETURNING id
`

const userUpdatePasswordQ = `
UPDATE users
SET password = $1,
    updated_at = NOW()
WHERE id = $2
`

const userSetActiveQ = `
UPDATE users
SET is_active = $1,
    updated_at = NOW()
WHERE id = $2
`

const userUpdateLastLoginQ = `
UPDATE users
SET last_login = NOW()
WHERE id = $1
`
