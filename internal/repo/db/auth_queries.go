package db

const tokenCreateQ = `
INSERT INTO refresh_tokens (token, user_id, expires, created_by_ip)
VALUES ($1, $2, $3, $4)
`

const tokenGetUsableQ = `
SELECT
	t.token,
	t.user_id,
	t.expires,
	t.created_at,
	t.created_by_ip,
	t.revoked_at,
	t.revoked_by_ip,
	t.replaced_by_token,
	t.is_expired,
	t.is_revoked,
	t.is_active
FROM refresh_tokens t
WHERE t.token = $1
  AND t.is_active = TRUE
  AND t.is_revoked = FALSE
  AND t.is_expired = FALSE
  AND t.expires > NOW()
`

const tokenRotateQ = `
UPDATE refresh_tokens
SET is_active = FALSE,
    replaced_by_token = $2
WHERE token = $1
  AND is_active = TRUE
  AND is_revoked = FALSE
  AND is_expired = FALSE
  AND expires > NOW()
RETURNING user_id
`

const tokenReplacedByQ = `
SELECT t.replaced_by_token
FROM refresh_tokens t
WHERE t.token = $1
`

const tokenRevokeQ = `
UPDATE refresh_tokens
SET is_active = FALSE,
    is_revoked = TRUE,
    revoked_at = NOW(),
    revoked_by_ip = $2
WHERE token = $1
  AND is_revoked = FALSE
`

const tokenRevokeAllQ = `
UPDATE refresh_tokens
SET is_active = FALSE,
    is_revoked = TRUE,
    revoked_at = NOW(),
    revoked_by_ip = $2
WHERE user_id = $1
  AND is_revoked = FALSE
  AND is_active = TRUE
`

const tokenSweepExpiredQ = `
UPDATE refresh_tokens
SET is_expired = TRUE
WHERE is_expired = FALSE
  AND expires <= NOW()
`
