package models

import (
	"database/sql"
	"time"
)

type Role string

const (
	RoleMember Role = "member"
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleMember || r == RoleOwner || r == RoleAdmin
}

// User is an identity principal. Password is nullable: federated-only
// accounts carry no stored credential. Users are deactivated, never deleted.
type User struct {
	ID        int64          `db:"id"         json:"id"`
	Username  string         `db:"username"   json:"username"`
	Email     string         `db:"email"      json:"email"`
	Password  sql.NullString `db:"password"   json:"-"`
	Role      Role           `db:"role"       json:"role"`
	CompanyID *int64         `db:"company_id" json:"companyId"`
	IsActive  bool           `db:"is_active"  json:"isActive"`
	LastLogin *time.Time     `db:"last_login" json:"lastLogin"`
	CreatedAt time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time      `db:"updated_at" json:"updatedAt"`
}
