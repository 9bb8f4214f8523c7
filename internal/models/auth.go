package models

import "time"

// RefreshToken is a persisted opaque refresh token. Rows are never deleted:
// rotation flips IsActive and links the replacement, revocation stamps
// RevokedAt/RevokedByIP. IsExpired is advisory bookkeeping only; the live
// usability check always re-evaluates Expires.
type RefreshToken struct {
	Token           string     `db:"token"             json:"token"`
	UserID          int64      `db:"user_id"           json:"userId"`
	Expires         time.Time  `db:"expires"           json:"expires"`
	CreatedAt       time.Time  `db:"created_at"        json:"createdAt"`
	CreatedByIP     string     `db:"created_by_ip"     json:"createdByIp"`
	RevokedAt       *time.Time `db:"revoked_at"        json:"revokedAt"`
	RevokedByIP     string     `db:"revoked_by_ip"     json:"revokedByIp"`
	ReplacedByToken string     `db:"replaced_by_token" json:"replacedByToken"`
	IsExpired       bool       `db:"is_expired"        json:"isExpired"`
	IsRevoked       bool       `db:"is_revoked"        json:"isRevoked"`
	IsActive        bool       `db:"is_active"         json:"isActive"`
}

// Usable reports whether the token may still be exchanged for a new pair.
func (t *RefreshToken) Usable(now time.Time) bool {
	return t.IsActive && !t.IsRevoked && !t.IsExpired && t.Expires.After(now)
}
