package config

import "time"

type ctxKey string

const (
	ClaimsKey ctxKey = "claims"
	IpKey     ctxKey = "ip"
)

const (
	DefaultPage = 1
	DefaultSize = 40

	DefaultCacheTime = time.Hour
	MinCacheTime     = time.Minute * 5
)

const (
	RefreshCookieName    = "refreshToken"
	AccessTokenDuration  = time.Minute * 15
	RefreshTokenDuration = time.Hour * 24 * 7
	SweepInterval        = time.Hour
)
