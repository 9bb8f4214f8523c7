package jwt

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/opentracing/opentracing-go"
	"github.com/quotegrid/quotegrid/internal/config"
	md "github.com/quotegrid/quotegrid/internal/models"
	"go.uber.org/zap"
)

type Port interface {
	GetAccessTime() time.Time
	GetRefreshTime() time.Time
	NewAccess(ctx context.Context, u *md.User) (string, error)
	ParseClaims(ctx context.Context, tokenStr string) (Claims, error)
}

type Core struct {
	secret []byte
	issuer string
}

// Claims is the access-token claim set. An access token is verifiable purely
// from its signature and expiry; no store lookup is involved.
type Claims struct {
	ID        int64   `json:"id"`
	Username  string  `json:"username"`
	Email     string  `json:"email"`
	Role      md.Role `json:"role"`
	CompanyID *int64  `json:"companyId"`
	jwt.RegisteredClaims
}

func New(conf config.Config) *Core {
	return &Core{secret: []byte(conf.Auth.Secret), issuer: conf.Auth.Issuer}
}

func (c *Core) GetAccessTime() time.Time {
	return time.Now().Add(config.AccessTokenDuration)
}

func (c *Core) GetRefreshTime() time.Time {
	return time.Now().Add(config.RefreshTokenDuration)
}

func (c *Core) NewAccess(ctx context.Context, u *md.User) (string, error) {
	const op = "auth.NewAccess.jwt"
	span, _ := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	signed, err := jwt.NewWithClaims(
		jwt.SigningMethodHS256, &Claims{
			ID:        u.ID,
			Username:  u.Username,
			Email:     u.Email,
			Role:      u.Role,
			CompanyID: u.CompanyID,
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        uuid.NewString(),
				ExpiresAt: jwt.NewNumericDate(c.GetAccessTime()),
				IssuedAt:  jwt.NewNumericDate(time.Now()),
				Issuer:    c.issuer,
			},
		},
	).SignedString(c.secret)
	if err != nil {
		zap.L().Error(
			ErrWhileCreatingToken.Error(),
			zap.String("op", op),
			zap.Error(err),
		)

		return "", ErrWhileCreatingToken
	}

	return signed, nil
}

func (c *Core) ParseClaims(ctx context.Context, tokenStr string) (Claims, error) {
	const op = "auth.ParseClaims.jwt"
	span, _ := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	claims := Claims{}
	token, err := jwt.ParseWithClaims(
		tokenStr, &claims, func(token *jwt.Token) (any, error) {
			if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
				return nil, ErrUnexpectedSignMethod
			}

			return c.secret, nil
		},
	)
	if err != nil {
		zap.L().Debug(
			"Failed to parse claims",
			zap.String("op", op),
			zap.Error(err),
		)

		return claims, ErrInvalidToken
	}

	if !token.Valid {
		zap.L().Debug(
			"Token is invalid",
			zap.String("op", op),
		)

		return claims, ErrInvalidToken
	}

	return claims, nil
}
