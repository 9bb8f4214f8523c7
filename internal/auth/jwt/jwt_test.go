package jwt

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/quotegrid/quotegrid/internal/config"
	md "github.com/quotegrid/quotegrid/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConf() config.Config {
	return config.Config{
		Auth: config.AuthConfig{
			Secret: "test-secret",
			Issuer: "quotegrid-test",
		},
	}
}

func testUser() *md.User {
	companyID := int64(42)
	return &md.User{
		ID:        7,
		Username:  "jdoe",
		Email:     "jdoe@example.com",
		Role:      md.RoleOwner,
		CompanyID: &companyID,
		IsActive:  true,
	}
}

func TestCore_NewAccessAndParse(t *testing.T) {
	ctx := context.Background()
	core := New(testConf())

	token, err := core.NewAccess(ctx, testUser())
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := core.ParseClaims(ctx, token)
	require.NoError(t, err)

	assert.Equal(t, int64(7), claims.ID)
	assert.Equal(t, "jdoe", claims.Username)
	assert.Equal(t, "jdoe@example.com", claims.Email)
	assert.Equal(t, md.RoleOwner, claims.Role)
	require.NotNil(t, claims.CompanyID)
	assert.Equal(t, int64(42), *claims.CompanyID)
	assert.Equal(t, "quotegrid-test", claims.Issuer)

	_, err = uuid.Parse(claims.RegisteredClaims.ID)
	assert.NoError(t, err)

	assert.WithinDuration(
		t,
		time.Now().Add(config.AccessTokenDuration),
		claims.ExpiresAt.Time,
		time.Minute,
	)
}

func TestCore_ParseClaims_Expired(t *testing.T) {
	ctx := context.Background()
	core := New(testConf())

	expired, err := jwt.NewWithClaims(
		jwt.SigningMethodHS256, &Claims{
			ID: 7,
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
				IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			},
		},
	).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = core.ParseClaims(ctx, expired)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestCore_ParseClaims_BadSignature(t *testing.T) {
	ctx := context.Background()

	token, err := New(testConf()).NewAccess(ctx, testUser())
	require.NoError(t, err)

	other := New(
		config.Config{
			Auth: config.AuthConfig{Secret: "other-secret"},
		},
	)

	_, err = other.ParseClaims(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestCore_ParseClaims_WrongMethod(t *testing.T) {
	ctx := context.Background()
	core := New(testConf())

	// alg=none style tokens must not pass.
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{ID: 7}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = core.ParseClaims(ctx, unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestCore_ParseClaims_Garbage(t *testing.T) {
	ctx := context.Background()
	core := New(testConf())

	_, err := core.ParseClaims(ctx, "not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
