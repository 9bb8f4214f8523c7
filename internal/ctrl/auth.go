package ctrl

import (
	"context"
	"errors"

	"github.com/opentracing/opentracing-go"
	"github.com/quotegrid/quotegrid/internal/auth"
	"github.com/quotegrid/quotegrid/internal/config"
	"github.com/quotegrid/quotegrid/internal/dto"
	md "github.com/quotegrid/quotegrid/internal/models"
	"github.com/quotegrid/quotegrid/internal/repo"
	"go.uber.org/zap"
)

type authCtrl interface {
	Login(ctx context.Context, req *dto.LoginRequest, ip string) (*dto.SessionResponse, error)
	Refresh(ctx context.Context, token, ip string) (*dto.SessionResponse, error)
	Logout(ctx context.Context, token, ip string) error
	SweepExpiredTokens(ctx context.Context) (int64, error)
}

type authRepo interface {
	CreateToken(ctx context.Context, t *md.RefreshToken) error
	GetUsableToken(ctx context.Context, token string) (*md.RefreshToken, error)
	RotateToken(ctx context.Context, oldToken string, next *md.RefreshToken) (*md.RefreshToken, error)
	RevokeToken(ctx context.Context, token, ip string) error
	RevokeAllTokens(ctx context.Context, userID int64, ip string) error
	SweepExpiredTokens(ctx context.Context) (int64, error)
}

// Login resolves the identifier, checks the credential and mints a session.
// Unknown identity, wrong password and a deactivated account all collapse
// into auth.ErrInvalidCredentials; the distinction is logged, never returned.
func (c *Controller) Login(
	ctx context.Context,
	req *dto.LoginRequest,
	ip string,
) (*dto.SessionResponse, error) {
	const op = "auth.Login.ctrl"

	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	user, err := c.repo.GetUserByLogin(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			zap.L().Debug(
				"login for unknown identity",
				zap.String("op", op),
			)
			return nil, auth.ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.IsActive {
		zap.L().Info(
			"login attempt for deactivated account",
			zap.String("op", op),
			zap.Int64("userID", user.ID),
		)
		return nil, auth.ErrInvalidCredentials
	}

	if !user.Password.Valid || !c.au.Verify(req.Password, user.Password.String) {
		return nil, auth.ErrInvalidCredentials
	}

	if err = c.repo.UpdateLastLogin(ctx, user.ID); err != nil {
		zap.L().Warn(
			"failed to update last login",
			zap.String("op", op),
			zap.Int64("userID", user.ID),
			zap.Error(err),
		)
	}

	res, err := c.issueTokenPair(ctx, user, ip)
	if err != nil {
		return nil, err
	}

	res.User = dto.NewUserResponse(user)
	return res, nil
}

// issueTokenPair is the single entry point for minting sessions: one signed
// access token plus one persisted opaque refresh token.
func (c *Controller) issueTokenPair(
	ctx context.Context,
	user *md.User,
	ip string,
) (*dto.SessionResponse, error) {
	const op = "auth.issueTokenPair.ctrl"

	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	access, err := c.au.NewAccess(ctx, user)
	if err != nil {
		return nil, err
	}

	refresh, err := c.au.NewRefreshValue()
	if err != nil {
		zap.L().Error(
			"failed to generate refresh value",
			zap.String("op", op),
			zap.Error(err),
		)
		return nil, err
	}

	err = c.repo.CreateToken(
		ctx, &md.RefreshToken{
			Token:       refresh,
			UserID:      user.ID,
			Expires:     c.au.GetRefreshTime(),
			CreatedByIP: ip,
			IsActive:    true,
		},
	)
	if err != nil {
		return nil, err
	}

	return &dto.SessionResponse{
		Success:      true,
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    config.RefreshTokenDuration.Milliseconds(),
	}, nil
}

// Refresh exchanges a usable refresh token for a new pair. The rotation is a
// single conditional update in the store: a reused, revoked, expired or
// unknown token fails closed with no partial state change.
func (c *Controller) Refresh(
	ctx context.Context,
	token, ip string,
) (*dto.SessionResponse, error) {
	const op = "auth.Refresh.ctrl"

	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	refresh, err := c.au.NewRefreshValue()
	if err != nil {
		return nil, err
	}

	next, err := c.repo.RotateToken(
		ctx, token, &md.RefreshToken{
			Token:       refresh,
			Expires:     c.au.GetRefreshTime(),
			CreatedByIP: ip,
			IsActive:    true,
		},
	)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, auth.ErrTokenRevoked
		}
		return nil, err
	}

	user, err := c.repo.GetUserByID(ctx, next.UserID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, auth.ErrTokenRevoked
		}
		return nil, err
	}

	if !user.IsActive {
		zap.L().Info(
			"refresh for deactivated account",
			zap.String("op", op),
			zap.Int64("userID", user.ID),
		)

		if err = c.repo.RevokeToken(ctx, next.Token, ip); err != nil {
			zap.L().Warn(
				"failed to revoke token of deactivated account",
				zap.String("op", op),
				zap.Error(err),
			)
		}

		return nil, auth.ErrTokenRevoked
	}

	access, err := c.au.NewAccess(ctx, user)
	if err != nil {
		return nil, err
	}

	return &dto.SessionResponse{
		Success:      true,
		AccessToken:  access,
		RefreshToken: next.Token,
		ExpiresIn:    config.RefreshTokenDuration.Milliseconds(),
	}, nil
}

// Logout revokes the presented refresh token. It never fails the caller:
// a missing token is a successful no-op and store errors are only logged.
func (c *Controller) Logout(ctx context.Context, token, ip string) error {
	const op = "auth.Logout.ctrl"

	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	if token == "" {
		return nil
	}

	if err := c.repo.RevokeToken(ctx, token, ip); err != nil {
		zap.L().Error(
			"failed to revoke refresh token on logout",
			zap.String("op", op),
			zap.Error(err),
		)
	}

	return nil
}

// SweepExpiredTokens marks past-expiry rows for bookkeeping. Usability checks
// never depend on it.
func (c *Controller) SweepExpiredTokens(ctx context.Context) (int64, error) {
	const op = "auth.SweepExpiredTokens.ctrl"

	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	swept, err := c.repo.SweepExpiredTokens(ctx)
	if err != nil {
		return 0, err
	}

	if swept > 0 {
		zap.L().Info(
			"swept expired refresh tokens",
			zap.String("op", op),
			zap.Int64("count", swept),
		)
	}

	return swept, nil
}
