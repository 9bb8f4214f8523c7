package ctrl

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/opentracing/opentracing-go"
	"github.com/quotegrid/quotegrid/internal/auth"
	"github.com/quotegrid/quotegrid/internal/config"
	"github.com/quotegrid/quotegrid/internal/dto"
	md "github.com/quotegrid/quotegrid/internal/models"
	"github.com/quotegrid/quotegrid/internal/repo"
	"go.uber.org/zap"
)

type userCtrl interface {
	GetUserByID(ctx context.Context, userID int64) (*md.User, error)
	CreateUser(ctx context.Context, req *dto.CreateUserRequest) (*dto.CreateUserResponse, error)
	ListCompanyUsers(
		ctx context.Context,
		companyID int64,
		page, size int,
		filters map[string]any,
	) (*dto.PaginatedUserResponse, error)
	ChangePassword(ctx context.Context, userID int64, req *dto.ChangePasswordRequest, ip string) error
	DeactivateUser(ctx context.Context, userID int64, ip string) error
}

type userRepo interface {
	GetUserByLogin(ctx context.Context, login string) (*md.User, error)
	GetUserByID(ctx context.Context, userID int64) (*md.User, error)
	CreateUser(ctx context.Context, u *md.User) (int64, error)
	ListCompanyUsers(
		ctx context.Context,
		companyID int64,
		page, size int,
		filters map[string]any,
	) (*dto.PaginatedUserResponse, error)
	UpdatePassword(ctx context.Context, userID int64, hashed string) error
	SetUserActive(ctx context.Context, userID int64, active bool) error
	UpdateLastLogin(ctx context.Context, userID int64) error
}

const (
	userCacheKey     = "user:%v"
	companyUsersKey  = "company-users:%v:%v:%v:%v"
	companyUsersPtrn = "company-users:*"
)

func (c *Controller) GetUserByID(ctx context.Context, userID int64) (*md.User, error) {
	const op = "users.GetUserByID.ctrl"
	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	cached := &md.User{}
	cacheKey := fmt.Sprintf(userCacheKey, userID)
	if err := c.cache.GetToStruct(ctx, cacheKey, cached); err == nil {
		return cached, nil
	}

	res, err := c.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	bytes, err := json.Marshal(res)
	if err == nil {
		c.cache.Set(ctx, config.DefaultCacheTime, cacheKey, bytes)
	}

	return res, nil
}

func (c *Controller) CreateUser(
	ctx context.Context,
	req *dto.CreateUserRequest,
) (*dto.CreateUserResponse, error) {
	const op = "users.CreateUser.ctrl"
	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	hashed, err := c.au.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	id, err := c.repo.CreateUser(
		ctx, &md.User{
			Username:  req.Username,
			Email:     req.Email,
			Password:  sql.NullString{String: hashed, Valid: true},
			Role:      req.Role,
			CompanyID: req.CompanyID,
			IsActive:  true,
		},
	)
	if err != nil {
		if errors.Is(err, repo.ErrAlreadyExists) {
			return nil, ErrAlreadyExists
		}
		return nil, err
	}

	c.cache.InvalidateKeysByPattern(ctx, companyUsersPtrn)
	return &dto.CreateUserResponse{ID: id}, nil
}

func (c *Controller) ListCompanyUsers(
	ctx context.Context,
	companyID int64,
	page, size int,
	filters map[string]any,
) (*dto.PaginatedUserResponse, error) {
	const op = "users.ListCompanyUsers.ctrl"
	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	cached := &dto.PaginatedUserResponse{}
	cacheKey := fmt.Sprintf(companyUsersKey, companyID, page, size, filters)
	if err := c.cache.GetToStruct(ctx, cacheKey, cached); err == nil {
		return cached, nil
	}

	res, err := c.repo.ListCompanyUsers(ctx, companyID, page, size, filters)
	if err != nil {
		return nil, err
	}

	bytes, err := json.Marshal(res)
	if err == nil {
		c.cache.Set(ctx, config.DefaultCacheTime, cacheKey, bytes)
	}

	return res, nil
}

// ChangePassword verifies the current credential, stores the new one and
// signs the user out everywhere. A security notice is sent best-effort.
func (c *Controller) ChangePassword(
	ctx context.Context,
	userID int64,
	req *dto.ChangePasswordRequest,
	ip string,
) error {
	const op = "users.ChangePassword.ctrl"
	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	user, err := c.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	if !user.Password.Valid || !c.au.Verify(req.CurrentPassword, user.Password.String) {
		return auth.ErrInvalidCredentials
	}

	hashed, err := c.au.Hash(req.NewPassword)
	if err != nil {
		return err
	}

	if err = c.repo.UpdatePassword(ctx, userID, hashed); err != nil {
		return err
	}

	if err = c.repo.RevokeAllTokens(ctx, userID, ip); err != nil {
		zap.L().Error(
			"failed to revoke tokens after password change",
			zap.String("op", op),
			zap.Int64("userID", userID),
			zap.Error(err),
		)
	}

	c.cache.Delete(ctx, fmt.Sprintf(userCacheKey, userID))

	if err = c.email.SendPasswordChanged(user.Email); err != nil {
		zap.L().Warn(
			"failed to send password-changed notice",
			zap.String("op", op),
			zap.Int64("userID", userID),
			zap.Error(err),
		)
	}

	return nil
}

// DeactivateUser soft-deactivates an identity and revokes its sessions. Rows
// are never deleted so historical records keep their references.
func (c *Controller) DeactivateUser(ctx context.Context, userID int64, ip string) error {
	const op = "users.DeactivateUser.ctrl"
	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	if err := c.repo.SetUserActive(ctx, userID, false); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	if err := c.repo.RevokeAllTokens(ctx, userID, ip); err != nil {
		zap.L().Error(
			"failed to revoke tokens on deactivation",
			zap.String("op", op),
			zap.Int64("userID", userID),
			zap.Error(err),
		)
	}

	c.cache.Delete(ctx, fmt.Sprintf(userCacheKey, userID))
	c.cache.InvalidateKeysByPattern(ctx, companyUsersPtrn)

	return nil
}
