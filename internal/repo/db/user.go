package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/opentracing/opentracing-go"
	"github.com/quotegrid/quotegrid/internal/dto"
	md "github.com/quotegrid/quotegrid/internal/models"
	"github.com/quotegrid/quotegrid/internal/repo"
)

// GetUserByLogin resolves a login identifier against both username and email,
// exact match first, then a case-insensitive fallback for rows with
// inconsistent historical casing.
func (r *Repository) GetUserByLogin(ctx context.Context, login string) (*md.User, error) {
	const op = "users.GetUserByLogin.repo"
	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	res := &md.User{}
	err := r.conn.GetContext(ctx, res, userGetByLoginQ, login)
	if err == nil {
		return res, nil
	}

	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	err = r.conn.GetContext(ctx, res, userGetByLoginCIQ, login)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		return nil, err
	}

	return res, nil
}

func (r *Repository) GetUserByID(ctx context.Context, userID int64) (*md.User, error) {
	const op = "users.GetUserByID.repo"
	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	res := &md.User{}
	err := r.conn.GetContext(ctx, res, userGetByIDQ, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		return nil, err
	}

	return res, nil
}

func (r *Repository) CreateUser(ctx context.Context, u *md.User) (int64, error) {
	const op = "users.CreateUser.repo"
	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	var id int64
	err := r.conn.GetContext(
		ctx, &id, userCreateQ, u.Username, u.Email, u.Password, u.Role, u.CompanyID,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, repo.ErrAlreadyExists
		}
		return 0, err
	}

	return id, nil
}

func (r *Repository) ListCompanyUsers(
	ctx context.Context,
	companyID int64,
	page, size int,
	filters map[string]any,
) (*dto.PaginatedUserResponse, error) {
	const op = "users.ListCompanyUsers.repo"
	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	q, err := buildCompanyUsersQuery(ctx, companyID, page, size, filters)
	if err != nil {
		return nil, err
	}

	var count int64
	if err = r.conn.GetContext(ctx, &count, q.countQ, q.countArgs...); err != nil {
		return nil, err
	}

	users := make([]*md.User, 0, size)
	if err = r.conn.SelectContext(ctx, &users, q.dataQ, q.dataArgs...); err != nil {
		return nil, err
	}

	data := make([]*dto.UserResponse, 0, len(users))
	for _, u := range users {
		data = append(data, dto.NewUserResponse(u))
	}

	totalPages := int((count + int64(size) - 1) / int64(size))
	return &dto.PaginatedUserResponse{
		Data:        data,
		Count:       count,
		TotalPages:  totalPages,
		CurrentPage: page,
		HasNextPage: page < totalPages,
	}, nil
}

func (r *Repository) UpdatePassword(ctx context.Context, userID int64, hashed string) error {
	const op = "users.UpdatePassword.repo"
	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	res, err := r.conn.ExecContext(ctx, userUpdatePasswordQ, hashed, userID)
	if err != nil {
		return err
	}

	if aff, err := res.RowsAffected(); err == nil && aff == 0 {
		return repo.ErrNotFound
	}

	return nil
}

func (r *Repository) SetUserActive(ctx context.Context, userID int64, active bool) error {
	const op = "users.SetUserActive.repo"
	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	res, err := r.conn.ExecContext(ctx, userSetActiveQ, active, userID)
	if err != nil {
		return err
	}

	if aff, err := res.RowsAffected(); err == nil && aff == 0 {
		return repo.ErrNotFound
	}

	return nil
}

func (r *Repository) UpdateLastLogin(ctx context.Context, userID int64) error {
	const op = "users.UpdateLastLogin.repo"
	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	_, err := r.conn.ExecContext(ctx, userUpdateLastLoginQ, userID)
	return err
}
