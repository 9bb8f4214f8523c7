package db

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/opentracing/opentracing-go"
	"go.uber.org/zap"
)

type companyUsersQuery struct {
	countQ    string
	countArgs []any
	dataQ     string
	dataArgs  []any
}

func buildCompanyUsersQuery(
	ctx context.Context,
	companyID int64,
	page, size int,
	filters map[string]any,
) (companyUsersQuery, error) {
	const op = "users.buildCompanyUsersQuery.repo"

	span, _ := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	query := sq.Select().
		From("users u").
		Where(sq.Eq{"u.company_id": companyID}).
		PlaceholderFormat(sq.Dollar)

	if isActive, ok := filters["is_active"].(bool); ok {
		query = query.Where(sq.Eq{"u.is_active": isActive})
	}

	if role, ok := filters["role"].(string); ok {
		query = query.Where(sq.Eq{"u.role": role})
	}

	countSql, countArgs, err := query.Columns("COUNT(DISTINCT u.id)").ToSql()
	if err != nil {
		span.SetTag("error", true)
		zap.L().Error("failed to build count query", zap.String("op", op), zap.Error(err))
		return companyUsersQuery{}, err
	}

	dataSql, dataArgs, err := query.
		Columns(
			"u.id",
			"u.username",
			"u.email",
			"u.password",
			"u.role",
			"u.company_id",
			"u.is_active",
			"u.last_login",
			"u.created_at",
			"u.updated_at",
		).
		OrderBy("u.id").
		Limit(uint64(size)).
		Offset(uint64((page - 1) * size)).
		ToSql()
	if err != nil {
		span.SetTag("error", true)
		zap.L().Error("failed to build data query", zap.String("op", op), zap.Error(err))
		return companyUsersQuery{}, err
	}

	return companyUsersQuery{
		countQ:    countSql,
		countArgs: countArgs,
		dataQ:     dataSql,
		dataArgs:  dataArgs,
	}, nil
}
