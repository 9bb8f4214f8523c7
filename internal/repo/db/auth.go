package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/opentracing/opentracing-go"
	md "github.com/quotegrid/quotegrid/internal/models"
	"github.com/quotegrid/quotegrid/internal/repo"
	"go.uber.org/zap"
)

func (r *Repository) CreateToken(ctx context.Context, t *md.RefreshToken) error {
	const op = "auth.CreateToken.repo"
	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	_, err := r.conn.ExecContext(
		ctx, tokenCreateQ, t.Token, t.UserID, t.Expires, t.CreatedByIP,
	)
	return err
}

func (r *Repository) GetUsableToken(ctx context.Context, token string) (*md.RefreshToken, error) {
	const op = "auth.GetUsableToken.repo"
	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	res := &md.RefreshToken{}
	err := r.conn.GetContext(ctx, res, tokenGetUsableQ, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		return nil, err
	}

	return res, nil
}

// RotateToken retires the old token and persists its replacement in one
// transaction. The conditional UPDATE is the single authorization gate: when
// two callers race on the same token, at most one sees an affected row and
// the loser gets ErrNotFound.
func (r *Repository) RotateToken(
	ctx context.Context,
	oldToken string,
	next *md.RefreshToken,
) (*md.RefreshToken, error) {
	const op = "auth.RotateToken.repo"
	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	tx, err := r.conn.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			zap.L().Debug("failed to rollback", zap.String("op", op), zap.Error(err))
		}
	}()

	var userID int64
	err = tx.GetContext(ctx, &userID, tokenRotateQ, oldToken, next.Token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.logTokenReuse(ctx, op, oldToken)
			return nil, repo.ErrNotFound
		}
		return nil, err
	}

	next.UserID = userID
	_, err = tx.ExecContext(
		ctx, tokenCreateQ, next.Token, next.UserID, next.Expires, next.CreatedByIP,
	)
	if err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	return next, nil
}

// logTokenReuse records the replay signal for monitoring. The caller still
// reports a plain authentication failure: a stale client and a stolen token
// must be indistinguishable in the response.
func (r *Repository) logTokenReuse(ctx context.Context, op, token string) {
	var replacedBy string
	err := r.conn.GetContext(ctx, &replacedBy, tokenReplacedByQ, token)
	if err == nil && replacedBy != "" {
		zap.L().Warn(
			"refresh token reuse detected",
			zap.String("op", op),
		)
	}
}

func (r *Repository) RevokeToken(ctx context.Context, token, ip string) error {
	const op = "auth.RevokeToken.repo"
	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	// Revoking an already-revoked token affects zero rows, which is fine.
	_, err := r.conn.ExecContext(ctx, tokenRevokeQ, token, ip)
	return err
}

func (r *Repository) RevokeAllTokens(ctx context.Context, userID int64, ip string) error {
	const op = "auth.RevokeAllTokens.repo"
	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	_, err := r.conn.ExecContext(ctx, tokenRevokeAllQ, userID, ip)
	return err
}

func (r *Repository) SweepExpiredTokens(ctx context.Context) (int64, error) {
	const op = "auth.SweepExpiredTokens.repo"
	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	res, err := r.conn.ExecContext(ctx, tokenSweepExpiredQ)
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}
