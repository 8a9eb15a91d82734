package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/njprem/CodeCamp_LMS_BackEnd/internal/domain"
)

type TokenDenylistRepository struct {
	db *sqlx.DB
}

func NewTokenDenylistRepo(db *sqlx.DB) *TokenDenylistRepository {
	return &TokenDenylistRepository{db: db}
}

func (r *TokenDenylistRepository) Revoke(ctx context.Context, token domain.RevokedToken) error {
	const query = `
		INSERT INTO revoked_token (jti, subject_id, expires_at, revoked_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (jti) DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, query, token.JTI, token.SubjectID, token.ExpiresAt, token.RevokedAt)
	return errors.Wrap(err, "revoke token")
}

func (r *TokenDenylistRepository) IsRevoked(ctx context.Context, jti string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM revoked_token WHERE jti = $1)`
	var revoked bool
	if err := r.db.GetContext(ctx, &revoked, query, jti); err != nil {
		return false, errors.Wrap(err, "lookup revoked token")
	}
	return revoked, nil
}

func (r *TokenDenylistRepository) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM revoked_token WHERE expires_at <= $1`, before)
	if err != nil {
		return 0, errors.Wrap(err, "purge revoked tokens")
	}
	return res.RowsAffected()
}
