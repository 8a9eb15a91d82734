package ports

import (
	"context"
	"time"

	"github.com/njprem/CodeCamp_LMS_BackEnd/internal/domain"
)

type TokenDenylistRepository interface {
	Revoke(ctx context.Context, token domain.RevokedToken) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
	PurgeExpired(ctx context.Context, before time.Time) (int64, error)
}
