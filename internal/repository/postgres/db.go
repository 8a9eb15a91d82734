package postgres

import (
	"context"
	"embed"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

func New(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("pgx", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "connect postgres")
	}
	db.SetMaxOpenConns(20)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return db, nil
}

// Migrate applies the embedded goose migrations. With down set it rolls back
// the latest version instead.
func Migrate(ctx context.Context, db *sqlx.DB, down bool) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Wrap(err, "goose dialect")
	}
	if down {
		return errors.Wrap(goose.DownContext(ctx, db.DB, "migrations"), "migrate down")
	}
	return errors.Wrap(goose.UpContext(ctx, db.DB, "migrations"), "migrate up")
}

func MigrationStatus(ctx context.Context, db *sqlx.DB) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Wrap(err, "goose dialect")
	}
	return goose.StatusContext(ctx, db.DB, "migrations")
}
