package service

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrPasswordTooWeak    = errors.New("password must be at least 8 characters and include upper, lower, digit and symbol")
	ErrPasswordMismatch   = errors.New("current password is incorrect")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrForbidden          = errors.New("not allowed to access this resource")
	ErrEmailAlreadyUsed   = errors.New("email already in use")
	ErrOTPDelivery        = errors.New("failed to send verification email")
)

// ValidationError carries per-field messages for a rejected input.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, field+": "+msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func normalizeString(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
