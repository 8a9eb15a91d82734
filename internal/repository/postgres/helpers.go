package postgres

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

func nullStringPtr(ptr *string) sql.NullString {
	if ptr == nil || *ptr == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *ptr, Valid: true}
}

func nullTimePtr(ptr *time.Time) sql.NullTime {
	if ptr == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *ptr, Valid: true}
}

func nullFloatPtr(ptr *float64) sql.NullFloat64 {
	if ptr == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *ptr, Valid: true}
}

func uuidPtrOrNil(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return *id
}
