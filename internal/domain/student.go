package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Student struct {
	ID                 uuid.UUID `db:"id" json:"id"`
	EnrollmentNumber   string    `db:"enrollment_number" json:"enrollmentNumber"`
	Email              string    `db:"email" json:"email"`
	FullName           string    `db:"full_name" json:"fullName"`
	Batch              string    `db:"batch" json:"batch"`
	PasswordHash       []byte    `db:"password_hash" json:"-"`
	PasswordSalt       []byte    `db:"password_salt" json:"-"`
	MustChangePassword bool      `db:"must_change_password" json:"mustChangePassword"`
	CreatedAt          time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt          time.Time `db:"updated_at" json:"updatedAt"`
	OTPState           `json:"-"`
}

func NormalizeEnrollmentNumber(value string) string {
	return strings.ToUpper(strings.TrimSpace(value))
}

func NormalizeEmail(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
