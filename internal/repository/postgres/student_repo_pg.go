package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/njprem/CodeCamp_LMS_BackEnd/internal/domain"
)

const studentColumns = `
	id, enrollment_number, email, full_name, batch, password_hash, password_salt,
	must_change_password, otp_hash, otp_salt, otp_purpose, otp_expires_at,
	otp_attempts, otp_locked_until, created_at, updated_at
`

type StudentRepository struct {
	db *sqlx.DB
}

func NewStudentRepo(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

func (r *StudentRepository) Create(ctx context.Context, student *domain.Student) (*domain.Student, error) {
	query := `
		INSERT INTO student (enrollment_number, email, full_name, batch, password_hash, password_salt, must_change_password)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + studentColumns

	var created domain.Student
	if err := r.db.GetContext(ctx, &created, query,
		student.EnrollmentNumber,
		student.Email,
		student.FullName,
		student.Batch,
		student.PasswordHash,
		student.PasswordSalt,
		student.MustChangePassword,
	); err != nil {
		return nil, errors.Wrap(err, "insert student")
	}
	return &created, nil
}

func (r *StudentRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM student WHERE id = $1`
	var student domain.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, errors.Wrapf(err, "find student %s", id)
	}
	return &student, nil
}

func (r *StudentRepository) FindByEnrollmentNumber(ctx context.Context, enrollmentNumber string) (*domain.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM student WHERE enrollment_number = $1`
	var student domain.Student
	if err := r.db.GetContext(ctx, &student, query, enrollmentNumber); err != nil {
		return nil, errors.Wrap(err, "find student by enrollment number")
	}
	return &student, nil
}

func (r *StudentRepository) FindByEnrollmentAndEmail(ctx context.Context, enrollmentNumber, email string) (*domain.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM student WHERE enrollment_number = $1 AND email = $2`
	var student domain.Student
	if err := r.db.GetContext(ctx, &student, query, enrollmentNumber, email); err != nil {
		return nil, errors.Wrap(err, "find student by enrollment number and email")
	}
	return &student, nil
}

func (r *StudentRepository) ExistsByEnrollmentOrEmail(ctx context.Context, enrollmentNumber, email string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM student WHERE enrollment_number = $1 OR email = $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, enrollmentNumber, email); err != nil {
		return false, errors.Wrap(err, "check student exists")
	}
	return exists, nil
}

func (r *StudentRepository) ListByBatch(ctx context.Context, batch string) ([]domain.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM student WHERE batch = $1 ORDER BY enrollment_number`
	students := make([]domain.Student, 0)
	if err := r.db.SelectContext(ctx, &students, query, batch); err != nil {
		return nil, errors.Wrap(err, "list students by batch")
	}
	return students, nil
}

// otpGuard matches the row only while the code, attempt count and lockout
// are still the ones the caller read.
const otpGuard = `
		AND otp_hash IS NOT DISTINCT FROM $%d
		AND otp_attempts = $%d
		AND otp_locked_until IS NOT DISTINCT FROM $%d
`

func (r *StudentRepository) SaveOTPState(ctx context.Context, id uuid.UUID, prev, next domain.OTPState) error {
	query := `
		UPDATE student
		SET otp_hash = $2,
		    otp_salt = $3,
		    otp_purpose = $4,
		    otp_expires_at = $5,
		    otp_attempts = $6,
		    otp_locked_until = $7,
		    updated_at = NOW()
		WHERE id = $1` + fmt.Sprintf(otpGuard, 8, 9, 10)

	var purpose *string
	if next.Purpose != nil {
		p := string(*next.Purpose)
		purpose = &p
	}
	res, err := r.db.ExecContext(ctx, query,
		id,
		next.Hash,
		next.Salt,
		nullStringPtr(purpose),
		nullTimePtr(next.ExpiresAt),
		next.Attempts,
		nullTimePtr(next.LockedUntil),
		prev.Hash,
		prev.Attempts,
		nullTimePtr(prev.LockedUntil),
	)
	if err != nil {
		return errors.Wrap(err, "save otp state")
	}
	return otpRowsAffected(res)
}

func (r *StudentRepository) ResetPasswordWithOTP(ctx context.Context, id uuid.UUID, prev domain.OTPState, passwordHash, passwordSalt []byte) error {
	query := `
		UPDATE student
		SET password_hash = $2,
		    password_salt = $3,
		    must_change_password = FALSE,
		    otp_hash = NULL,
		    otp_salt = NULL,
		    otp_purpose = NULL,
		    otp_expires_at = NULL,
		    otp_attempts = 0,
		    otp_locked_until = NULL,
		    updated_at = NOW()
		WHERE id = $1` + fmt.Sprintf(otpGuard, 4, 5, 6)

	res, err := r.db.ExecContext(ctx, query, id, passwordHash, passwordSalt, prev.Hash, prev.Attempts, nullTimePtr(prev.LockedUntil))
	if err != nil {
		return errors.Wrap(err, "reset student password")
	}
	return otpRowsAffected(res)
}

func otpRowsAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "otp rows affected")
	}
	if n == 0 {
		return domain.ErrOTPStateChanged
	}
	return nil
}

func (r *StudentRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash, passwordSalt []byte, mustChange bool) error {
	const query = `
		UPDATE student
		SET password_hash = $2,
		    password_salt = $3,
		    must_change_password = $4,
		    otp_hash = NULL,
		    otp_salt = NULL,
		    otp_purpose = NULL,
		    otp_expires_at = NULL,
		    otp_attempts = 0,
		    otp_locked_until = NULL,
		    updated_at = NOW()
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query, id, passwordHash, passwordSalt, mustChange)
	return errors.Wrap(err, "update student password")
}
