package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/njprem/CodeCamp_LMS_BackEnd/internal/domain"
)

const instructorColumns = `id, email, full_name, batches, is_admin, password_hash, password_salt, created_at, updated_at`

type InstructorRepository struct {
	db *sqlx.DB
}

func NewInstructorRepo(db *sqlx.DB) *InstructorRepository {
	return &InstructorRepository{db: db}
}

func (r *InstructorRepository) Create(ctx context.Context, instructor *domain.Instructor) (*domain.Instructor, error) {
	query := `
		INSERT INTO instructor (email, full_name, batches, is_admin, password_hash, password_salt)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + instructorColumns

	var created domain.Instructor
	if err := r.db.GetContext(ctx, &created, query,
		instructor.Email,
		instructor.FullName,
		pq.Array([]string(instructor.Batches)),
		instructor.IsAdmin,
		instructor.PasswordHash,
		instructor.PasswordSalt,
	); err != nil {
		return nil, errors.Wrap(err, "insert instructor")
	}
	return &created, nil
}

func (r *InstructorRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Instructor, error) {
	query := `SELECT ` + instructorColumns + ` FROM instructor WHERE id = $1`
	var instructor domain.Instructor
	if err := r.db.GetContext(ctx, &instructor, query, id); err != nil {
		return nil, errors.Wrapf(err, "find instructor %s", id)
	}
	return &instructor, nil
}

func (r *InstructorRepository) FindByEmail(ctx context.Context, email string) (*domain.Instructor, error) {
	query := `SELECT ` + instructorColumns + ` FROM instructor WHERE email = $1`
	var instructor domain.Instructor
	if err := r.db.GetContext(ctx, &instructor, query, email); err != nil {
		return nil, errors.Wrap(err, "find instructor by email")
	}
	return &instructor, nil
}

func (r *InstructorRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash, passwordSalt []byte) error {
	const query = `
		UPDATE instructor
		SET password_hash = $2,
		    password_salt = $3,
		    updated_at = NOW()
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query, id, passwordHash, passwordSalt)
	return errors.Wrap(err, "update instructor password")
}
