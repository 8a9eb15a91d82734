package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/njprem/CodeCamp_LMS_BackEnd/internal/domain"
)

type InstructorRepository interface {
	Create(ctx context.Context, instructor *domain.Instructor) (*domain.Instructor, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Instructor, error)
	FindByEmail(ctx context.Context, email string) (*domain.Instructor, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash, passwordSalt []byte) error
}
