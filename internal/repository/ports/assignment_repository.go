package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/njprem/CodeCamp_LMS_BackEnd/internal/domain"
)

type AssignmentRepository interface {
	Create(ctx context.Context, assignment *domain.Assignment) (*domain.Assignment, error)
	Update(ctx context.Context, assignment *domain.Assignment) (*domain.Assignment, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Assignment, error)
	List(ctx context.Context, filter domain.AssignmentFilter) ([]domain.Assignment, error)
}
