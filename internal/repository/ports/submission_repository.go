package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/njprem/CodeCamp_LMS_BackEnd/internal/domain"
)

type SubmissionRepository interface {
	// Create fails with a unique violation when the attempt number is taken.
	Create(ctx context.Context, submission *domain.Submission) (*domain.Submission, error)
	UpdateGrading(ctx context.Context, submission *domain.Submission) (*domain.Submission, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Submission, error)
	CountByStudent(ctx context.Context, assignmentID, studentID uuid.UUID) (int, error)
	CountByAssignment(ctx context.Context, assignmentID uuid.UUID) (int, error)
	ListByAssignment(ctx context.Context, assignmentID uuid.UUID) ([]domain.Submission, error)
	ListByStudent(ctx context.Context, assignmentID, studentID uuid.UUID) ([]domain.Submission, error)
}
