package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/njprem/CodeCamp_LMS_BackEnd/internal/domain"
)

type RosterImportRepository interface {
	CreateJob(ctx context.Context, job *domain.RosterImportJob) (*domain.RosterImportJob, error)
	UpdateJob(ctx context.Context, job *domain.RosterImportJob) (*domain.RosterImportJob, error)
	FindJobByID(ctx context.Context, id uuid.UUID) (*domain.RosterImportJob, error)
	InsertRow(ctx context.Context, row *domain.RosterImportRow) (*domain.RosterImportRow, error)
	ListRowsByJob(ctx context.Context, jobID uuid.UUID) ([]domain.RosterImportRow, error)
}
