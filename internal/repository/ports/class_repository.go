package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/njprem/CodeCamp_LMS_BackEnd/internal/domain"
)

type ClassRepository interface {
	Create(ctx context.Context, class *domain.Class) (*domain.Class, error)
	Update(ctx context.Context, class *domain.Class) (*domain.Class, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Class, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter domain.ClassFilter) ([]domain.Class, error)

	UpsertAttendance(ctx context.Context, records []domain.AttendanceRecord) error
	ListAttendanceByClass(ctx context.Context, classID uuid.UUID) ([]domain.AttendanceRecord, error)
	ListAttendanceByStudent(ctx context.Context, studentID uuid.UUID) ([]domain.AttendanceRecord, error)
}
