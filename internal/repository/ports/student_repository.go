package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/njprem/CodeCamp_LMS_BackEnd/internal/domain"
)

type StudentRepository interface {
	Create(ctx context.Context, student *domain.Student) (*domain.Student, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Student, error)
	FindByEnrollmentNumber(ctx context.Context, enrollmentNumber string) (*domain.Student, error)
	FindByEnrollmentAndEmail(ctx context.Context, enrollmentNumber, email string) (*domain.Student, error)
	ExistsByEnrollmentOrEmail(ctx context.Context, enrollmentNumber, email string) (bool, error)
	ListByBatch(ctx context.Context, batch string) ([]domain.Student, error)
	// SaveOTPState replaces prev with next. It returns domain.ErrOTPStateChanged
	// when the stored code, attempts or lockout no longer match prev.
	SaveOTPState(ctx context.Context, id uuid.UUID, prev, next domain.OTPState) error
	// ResetPasswordWithOTP consumes the code verified from prev and stores new
	// credentials in one write, guarded like SaveOTPState.
	ResetPasswordWithOTP(ctx context.Context, id uuid.UUID, prev domain.OTPState, passwordHash, passwordSalt []byte) error
	// UpdatePassword stores new credentials and clears any OTP bookkeeping.
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash, passwordSalt []byte, mustChange bool) error
}
