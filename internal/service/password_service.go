package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/njprem/CodeCamp_LMS_BackEnd/internal/domain"
	"github.com/njprem/CodeCamp_LMS_BackEnd/internal/repository/ports"
	"github.com/njprem/CodeCamp_LMS_BackEnd/internal/util"
)

// OTPSender delivers one-time codes to students.
type OTPSender interface {
	SendOTP(ctx context.Context, email, code string, purpose domain.OTPPurpose, ttl time.Duration) error
}

type PasswordServiceConfig struct {
	ChangeOTPTTL time.Duration
	ResetOTPTTL  time.Duration
}

// FailureReporter forwards failures that do not reach an HTTP response.
type FailureReporter interface {
	Report(ctx context.Context, err error, extras map[string]interface{})
}

const (
	// otpWriteRetries bounds how often a verification re-reads the OTP record
	// after losing a concurrent write.
	otpWriteRetries = 5

	defaultChangeOTPTTL = 15 * time.Minute
	defaultResetOTPTTL  = 10 * time.Minute
)

type PasswordService struct {
	students ports.StudentRepository
	jwt      *util.JWTManager
	mailer   OTPSender
	reporter FailureReporter

	changeTTL    time.Duration
	resetTTL     time.Duration
	now          func() time.Time
	generateCode func() (string, error)
}

type PasswordChangeResult struct {
	Token     string
	ExpiresAt time.Time
	Student   *domain.Student
}

func NewPasswordService(students ports.StudentRepository, jwt *util.JWTManager, mailer OTPSender, cfg PasswordServiceConfig) *PasswordService {
	changeTTL := cfg.ChangeOTPTTL
	if changeTTL <= 0 {
		changeTTL = defaultChangeOTPTTL
	}
	resetTTL := cfg.ResetOTPTTL
	if resetTTL <= 0 {
		resetTTL = defaultResetOTPTTL
	}
	return &PasswordService{
		students:  students,
		jwt:       jwt,
		mailer:    mailer,
		changeTTL: changeTTL,
		resetTTL:  resetTTL,
		now:       time.Now,
		generateCode: func() (string, error) {
			return util.GenerateNumericOTP(domain.OTPLength)
		},
	}
}

func (s *PasswordService) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

func (s *PasswordService) SetReporter(reporter FailureReporter) {
	s.reporter = reporter
}

// RequestPasswordChangeOTP emails a change code to a student holding a
// password-change token from login.
func (s *PasswordService) RequestPasswordChangeOTP(ctx context.Context, enrollmentNumber, tempToken string) error {
	student, err := s.studentFromTempToken(ctx, enrollmentNumber, tempToken)
	if err != nil {
		return err
	}
	return s.issue(ctx, student, domain.OTPPurposeChange, s.changeTTL)
}

// VerifyOTPAndChangePassword completes the first-login password change and
// returns a regular access token.
func (s *PasswordService) VerifyOTPAndChangePassword(ctx context.Context, enrollmentNumber, code, newPassword, tempToken string) (*PasswordChangeResult, error) {
	student, err := s.studentFromTempToken(ctx, enrollmentNumber, tempToken)
	if err != nil {
		return nil, err
	}
	if err := util.ValidatePassword(newPassword); err != nil {
		return nil, ErrPasswordTooWeak
	}
	if err := s.verifyAndSetPassword(ctx, student, domain.OTPPurposeChange, code, newPassword); err != nil {
		return nil, err
	}

	token, expiresAt, err := s.jwt.Generate(student.ID, string(domain.PrincipalStudent))
	if err != nil {
		return nil, err
	}
	updated, err := s.students.FindByID(ctx, student.ID)
	if err != nil {
		return nil, err
	}
	return &PasswordChangeResult{Token: token, ExpiresAt: expiresAt, Student: updated}, nil
}

// ForgotPassword emails a reset code when the enrollment number and email
// belong to the same student. Unknown pairs succeed silently.
func (s *PasswordService) ForgotPassword(ctx context.Context, enrollmentNumber, email string) error {
	student, err := s.students.FindByEnrollmentAndEmail(ctx, domain.NormalizeEnrollmentNumber(enrollmentNumber), domain.NormalizeEmail(email))
	if err != nil {
		if isNotFound(err) {
			log.Printf("password: forgot-password for unknown student %q", domain.NormalizeEnrollmentNumber(enrollmentNumber))
			return nil
		}
		return err
	}
	return s.issue(ctx, student, domain.OTPPurposeReset, s.resetTTL)
}

func (s *PasswordService) ResetPassword(ctx context.Context, enrollmentNumber, email, code, newPassword string) error {
	student, err := s.students.FindByEnrollmentAndEmail(ctx, domain.NormalizeEnrollmentNumber(enrollmentNumber), domain.NormalizeEmail(email))
	if err != nil {
		if isNotFound(err) {
			return domain.ErrOTPInvalid
		}
		return err
	}
	if err := util.ValidatePassword(newPassword); err != nil {
		return ErrPasswordTooWeak
	}
	return s.verifyAndSetPassword(ctx, student, domain.OTPPurposeReset, code, newPassword)
}

func (s *PasswordService) studentFromTempToken(ctx context.Context, enrollmentNumber, tempToken string) (*domain.Student, error) {
	claims, err := s.jwt.Parse(tempToken)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if claims.Purpose != util.TokenPurposePasswordChange || claims.Kind != string(domain.PrincipalStudent) {
		return nil, ErrInvalidToken
	}
	student, err := s.students.FindByEnrollmentNumber(ctx, domain.NormalizeEnrollmentNumber(enrollmentNumber))
	if err != nil {
		if isNotFound(err) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if student.ID != claims.UserID || !student.MustChangePassword {
		return nil, ErrInvalidToken
	}
	return student, nil
}

func (s *PasswordService) issue(ctx context.Context, student *domain.Student, purpose domain.OTPPurpose, ttl time.Duration) error {
	code, err := s.generateCode()
	if err != nil {
		return err
	}
	hash, salt, err := util.DerivePassword(code)
	if err != nil {
		return err
	}

	prev := student.OTPState
	state := prev
	if err := state.Issue(s.now(), hash, salt, purpose, ttl); err != nil {
		return err
	}
	if err := s.students.SaveOTPState(ctx, student.ID, prev, state); err != nil {
		return err
	}

	if err := s.mailer.SendOTP(ctx, student.Email, code, purpose, ttl); err != nil {
		log.Printf("password: send %s otp to student %s: %v", purpose, student.ID, err)
		s.report(ctx, err, map[string]interface{}{"student_id": student.ID.String(), "purpose": string(purpose)})
		cleared := state
		cleared.ClearCode()
		if saveErr := s.students.SaveOTPState(ctx, student.ID, state, cleared); saveErr != nil {
			log.Printf("password: clear undelivered otp for student %s: %v", student.ID, saveErr)
		}
		return fmt.Errorf("%w: %v", ErrOTPDelivery, err)
	}
	student.OTPState = state
	return nil
}

// verifyAndSetPassword runs the lockout state machine against the stored
// record. Every write is conditional on the record read, so concurrent
// guesses are counted one by one; a request that loses the race re-reads and
// evaluates its code again. A correct code is consumed by the same write that
// stores the new password. A code that is not six digits counts as a failed
// attempt.
func (s *PasswordService) verifyAndSetPassword(ctx context.Context, student *domain.Student, purpose domain.OTPPurpose, code, newPassword string) error {
	hash, salt, err := util.DerivePassword(newPassword)
	if err != nil {
		return err
	}
	wellFormed := util.IsNumericCode(code, domain.OTPLength)
	matches := func(h, sl []byte) bool {
		return wellFormed && util.VerifyPassword(code, sl, h)
	}

	for attempt := 0; ; attempt++ {
		prev := student.OTPState
		next := prev
		verifyErr := next.Verify(s.now(), purpose, matches)

		switch {
		case verifyErr == nil:
			err = s.students.ResetPasswordWithOTP(ctx, student.ID, prev, hash, salt)
		case prev.SameGuard(next):
			// locked out or no live code: nothing to record
			err = nil
		default:
			err = s.students.SaveOTPState(ctx, student.ID, prev, next)
		}

		if errors.Is(err, domain.ErrOTPStateChanged) && attempt < otpWriteRetries {
			fresh, findErr := s.students.FindByID(ctx, student.ID)
			if findErr != nil {
				return findErr
			}
			*student = *fresh
			continue
		}
		if err != nil {
			return err
		}

		if verifyErr != nil {
			student.OTPState = next
			return verifyErr
		}
		student.OTPState.Clear()
		student.MustChangePassword = false
		return nil
	}
}

func (s *PasswordService) report(ctx context.Context, err error, extras map[string]interface{}) {
	if s.reporter != nil {
		s.reporter.Report(ctx, err, extras)
	}
}
