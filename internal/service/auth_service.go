package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"google.golang.org/api/idtoken"

	"github.com/njprem/CodeCamp_LMS_BackEnd/internal/domain"
	"github.com/njprem/CodeCamp_LMS_BackEnd/internal/repository/ports"
	"github.com/njprem/CodeCamp_LMS_BackEnd/internal/util"
)

type googleValidator func(ctx context.Context, idToken, audience string) (*idtoken.Payload, error)

type AuthService struct {
	students    ports.StudentRepository
	instructors ports.InstructorRepository
	denylist    ports.TokenDenylistRepository
	jwt         *util.JWTManager

	googleAudience string
	validateGoogle googleValidator
	now            func() time.Time
}

type LoginResult struct {
	Token              string
	ExpiresAt          time.Time
	MustChangePassword bool
	TempToken          string
	Student            *domain.Student
	Instructor         *domain.Instructor
}

type RegisterInstructorInput struct {
	Email    string
	FullName string
	Password string
	Batches  []string
	IsAdmin  bool
}

func NewAuthService(students ports.StudentRepository, instructors ports.InstructorRepository, denylist ports.TokenDenylistRepository, jwt *util.JWTManager, googleAudience string) *AuthService {
	return &AuthService{
		students:       students,
		instructors:    instructors,
		denylist:       denylist,
		jwt:            jwt,
		googleAudience: strings.TrimSpace(googleAudience),
		validateGoogle: idtoken.Validate,
		now:            time.Now,
	}
}

func (s *AuthService) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// LoginStudent authenticates by enrollment number. Students flagged to change
// their password receive only a short-lived password-change token.
func (s *AuthService) LoginStudent(ctx context.Context, enrollmentNumber, password string) (*LoginResult, error) {
	enrollment := domain.NormalizeEnrollmentNumber(enrollmentNumber)
	if enrollment == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	student, err := s.students.FindByEnrollmentNumber(ctx, enrollment)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !util.VerifyPassword(password, student.PasswordSalt, student.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	if student.MustChangePassword {
		temp, expiresAt, err := s.jwt.GeneratePasswordChange(student.ID, string(domain.PrincipalStudent))
		if err != nil {
			return nil, err
		}
		return &LoginResult{MustChangePassword: true, TempToken: temp, ExpiresAt: expiresAt, Student: student}, nil
	}

	token, expiresAt, err := s.jwt.Generate(student.ID, string(domain.PrincipalStudent))
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, ExpiresAt: expiresAt, Student: student}, nil
}

func (s *AuthService) LoginInstructor(ctx context.Context, email, password string) (*LoginResult, error) {
	normalized := domain.NormalizeEmail(email)
	if normalized == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	instructor, err := s.instructors.FindByEmail(ctx, normalized)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if len(instructor.PasswordHash) == 0 || !util.VerifyPassword(password, instructor.PasswordSalt, instructor.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return s.instructorSession(instructor)
}

// LoginInstructorWithGoogle accepts a Google ID token for an instructor that
// already exists. Accounts are never created from Google sign-in.
func (s *AuthService) LoginInstructorWithGoogle(ctx context.Context, idToken string) (*LoginResult, error) {
	if strings.TrimSpace(idToken) == "" || s.googleAudience == "" {
		return nil, ErrInvalidCredentials
	}
	payload, err := s.validateGoogle(ctx, idToken, s.googleAudience)
	if err != nil {
		return nil, fmt.Errorf("%w: google token rejected", ErrInvalidCredentials)
	}
	email, _ := payload.Claims["email"].(string)
	if verified, ok := payload.Claims["email_verified"].(bool); ok && !verified {
		return nil, ErrInvalidCredentials
	}
	email = domain.NormalizeEmail(email)
	if email == "" {
		return nil, ErrInvalidCredentials
	}
	instructor, err := s.instructors.FindByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	return s.instructorSession(instructor)
}

func (s *AuthService) instructorSession(instructor *domain.Instructor) (*LoginResult, error) {
	token, expiresAt, err := s.jwt.Generate(instructor.ID, string(domain.PrincipalInstructor))
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, ExpiresAt: expiresAt, Instructor: instructor}, nil
}

// Authenticate resolves an access token into a principal. Password-change
// tokens and logged-out tokens are rejected.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.Principal, error) {
	claims, err := s.jwt.Parse(token)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if claims.Purpose != util.TokenPurposeAccess || claims.ID == "" {
		return nil, ErrInvalidToken
	}
	revoked, err := s.denylist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrInvalidToken
	}

	principal := &domain.Principal{Kind: domain.PrincipalKind(claims.Kind), ID: claims.UserID, TokenID: claims.ID}
	switch principal.Kind {
	case domain.PrincipalStudent:
		student, err := s.students.FindByID(ctx, claims.UserID)
		if err != nil {
			if isNotFound(err) {
				return nil, ErrInvalidToken
			}
			return nil, err
		}
		principal.Student = student
	case domain.PrincipalInstructor:
		instructor, err := s.instructors.FindByID(ctx, claims.UserID)
		if err != nil {
			if isNotFound(err) {
				return nil, ErrInvalidToken
			}
			return nil, err
		}
		principal.Instructor = instructor
	default:
		return nil, ErrInvalidToken
	}
	return principal, nil
}

// Logout adds the token's jti to the denylist until the token would have
// expired anyway, then drops entries that are past that point.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	claims, err := s.jwt.Parse(token)
	if err != nil {
		return ErrInvalidToken
	}
	if claims.ID == "" {
		return ErrInvalidToken
	}
	now := s.now()
	expiresAt := now
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	if err := s.denylist.Revoke(ctx, domain.RevokedToken{
		JTI:       claims.ID,
		SubjectID: claims.UserID,
		ExpiresAt: expiresAt,
		RevokedAt: now,
	}); err != nil {
		return err
	}
	if purged, err := s.denylist.PurgeExpired(ctx, now); err != nil {
		log.Printf("auth: purge revoked tokens: %v", err)
	} else if purged > 0 {
		log.Printf("auth: purged %d expired revoked tokens", purged)
	}
	return nil
}

func (s *AuthService) ChangePassword(ctx context.Context, principal *domain.Principal, currentPassword, newPassword string) error {
	if err := util.ValidatePassword(newPassword); err != nil {
		return ErrPasswordTooWeak
	}
	hash, salt, err := util.DerivePassword(newPassword)
	if err != nil {
		return err
	}

	switch {
	case principal.IsStudent():
		student, err := s.students.FindByID(ctx, principal.ID)
		if err != nil {
			if isNotFound(err) {
				return ErrInvalidCredentials
			}
			return err
		}
		if !util.VerifyPassword(currentPassword, student.PasswordSalt, student.PasswordHash) {
			return ErrPasswordMismatch
		}
		return s.students.UpdatePassword(ctx, student.ID, hash, salt, false)
	case principal.IsInstructor():
		instructor, err := s.instructors.FindByID(ctx, principal.ID)
		if err != nil {
			if isNotFound(err) {
				return ErrInvalidCredentials
			}
			return err
		}
		// Google-only instructors may set a first password without one.
		if len(instructor.PasswordHash) > 0 && !util.VerifyPassword(currentPassword, instructor.PasswordSalt, instructor.PasswordHash) {
			return ErrPasswordMismatch
		}
		return s.instructors.UpdatePassword(ctx, instructor.ID, hash, salt)
	}
	return ErrForbidden
}

func (s *AuthService) RegisterInstructor(ctx context.Context, principal *domain.Principal, input RegisterInstructorInput) (*domain.Instructor, error) {
	if !principal.IsAdmin() {
		return nil, ErrForbidden
	}
	email := domain.NormalizeEmail(input.Email)
	fullName := strings.TrimSpace(input.FullName)
	fields := map[string]string{}
	if email == "" {
		fields["email"] = "email is required"
	}
	if fullName == "" {
		fields["fullName"] = "full name is required"
	}
	batches := make([]string, 0, len(input.Batches))
	for _, b := range input.Batches {
		if trimmed := strings.TrimSpace(b); trimmed != "" {
			batches = append(batches, trimmed)
		}
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	instructor := &domain.Instructor{
		Email:    email,
		FullName: fullName,
		Batches:  batches,
		IsAdmin:  input.IsAdmin,
	}
	if input.Password != "" {
		if err := util.ValidatePassword(input.Password); err != nil {
			return nil, ErrPasswordTooWeak
		}
		hash, salt, err := util.DerivePassword(input.Password)
		if err != nil {
			return nil, err
		}
		instructor.PasswordHash = hash
		instructor.PasswordSalt = salt
	}

	created, err := s.instructors.Create(ctx, instructor)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailAlreadyUsed
		}
		return nil, err
	}
	return created, nil
}
