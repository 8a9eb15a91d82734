package http

import (
	"time"

	"github.com/google/uuid"

	"github.com/njprem/CodeCamp_LMS_BackEnd/internal/domain"
	"github.com/njprem/CodeCamp_LMS_BackEnd/internal/service"
	"github.com/njprem/CodeCamp_LMS_BackEnd/internal/util"
)

type studentLoginRequest struct {
	EnrollmentNumber string `json:"enrollmentNumber" validate:"notblank"`
	Password         string `json:"password" validate:"required"`
}

type instructorLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type googleLoginRequest struct {
	IDToken string `json:"idToken" validate:"notblank"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required"`
}

type registerInstructorRequest struct {
	Email    string   `json:"email" validate:"required,email"`
	FullName string   `json:"fullName" validate:"notblank"`
	Password string   `json:"password" validate:"required"`
	Batches  []string `json:"batches" validate:"dive,notblank"`
	IsAdmin  bool     `json:"isAdmin"`
}

type requestChangeOTPRequest struct {
	EnrollmentNumber string `json:"enrollmentNumber" validate:"notblank"`
	TempToken        string `json:"tempToken" validate:"notblank"`
}

type verifyChangeOTPRequest struct {
	EnrollmentNumber string `json:"enrollmentNumber" validate:"notblank"`
	OTP              string `json:"otp" validate:"required"`
	NewPassword      string `json:"newPassword" validate:"required"`
	TempToken        string `json:"tempToken" validate:"notblank"`
}

type forgotPasswordRequest struct {
	EnrollmentNumber string `json:"enrollmentNumber" validate:"notblank"`
	Email            string `json:"email" validate:"required,email"`
}

type resetPasswordRequest struct {
	EnrollmentNumber string `json:"enrollmentNumber" validate:"notblank"`
	Email            string `json:"email" validate:"required,email"`
	OTP              string `json:"otp" validate:"required"`
	NewPassword      string `json:"newPassword" validate:"required"`
}

type principalResponse struct {
	Kind       domain.PrincipalKind `json:"kind"`
	ID         uuid.UUID            `json:"id"`
	Student    *domain.Student      `json:"student,omitempty"`
	Instructor *domain.Instructor   `json:"instructor,omitempty"`
}

func buildLoginResponse(result *service.LoginResult) util.Envelope {
	var resp util.Envelope
	if result.MustChangePassword {
		resp = util.Message("Password change required").
			With("mustChangePassword", true).
			With("tempToken", result.TempToken)
	} else {
		resp = util.Message("Login successful").With("token", result.Token)
	}
	resp = resp.With("expiresAt", result.ExpiresAt.UTC().Format(time.RFC3339))
	if result.Student != nil {
		resp = resp.With("student", result.Student)
	}
	if result.Instructor != nil {
		resp = resp.With("instructor", result.Instructor)
	}
	return resp
}
