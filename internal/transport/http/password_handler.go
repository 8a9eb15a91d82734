package http

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/njprem/CodeCamp_LMS_BackEnd/internal/service"
	"github.com/njprem/CodeCamp_LMS_BackEnd/internal/util"
)

// PasswordHandler serves the student OTP flows: first-login password change
// and forgotten-password reset.
type PasswordHandler struct {
	passwords *service.PasswordService
}

func RegisterPasswords(e *echo.Echo, passwords *service.PasswordService) {
	h := &PasswordHandler{passwords: passwords}

	group := e.Group("/students")
	group.POST("/request-password-change-otp", h.requestChangeOTP)
	group.POST("/verify-otp-change-password", h.verifyChangeOTP)
	group.POST("/forgot-password", h.forgotPassword)
	group.POST("/reset-password", h.resetPassword)
}

func (h *PasswordHandler) requestChangeOTP(c echo.Context) error {
	var req requestChangeOTPRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.passwords.RequestPasswordChangeOTP(c.Request().Context(), req.EnrollmentNumber, req.TempToken); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, util.Message("OTP sent to your registered email"))
}

func (h *PasswordHandler) verifyChangeOTP(c echo.Context) error {
	var req verifyChangeOTPRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	result, err := h.passwords.VerifyOTPAndChangePassword(c.Request().Context(), req.EnrollmentNumber, req.OTP, req.NewPassword, req.TempToken)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, util.Message("Password changed successfully").
		With("token", result.Token).
		With("expiresAt", result.ExpiresAt.UTC().Format(time.RFC3339)).
		With("student", result.Student))
}

func (h *PasswordHandler) forgotPassword(c echo.Context) error {
	var req forgotPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.passwords.ForgotPassword(c.Request().Context(), req.EnrollmentNumber, req.Email); err != nil {
		return err
	}
	// same answer whether or not the pair matched an account
	return c.JSON(http.StatusOK, util.Message("If the account exists, a reset code has been sent"))
}

func (h *PasswordHandler) resetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.passwords.ResetPassword(c.Request().Context(), req.EnrollmentNumber, req.Email, req.OTP, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, util.Message("Password reset successfully"))
}
