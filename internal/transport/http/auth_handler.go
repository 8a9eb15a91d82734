package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/njprem/CodeCamp_LMS_BackEnd/internal/service"
	"github.com/njprem/CodeCamp_LMS_BackEnd/internal/util"
)

type AuthHandler struct {
	auth *service.AuthService
}

func RegisterAuth(e *echo.Echo, auth *service.AuthService) {
	h := &AuthHandler{auth: auth}

	group := e.Group("/auth")
	group.POST("/student/login", h.loginStudent)
	group.POST("/instructor/login", h.loginInstructor)
	group.POST("/instructor/google", h.loginGoogle)

	secured := group.Group("", RequireAuth(auth))
	secured.POST("/logout", h.logout)
	secured.GET("/me", h.me)
	secured.POST("/change-password", h.changePassword)
	secured.POST("/instructors", h.registerInstructor, RequireAdmin())
}

func (h *AuthHandler) loginStudent(c echo.Context) error {
	var req studentLoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	result, err := h.auth.LoginStudent(c.Request().Context(), req.EnrollmentNumber, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, buildLoginResponse(result))
}

func (h *AuthHandler) loginInstructor(c echo.Context) error {
	var req instructorLoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	result, err := h.auth.LoginInstructor(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, buildLoginResponse(result))
}

func (h *AuthHandler) loginGoogle(c echo.Context) error {
	var req googleLoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	result, err := h.auth.LoginInstructorWithGoogle(c.Request().Context(), req.IDToken)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, buildLoginResponse(result))
}

func (h *AuthHandler) logout(c echo.Context) error {
	if err := h.auth.Logout(c.Request().Context(), currentToken(c)); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, util.Message("Logged out"))
}

func (h *AuthHandler) me(c echo.Context) error {
	principal, ok := CurrentPrincipal(c)
	if !ok {
		return errAuthRequired
	}
	return c.JSON(http.StatusOK, principalResponse{
		Kind:       principal.Kind,
		ID:         principal.ID,
		Student:    principal.Student,
		Instructor: principal.Instructor,
	})
}

func (h *AuthHandler) changePassword(c echo.Context) error {
	principal, ok := CurrentPrincipal(c)
	if !ok {
		return errAuthRequired
	}
	var req changePasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.auth.ChangePassword(c.Request().Context(), principal, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, util.Message("Password changed"))
}

func (h *AuthHandler) registerInstructor(c echo.Context) error {
	principal, ok := CurrentPrincipal(c)
	if !ok {
		return errAuthRequired
	}
	var req registerInstructorRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	instructor, err := h.auth.RegisterInstructor(c.Request().Context(), principal, service.RegisterInstructorInput{
		Email:    req.Email,
		FullName: req.FullName,
		Password: req.Password,
		Batches:  req.Batches,
		IsAdmin:  req.IsAdmin,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, util.Message("Instructor registered").With("instructor", instructor))
}
