package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/njprem/CodeCamp_LMS_BackEnd/internal/domain"
	"github.com/njprem/CodeCamp_LMS_BackEnd/internal/util"
)

const (
	contextPrincipalKey = "auth.principal"
	contextTokenKey     = "auth.token"
)

// Authenticator resolves a bearer token into the calling principal.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.Principal, error)
}

func RequireAuth(auth Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if strings.TrimSpace(authHeader) == "" {
				return c.JSON(http.StatusUnauthorized, util.Error("missing authorization header"))
			}
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return c.JSON(http.StatusUnauthorized, util.Error("invalid authorization header"))
			}
			token := strings.TrimSpace(parts[1])
			principal, err := auth.Authenticate(c.Request().Context(), token)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, util.Error(rootMessage(err)))
			}
			c.Set(contextPrincipalKey, principal)
			c.Set(contextTokenKey, token)
			return next(c)
		}
	}
}

// RequireStudent must run after RequireAuth.
func RequireStudent() echo.MiddlewareFunc {
	return requirePrincipal(func(p *domain.Principal) error {
		if !p.IsStudent() {
			return errStudentOnly
		}
		return nil
	})
}

func RequireInstructor() echo.MiddlewareFunc {
	return requirePrincipal(func(p *domain.Principal) error {
		if !p.IsInstructor() {
			return errInstructorOnly
		}
		return nil
	})
}

func RequireAdmin() echo.MiddlewareFunc {
	return requirePrincipal(func(p *domain.Principal) error {
		if !p.IsAdmin() {
			return errAdminOnly
		}
		return nil
	})
}

func requirePrincipal(check func(*domain.Principal) error) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal, ok := CurrentPrincipal(c)
			if !ok {
				return errAuthRequired
			}
			if err := check(principal); err != nil {
				return err
			}
			return next(c)
		}
	}
}

func CurrentPrincipal(c echo.Context) (*domain.Principal, bool) {
	principal, ok := c.Get(contextPrincipalKey).(*domain.Principal)
	return principal, ok && principal != nil
}

func currentToken(c echo.Context) string {
	token, _ := c.Get(contextTokenKey).(string)
	return token
}

func currentStudent(c echo.Context) (*domain.Student, error) {
	principal, ok := CurrentPrincipal(c)
	if !ok {
		return nil, errAuthRequired
	}
	if !principal.IsStudent() {
		return nil, errStudentOnly
	}
	return principal.Student, nil
}

func currentInstructor(c echo.Context) (*domain.Instructor, error) {
	principal, ok := CurrentPrincipal(c)
	if !ok {
		return nil, errAuthRequired
	}
	if !principal.IsInstructor() {
		return nil, errInstructorOnly
	}
	return principal.Instructor, nil
}
