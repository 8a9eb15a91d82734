package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/njprem/CodeCamp_LMS_BackEnd/internal/logging"
)

// NewRouter builds the echo instance with logging, validation, error
// rendering and CORS. Route groups are registered separately.
func NewRouter(allowOrigins []string, reporter logging.ErrorReporter) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Logger.SetLevel(log.INFO)

	validate := newRequestValidator()
	e.Validator = validate
	e.HTTPErrorHandler = newHTTPErrorHandler(validate, reporter)

	allowCredentials := true
	for _, origin := range allowOrigins {
		if origin == "*" {
			allowCredentials = false
			break
		}
	}

	registerLogging(e)

	e.Use(middleware.Recover())
	e.Use(middleware.Secure())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: allowOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{
			echo.HeaderAuthorization,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderOrigin,
			echo.HeaderXRequestedWith,
		},
		ExposeHeaders:    []string{"Retry-After"},
		AllowCredentials: allowCredentials,
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"ok": true})
	})
	return e
}
