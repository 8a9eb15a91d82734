package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	pkgerrors "github.com/pkg/errors"

	"github.com/njprem/CodeCamp_LMS_BackEnd/internal/domain"
	"github.com/njprem/CodeCamp_LMS_BackEnd/internal/logging"
	"github.com/njprem/CodeCamp_LMS_BackEnd/internal/service"
	"github.com/njprem/CodeCamp_LMS_BackEnd/internal/util"
)

var (
	errAuthRequired   = echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	errStudentOnly    = echo.NewHTTPError(http.StatusForbidden, "student access required")
	errInstructorOnly = echo.NewHTTPError(http.StatusForbidden, "instructor access required")
	errAdminOnly      = echo.NewHTTPError(http.StatusForbidden, "admin privileges required")
	errInvalidIDParam = echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	errMissingFile    = echo.NewHTTPError(http.StatusBadRequest, "file is required")
	errUnreadableFile = echo.NewHTTPError(http.StatusBadRequest, "unable to read uploaded file")
)

var badRequestErrors = []error{
	domain.ErrOTPInvalid,
	service.ErrPasswordTooWeak,
	service.ErrPasswordMismatch,
	service.ErrSubmissionValidation,
	service.ErrAssignmentValidation,
	service.ErrAttendanceValidation,
	service.ErrScoreOutOfRange,
	service.ErrUploadEmpty,
	service.ErrUploadType,
	service.ErrImportEmptyFile,
	service.ErrImportInvalidHeaders,
	service.ErrImportRowLimitExceeded,
	// a second submission is a client error, not a resource conflict
	service.ErrAlreadySubmitted,
	service.ErrMaxAttemptsReached,
}

var notFoundErrors = []error{
	service.ErrClassNotFound,
	service.ErrAssignmentNotFound,
	service.ErrQuestionNotFound,
	service.ErrSubmissionNotFound,
	service.ErrImportJobNotFound,
}

var conflictErrors = []error{
	service.ErrSubmissionConflict,
	service.ErrEmailAlreadyUsed,
	service.ErrAssignmentPublished,
	service.ErrAssignmentHasSubmissions,
	service.ErrClassNotStarted,
	service.ErrClassCancelled,
	domain.ErrOTPStateChanged,
}

// newHTTPErrorHandler renders every error returned by a handler. Service
// errors map to their status codes, validator errors become a field map and
// anything else is a reported 500.
func newHTTPErrorHandler(validate *requestValidator, reporter logging.ErrorReporter) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, body := mapError(err, validate)
		setRetryAfter(c, err)
		if code == http.StatusInternalServerError && reporter != nil {
			reporter.ReportRequest(c.Request(), err)
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(code)
		} else {
			writeErr = c.JSON(code, body)
		}
		if writeErr != nil {
			c.Echo().Logger.Error(writeErr)
		}
	}
}

func mapError(err error, validate *requestValidator) (int, util.Envelope) {
	var (
		httpErr    *echo.HTTPError
		fieldErrs  validator.ValidationErrors
		validation *service.ValidationError
		locked     *domain.OTPLockedError
		otpInvalid *domain.OTPInvalidError
		closed     *service.SubmissionClosedError
	)
	cause := pkgerrors.Cause(err)

	switch {
	case errors.As(cause, &httpErr):
		if inner, ok := httpErr.Internal.(*echo.HTTPError); ok {
			httpErr = inner
		}
		msg, ok := httpErr.Message.(string)
		if !ok {
			msg = http.StatusText(httpErr.Code)
		}
		return httpErr.Code, util.Error(msg)
	case errors.As(cause, &fieldErrs):
		return http.StatusBadRequest, util.Error("validation failed").With("errors", validate.fieldErrors(fieldErrs))
	case errors.As(err, &validation):
		return http.StatusBadRequest, util.Error("validation failed").With("errors", validation.Fields)
	case errors.As(err, &locked):
		return http.StatusTooManyRequests, util.Error(locked.Error()).With("retryAfterMinutes", locked.RemainingMinutes())
	case errors.As(err, &otpInvalid):
		return http.StatusBadRequest, util.Error(domain.ErrOTPInvalid.Error()).With("remainingAttempts", otpInvalid.RemainingAttempts)
	case errors.As(err, &closed):
		return http.StatusForbidden, util.Error(closed.Reason).With("reason", closed.Reason)
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrInvalidToken):
		return http.StatusUnauthorized, util.Error(rootMessage(err))
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, util.Error(service.ErrForbidden.Error())
	case errors.Is(err, service.ErrUploadTooLarge), errors.Is(err, service.ErrImportTooLarge):
		return http.StatusRequestEntityTooLarge, util.Error(rootMessage(err))
	case errors.Is(err, service.ErrOTPDelivery):
		return http.StatusInternalServerError, util.Error(service.ErrOTPDelivery.Error())
	}

	if target := matchAny(err, notFoundErrors); target != nil {
		return http.StatusNotFound, util.Error(target.Error())
	}
	if target := matchAny(err, conflictErrors); target != nil {
		return http.StatusConflict, util.Error(target.Error())
	}
	if target := matchAny(err, badRequestErrors); target != nil {
		// validation sentinels are wrapped with the offending detail
		return http.StatusBadRequest, util.Error(err.Error())
	}
	return http.StatusInternalServerError, util.Error(http.StatusText(http.StatusInternalServerError))
}

func matchAny(err error, targets []error) error {
	for _, target := range targets {
		if errors.Is(err, target) {
			return target
		}
	}
	return nil
}

// rootMessage hides wrapped internals for auth-sensitive errors.
func rootMessage(err error) string {
	for _, target := range []error{service.ErrInvalidCredentials, service.ErrInvalidToken, service.ErrUploadTooLarge, service.ErrImportTooLarge} {
		if errors.Is(err, target) {
			return target.Error()
		}
	}
	return err.Error()
}

func setRetryAfter(c echo.Context, err error) {
	var locked *domain.OTPLockedError
	if errors.As(err, &locked) {
		c.Response().Header().Set("Retry-After", strconv.Itoa(int(locked.Remaining.Seconds()+0.5)))
	}
}
