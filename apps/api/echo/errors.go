package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/cantine/core"
	"github.com/trezcool/cantine/core/meal"
	"github.com/trezcool/cantine/core/selection"
	"github.com/trezcool/cantine/core/student"
)

var (
	errUnauthorized  = echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	errHttpForbidden = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errHttpNotFound  = echo.NewHTTPError(http.StatusNotFound, "not found")
)

// Envelope wraps every response body.
type Envelope struct {
	Code    int         `json:"code"`
	Data    interface{} `json:"data"`
	Message string      `json:"message"`
}

func respond(ctx echo.Context, code int, data interface{}) error {
	return ctx.JSON(code, Envelope{Code: code, Data: data})
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var (
			code    int
			message string
			data    interface{}
		)

		var (
			httpErr     *echo.HTTPError
			valErrs     validator.ValidationErrors
			valErr      *core.ValidationError
			precondErr  *selection.PreconditionError
			assignErr   *selection.AssignmentError
			remoteErr   *selection.RemoteCallError
			notFoundErr = errors.Is(err, meal.ErrNotFound) || errors.Is(err, student.ErrNotFound)
		)

		switch {
		case errors.As(err, &httpErr):
			if httpErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
			} else {
				if herr, ok := httpErr.Internal.(*echo.HTTPError); ok {
					httpErr = herr
				}
				code = httpErr.Code
			}
			if m, ok := httpErr.Message.(string); ok {
				message = m
			} else {
				message = http.StatusText(code)
				data = httpErr.Message
			}
		case errors.As(err, &valErrs):
			code = http.StatusBadRequest
			message = "validation failed"
			data = core.TranslateErrors(valErrs, translator)
		case errors.As(err, &valErr):
			code = http.StatusBadRequest
			message = valErr.Error()
			if len(valErr.Fields) > 0 {
				fldErrs := make(map[string]string, len(valErr.Fields))
				for _, fErr := range valErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				data = fldErrs
			}
		case errors.As(err, &precondErr):
			code = http.StatusBadRequest
			message = precondErr.Error()
			data = map[string]string{precondErr.Field: precondErr.Reason}
		case errors.Is(err, selection.ErrNotSelectable):
			code = http.StatusForbidden
			message = selection.ErrNotSelectable.Error()
		case errors.Is(err, student.ErrExists):
			code = http.StatusConflict
			message = student.ErrExists.Error()
		case errors.As(err, &assignErr) && assignErr.Partial:
			code = http.StatusBadGateway
			message = assignErr.Error()
			data = echo.Map{"committed": assignErr.Committed}
			logger.Error(message, err)
		case notFoundErr:
			code = http.StatusNotFound
			message = errors.Cause(err).Error()
		case assignErr != nil:
			code = http.StatusBadGateway
			message = assignErr.Error()
			logger.Error(message, err)
		case errors.As(err, &remoteErr):
			code = http.StatusBadGateway
			message = remoteErr.Error()
			logger.Error(message, err)
		default: // any other error is a server error
			code = http.StatusInternalServerError
			message = http.StatusText(code)

			extras := map[string]interface{}{"path": ctx.Path(), "method": ctx.Request().Method}
			if s, ok := ctx.Get(contextStudentKey).(student.Student); ok {
				logger.Error(message, errors.Wrap(err, message), extras, s)
			} else {
				logger.Error(message, errors.Wrap(err, message), extras)
			}
		}

		// shutting down...
		if core.IsShutdown(err) {
			signalShutdown()
		}

		if ctx.Echo().Debug && code >= http.StatusInternalServerError {
			message = err.Error()
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, Envelope{Code: code, Data: data, Message: message})
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
