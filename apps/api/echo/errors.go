package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mugilan0610/institute-management-system/core"
	"github.com/mugilan0610/institute-management-system/core/student"
)

const internalErrorMessage = "Internal server error."

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		code, resp := classify(err, translator)

		if code == http.StatusInternalServerError {
			args := []interface{}{errors.WithStack(err)}
			if stu, ok := contextStudent(ctx); ok {
				args = append(args, stu)
			}
			logger.Error(internalErrorMessage, args...)

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead {
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, resp)
			}
			if err != nil {
				logger.Error("writing error response", err)
			}
		}
	}
}

func classify(err error, translator ut.Translator) (int, ErrorResponse) {
	var (
		httpErr     *echo.HTTPError
		valErrs     validator.ValidationErrors
		valErr      *core.ValidationError
		conflictErr *core.ConflictError
		authErr     *core.AuthError
		notFoundErr *core.NotFoundError
	)

	switch {
	case errors.As(err, &valErrs):
		flds := core.TranslateFieldErrors(valErrs, translator)
		return http.StatusBadRequest, fieldResponse(flds)
	case errors.As(err, &valErr):
		resp := fieldResponse(valErr.Fields)
		resp.Message = valErr.Error()
		return http.StatusBadRequest, resp
	case errors.As(err, &conflictErr):
		return http.StatusConflict, ErrorResponse{Message: conflictErr.Error()}
	case errors.As(err, &authErr):
		return http.StatusUnauthorized, ErrorResponse{Message: authErr.Error()}
	case errors.As(err, &notFoundErr):
		return http.StatusNotFound, ErrorResponse{Message: notFoundErr.Error()}
	case errors.As(err, &httpErr):
		if herr, ok := httpErr.Internal.(*echo.HTTPError); ok {
			httpErr = herr
		}
		if httpErr.Code >= http.StatusInternalServerError {
			return httpErr.Code, ErrorResponse{Message: internalErrorMessage}
		}
		msg, ok := httpErr.Message.(string)
		if !ok {
			msg = http.StatusText(httpErr.Code)
		}
		return httpErr.Code, ErrorResponse{Message: msg}
	default: // any other error is a server error
		return http.StatusInternalServerError, ErrorResponse{Message: internalErrorMessage}
	}
}

func fieldResponse(flds []core.FieldError) ErrorResponse {
	resp := ErrorResponse{Message: "Invalid input."}
	if len(flds) == 0 {
		return resp
	}
	resp.Message = flds[0].Error
	resp.Errors = make(map[string]string, len(flds))
	for _, fld := range flds {
		resp.Errors[fld.Field] = fld.Error
	}
	return resp
}

func contextStudent(ctx echo.Context) (student.Student, bool) {
	stu, ok := ctx.Get(contextStudentKey).(student.Student)
	return stu, ok
}
