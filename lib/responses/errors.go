package responses

import (
	"errors"

	"github.com/getsentry/sentry-go"
	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/unionhall/ledgerhub/lib/service"
)

type ErrorResponse struct {
	Error          bool   `json:"error"`
	Code           int    `json:"code"`
	Message        string `json:"message"`
	Field          string `json:"field,omitempty"`
	HttpStatusCode int    `json:"-"`
}

var GeneralServerError = ErrorResponse{
	Error:          true,
	Code:           6,
	Message:        "Something went wrong. Please try again later",
	HttpStatusCode: 500,
}

var BadArgumentsError = ErrorResponse{
	Error:          true,
	Code:           8,
	Message:        "Bad arguments",
	HttpStatusCode: 400,
}

var NotFoundError = ErrorResponse{
	Error:          true,
	Code:           4,
	Message:        "Not found",
	HttpStatusCode: 404,
}

var CurrencyMismatchError = ErrorResponse{
	Error:          true,
	Code:           2,
	Message:        "payment type currency does not match account currency",
	HttpStatusCode: 400,
}

func (e ErrorResponse) Send(c echo.Context) error {
	return c.JSON(e.HttpStatusCode, e)
}

// HTTPError wraps the response so a handler can return it as an error.
func (e ErrorResponse) HTTPError() *echo.HTTPError {
	return echo.NewHTTPError(e.HttpStatusCode, e)
}

// ValidationFailed renders a service validation error as a 400 body.
func ValidationFailed(err *service.ValidationError) ErrorResponse {
	if errors.Is(err, service.ErrCurrencyMismatch) {
		resp := CurrencyMismatchError
		resp.Field = err.Field
		return resp
	}
	resp := BadArgumentsError
	resp.Message = err.Error()
	resp.Field = err.Field
	return resp
}

// FromError picks the response for an error returned by the service layer.
func FromError(err error) ErrorResponse {
	var validationErr *service.ValidationError
	var fieldErrs validator.ValidationErrors
	switch {
	case errors.As(err, &validationErr):
		return ValidationFailed(validationErr)
	case errors.As(err, &fieldErrs):
		resp := BadArgumentsError
		resp.Message = err.Error()
		return resp
	}
	return GeneralServerError
}

// isErrAllowedForSentry drops client errors, which are not actionable.
func isErrAllowedForSentry(err error) bool {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		switch body := he.Message.(type) {
		case echo.Map:
			if body["code"] == 1 {
				return false
			}
		case ErrorResponse:
			return body.HttpStatusCode >= 500
		}
		return true
	}
	if errors.Is(err, service.ErrInvariantViolation) {
		return true
	}
	return FromError(err).HttpStatusCode >= 500
}

func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	c.Logger().Error(err)
	if hub := sentryecho.GetHubFromContext(c); hub != nil && isErrAllowedForSentry(err) {
		hub.WithScope(func(scope *sentry.Scope) {
			scope.SetExtra("path", c.Path())
			hub.CaptureException(err)
		})
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		c.JSON(he.Code, he.Message)
		return
	}
	resp := FromError(err)
	c.JSON(resp.HttpStatusCode, resp)
}
