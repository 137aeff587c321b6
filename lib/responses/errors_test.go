package responses

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/unionhall/ledgerhub/lib/service"
)

func TestBadAuthErrorsNotAllowedForSentry(t *testing.T) {
	badAuthErrResponse := echo.NewHTTPError(http.StatusBadRequest, echo.Map{
		"error":   true,
		"code":    1,
		"message": "bad auth",
	})

	isAllowed := isErrAllowedForSentry(badAuthErrResponse)
	assert.False(t, isAllowed)
}

func TestErrorResponsesAllowedForSentryOnlyWhenServerSide(t *testing.T) {
	assert.False(t, isErrAllowedForSentry(BadArgumentsError.HTTPError()))
	assert.False(t, isErrAllowedForSentry(NotFoundError.HTTPError()))
	assert.True(t, isErrAllowedForSentry(GeneralServerError.HTTPError()))
}

func TestValidationErrorsNotAllowedForSentry(t *testing.T) {
	err := fmt.Errorf("create payment: %w", &service.ValidationError{Field: "amount", Message: "must be positive"})
	assert.False(t, isErrAllowedForSentry(err))
}

func TestNonErrorResponseErrorsAllowedForSentry(t *testing.T) {
	assert.True(t, isErrAllowedForSentry(errors.New("random error")))
	assert.True(t, isErrAllowedForSentry(fmt.Errorf("%w: link vanished", service.ErrInvariantViolation)))
}

func TestFromError(t *testing.T) {
	mismatch := &service.ValidationError{Field: "paymentTypeId", Message: "CAD vs USD", Err: service.ErrCurrencyMismatch}
	resp := FromError(fmt.Errorf("wrapped: %w", mismatch))
	assert.Equal(t, http.StatusBadRequest, resp.HttpStatusCode)
	assert.Equal(t, CurrencyMismatchError.Message, resp.Message)
	assert.Equal(t, "paymentTypeId", resp.Field)

	resp = FromError(&service.ValidationError{Field: "amount", Message: "must be positive"})
	assert.Equal(t, http.StatusBadRequest, resp.HttpStatusCode)
	assert.Equal(t, "validation failed on amount: must be positive", resp.Message)

	assert.Equal(t, GeneralServerError, FromError(errors.New("db down")))
}

func TestHTTPErrorHandlerWritesBody(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	HTTPErrorHandler(&service.ValidationError{Field: "eaId", Message: "is required"}, c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"field":"eaId"`)
}
