package v2controllers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/unionhall/ledgerhub/db/models"
	"github.com/unionhall/ledgerhub/lib/money"
	"github.com/unionhall/ledgerhub/lib/responses"
	"github.com/unionhall/ledgerhub/lib/service"
	"github.com/uptrace/bun"
)

// PaymentController : payment writes. Every write reallocates the payment's ledger entry.
type PaymentController struct {
	svc *service.LedgerService
}

func NewPaymentController(svc *service.LedgerService) *PaymentController {
	return &PaymentController{svc: svc}
}

type PaymentRequestBody struct {
	LedgerEaID    string                 `json:"ledgerEaId" validate:"required"`
	PaymentTypeID string                 `json:"paymentTypeId" validate:"required"`
	Amount        money.Cents            `json:"amount" validate:"gt=0"`
	Status        string                 `json:"status" validate:"required,oneof=cleared pending void"`
	DateCleared   *time.Time             `json:"dateCleared"`
	Memo          string                 `json:"memo" validate:"max=1024"`
	Data          map[string]interface{} `json:"data"`
}

func (body *PaymentRequestBody) toModel() *models.LedgerPayment {
	payment := &models.LedgerPayment{
		LedgerEaID:    body.LedgerEaID,
		PaymentTypeID: body.PaymentTypeID,
		Amount:        body.Amount,
		Status:        body.Status,
		Memo:          body.Memo,
		Data:          body.Data,
	}
	if body.DateCleared != nil {
		payment.DateCleared = bun.NullTime{Time: body.DateCleared.UTC()}
	}
	return payment
}

// CreatePayment godoc
// @Summary      Record a payment
// @Description  Creates the payment and, when cleared, its negative ledger entry
// @Accept       json
// @Produce      json
// @Tags         Payment
// @Param        payment  body      PaymentRequestBody  true  "Payment"
// @Success      201  {object}  models.LedgerPayment
// @Failure      400  {object}  responses.ErrorResponse
// @Failure      500  {object}  responses.ErrorResponse
// @Router       /v2/payments [post]
func (controller *PaymentController) CreatePayment(c echo.Context) error {
	var body PaymentRequestBody
	if err := bindAndValidate(c, &body); err != nil {
		return err
	}
	payment, err := controller.svc.CreatePayment(c.Request().Context(), body.toModel())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, payment)
}

func (controller *PaymentController) UpdatePayment(c echo.Context) error {
	var body PaymentRequestBody
	if err := bindAndValidate(c, &body); err != nil {
		return err
	}
	payment := body.toModel()
	payment.ID = c.Param("id")
	updated, err := controller.svc.UpdatePayment(c.Request().Context(), payment)
	if err != nil {
		return err
	}
	if updated == nil {
		return responses.NotFoundError.Send(c)
	}
	return c.JSON(http.StatusOK, updated)
}

func (controller *PaymentController) GetPayment(c echo.Context) error {
	payment, err := controller.svc.GetPayment(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	if payment == nil {
		return responses.NotFoundError.Send(c)
	}
	return c.JSON(http.StatusOK, payment)
}

func (controller *PaymentController) DeletePayment(c echo.Context) error {
	deleted, err := controller.svc.DeletePayment(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	if !deleted {
		return responses.NotFoundError.Send(c)
	}
	return c.NoContent(http.StatusNoContent)
}

func (controller *PaymentController) ListPaymentTypes(c echo.Context) error {
	types, err := controller.svc.ListPaymentTypes(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, types)
}
