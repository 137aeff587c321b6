package v2controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/unionhall/ledgerhub/lib/money"
	"github.com/unionhall/ledgerhub/lib/responses"
	"github.com/unionhall/ledgerhub/lib/service"
)

// EntityAccountController : per entity account views (transactions, invoices, balance)
type EntityAccountController struct {
	svc *service.LedgerService
}

func NewEntityAccountController(svc *service.LedgerService) *EntityAccountController {
	return &EntityAccountController{svc: svc}
}

type EntityAccountRequestBody struct {
	AccountID  string `json:"accountId" validate:"required"`
	EntityType string `json:"entityType" validate:"required,oneof=employer worker trustProvider"`
	EntityID   string `json:"entityId" validate:"required"`
}

type BalanceResponse struct {
	EaID     string      `json:"eaId"`
	Balance  money.Cents `json:"balance"`
	Currency string      `json:"currency"`
}

// LinkEntity returns the entity account for the triple, creating it when missing.
func (controller *EntityAccountController) LinkEntity(c echo.Context) error {
	var body EntityAccountRequestBody
	if err := bindAndValidate(c, &body); err != nil {
		return err
	}
	ea, err := controller.svc.GetOrCreateEntityAccount(c.Request().Context(), body.EntityType, body.EntityID, body.AccountID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ea)
}

func (controller *EntityAccountController) GetEntityAccount(c echo.Context) error {
	ea, err := controller.svc.GetEntityAccount(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	if ea == nil {
		return responses.NotFoundError.Send(c)
	}
	return c.JSON(http.StatusOK, ea)
}

func (controller *EntityAccountController) Transactions(c echo.Context) error {
	entries, err := controller.svc.GetTransactions(c.Request().Context(), service.TransactionFilter{EaID: c.Param("id")})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, entries)
}

// Invoices godoc
// @Summary      Monthly invoices
// @Description  Monthly buckets with running balances, most recent first
// @Produce      json
// @Tags         Invoice
// @Param        id  path  string  true  "Entity account id"
// @Success      200  {object}  []service.InvoiceSummary
// @Failure      500  {object}  responses.ErrorResponse
// @Router       /v2/eas/{id}/invoices [get]
func (controller *EntityAccountController) Invoices(c echo.Context) error {
	invoices, err := controller.svc.ListInvoicesForEa(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, invoices)
}

func (controller *EntityAccountController) InvoiceDetails(c echo.Context) error {
	year, err := intPathParam(c, "year")
	if err != nil {
		return err
	}
	month, err := intPathParam(c, "month")
	if err != nil {
		return err
	}
	if month < 1 || month > 12 {
		return badParam("month")
	}
	details, err := controller.svc.GetInvoiceDetails(c.Request().Context(), c.Param("id"), month, year)
	if err != nil {
		return err
	}
	if details == nil {
		return responses.NotFoundError.Send(c)
	}
	return c.JSON(http.StatusOK, details)
}

func (controller *EntityAccountController) Balance(c echo.Context) error {
	ctx := c.Request().Context()
	ea, err := controller.svc.GetEntityAccount(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	if ea == nil {
		return responses.NotFoundError.Send(c)
	}
	balance, err := controller.svc.GetBalance(ctx, ea.ID)
	if err != nil {
		c.Logger().Errorf("Error fetching balance for ea_id:%v error: %v", ea.ID, err)
		return err
	}
	resp := &BalanceResponse{EaID: ea.ID, Balance: balance}
	if ea.Account != nil {
		resp.Currency = ea.Account.CurrencyCode
	}
	return c.JSON(http.StatusOK, resp)
}

func (controller *EntityAccountController) Payments(c echo.Context) error {
	payments, err := controller.svc.ListPaymentsForEa(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, payments)
}
