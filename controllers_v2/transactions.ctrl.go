package v2controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/unionhall/ledgerhub/lib/service"
)

// TransactionController : entries produced by one reference, e.g. every entry of a payment
type TransactionController struct {
	svc *service.LedgerService
}

func NewTransactionController(svc *service.LedgerService) *TransactionController {
	return &TransactionController{svc: svc}
}

// ByReference godoc
// @Summary      Entries for a reference
// @Produce      json
// @Tags         Transaction
// @Param        referenceType  query  string  true  "Reference type"
// @Param        referenceId    query  string  true  "Reference id"
// @Success      200  {object}  []service.LedgerEntryWithDetails
// @Failure      400  {object}  responses.ErrorResponse
// @Failure      500  {object}  responses.ErrorResponse
// @Router       /v2/transactions [get]
func (controller *TransactionController) ByReference(c echo.Context) error {
	filter := service.TransactionFilter{
		ReferenceType: c.QueryParam("referenceType"),
		ReferenceID:   c.QueryParam("referenceId"),
	}
	entries, err := controller.svc.GetTransactions(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, entries)
}
