package v2controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/unionhall/ledgerhub/db/models"
	"github.com/unionhall/ledgerhub/lib/responses"
	"github.com/unionhall/ledgerhub/lib/service"
)

// AccountController : ledger account and roster endpoints
type AccountController struct {
	svc *service.LedgerService
}

func NewAccountController(svc *service.LedgerService) *AccountController {
	return &AccountController{svc: svc}
}

type AccountRequestBody struct {
	Name         string                 `json:"name" validate:"required,max=255"`
	CurrencyCode string                 `json:"currencyCode" validate:"required,len=3,alpha"`
	Data         map[string]interface{} `json:"data"`
}

func (body *AccountRequestBody) toModel() *models.LedgerAccount {
	return &models.LedgerAccount{
		Name:         body.Name,
		CurrencyCode: body.CurrencyCode,
		Data:         body.Data,
	}
}

// ListAccounts godoc
// @Summary      List ledger accounts
// @Produce      json
// @Tags         Account
// @Success      200  {object}  []models.LedgerAccount
// @Failure      500  {object}  responses.ErrorResponse
// @Router       /v2/accounts [get]
func (controller *AccountController) ListAccounts(c echo.Context) error {
	accounts, err := controller.svc.ListAccounts(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, accounts)
}

func (controller *AccountController) GetAccount(c echo.Context) error {
	account, err := controller.svc.GetAccount(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	if account == nil {
		return responses.NotFoundError.Send(c)
	}
	return c.JSON(http.StatusOK, account)
}

// CreateAccount godoc
// @Summary      Create a ledger account
// @Accept       json
// @Produce      json
// @Tags         Account
// @Param        account  body      AccountRequestBody  true  "Account"
// @Success      201  {object}  models.LedgerAccount
// @Failure      400  {object}  responses.ErrorResponse
// @Failure      500  {object}  responses.ErrorResponse
// @Router       /v2/accounts [post]
func (controller *AccountController) CreateAccount(c echo.Context) error {
	var body AccountRequestBody
	if err := bindAndValidate(c, &body); err != nil {
		return err
	}
	account, err := controller.svc.CreateAccount(c.Request().Context(), body.toModel())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, account)
}

func (controller *AccountController) UpdateAccount(c echo.Context) error {
	var body AccountRequestBody
	if err := bindAndValidate(c, &body); err != nil {
		return err
	}
	account := body.toModel()
	account.ID = c.Param("id")
	updated, err := controller.svc.UpdateAccount(c.Request().Context(), account)
	if err != nil {
		return err
	}
	if updated == nil {
		return responses.NotFoundError.Send(c)
	}
	return c.JSON(http.StatusOK, updated)
}

func (controller *AccountController) DeleteAccount(c echo.Context) error {
	deleted, err := controller.svc.DeleteAccount(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	if !deleted {
		return responses.NotFoundError.Send(c)
	}
	return c.NoContent(http.StatusNoContent)
}

// Participants godoc
// @Summary      Account roster
// @Description  Entity accounts of a ledger account with balance, entry count and first/last entry date, sorted by entity name
// @Produce      json
// @Tags         Account
// @Param        id      path   string  true   "Account id"
// @Param        limit   query  int     false  "Page size"
// @Param        offset  query  int     false  "Rows to skip"
// @Success      200  {object}  service.ParticipantPage
// @Failure      400  {object}  responses.ErrorResponse
// @Failure      500  {object}  responses.ErrorResponse
// @Router       /v2/accounts/{id}/participants [get]
func (controller *AccountController) Participants(c echo.Context) error {
	limit, err := intQueryParam(c, "limit", 0)
	if err != nil {
		return err
	}
	offset, err := intQueryParam(c, "offset", 0)
	if err != nil {
		return err
	}
	page, err := controller.svc.GetParticipants(c.Request().Context(), c.Param("id"), limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

func (controller *AccountController) Transactions(c echo.Context) error {
	entries, err := controller.svc.GetTransactions(c.Request().Context(), service.TransactionFilter{AccountID: c.Param("id")})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, entries)
}
