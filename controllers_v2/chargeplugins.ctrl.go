package v2controllers

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/unionhall/ledgerhub/db/models"
	"github.com/unionhall/ledgerhub/lib/responses"
	"github.com/unionhall/ledgerhub/lib/service"
	"github.com/unionhall/ledgerhub/plugins"
)

// ChargePluginController : plugin configs and dry runs. Nothing here writes ledger entries.
type ChargePluginController struct {
	svc *service.LedgerService
}

func NewChargePluginController(svc *service.LedgerService) *ChargePluginController {
	return &ChargePluginController{svc: svc}
}

type PreviewRequestBody struct {
	Trigger string          `json:"trigger" validate:"required"`
	Payload json.RawMessage `json:"payload" validate:"required"`
}

type PreviewResponseBody struct {
	Notifications []plugins.Notification `json:"notifications"`
}

type ChargePluginConfigRequestBody struct {
	PluginID   string                 `json:"pluginId" validate:"required"`
	Name       string                 `json:"name"`
	Enabled    bool                   `json:"enabled"`
	EmployerID string                 `json:"employerId"`
	AccountID  string                 `json:"accountId" validate:"required"`
	Settings   map[string]interface{} `json:"settings"`
}

type EnabledRequestBody struct {
	Enabled bool `json:"enabled"`
}

// Preview godoc
// @Summary      Preview charge plugins
// @Description  Runs the charge plugins for a trigger without writing and returns what they would do
// @Accept       json
// @Produce      json
// @Tags         ChargePlugin
// @Param        preview  body      PreviewRequestBody  true  "Trigger"
// @Success      200  {object}  PreviewResponseBody
// @Failure      400  {object}  responses.ErrorResponse
// @Router       /v2/charge-plugins/preview [post]
func (controller *ChargePluginController) Preview(c echo.Context) error {
	var body PreviewRequestBody
	if err := bindAndValidate(c, &body); err != nil {
		return err
	}
	trigger, err := service.NewTrigger(body.Trigger, body.Payload)
	if err != nil {
		return err
	}
	notifications := controller.svc.PreviewChargePlugins(c.Request().Context(), trigger)
	if notifications == nil {
		notifications = []plugins.Notification{}
	}
	return c.JSON(http.StatusOK, &PreviewResponseBody{Notifications: notifications})
}

func (controller *ChargePluginController) ListConfigs(c echo.Context) error {
	configs, err := controller.svc.ListChargePluginConfigs(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, configs)
}

func (controller *ChargePluginController) CreateConfig(c echo.Context) error {
	var body ChargePluginConfigRequestBody
	if err := bindAndValidate(c, &body); err != nil {
		return err
	}
	config, err := controller.svc.CreateChargePluginConfig(c.Request().Context(), &models.ChargePluginConfig{
		PluginID:   body.PluginID,
		Name:       body.Name,
		Enabled:    body.Enabled,
		EmployerID: body.EmployerID,
		AccountID:  body.AccountID,
		Settings:   body.Settings,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, config)
}

func (controller *ChargePluginController) SetEnabled(c echo.Context) error {
	var body EnabledRequestBody
	if err := bindAndValidate(c, &body); err != nil {
		return err
	}
	found, err := controller.svc.SetChargePluginConfigEnabled(c.Request().Context(), c.Param("id"), body.Enabled)
	if err != nil {
		return err
	}
	if !found {
		return responses.NotFoundError.Send(c)
	}
	return c.NoContent(http.StatusNoContent)
}
