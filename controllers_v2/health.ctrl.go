package v2controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

type HealthController struct {
	db *bun.DB
}

func NewHealthController(db *bun.DB) *HealthController {
	return &HealthController{db: db}
}

type HealthResponse struct {
	Result string `json:"result"`
}

// Check godoc
// @Summary      Check system health
// @Description  Pings the database
// @Produce      json
// @Tags         Health
// @Success      200  {object}  HealthResponse
// @Failure      503  {object}  HealthResponse
// @Router       /health [get]
func (controller *HealthController) Check(c echo.Context) error {
	if err := controller.db.PingContext(c.Request().Context()); err != nil {
		c.Logger().Errorf("Health check failed: %v", err)
		return c.JSON(http.StatusServiceUnavailable, &HealthResponse{Result: "DB_UNAVAILABLE"})
	}
	return c.JSON(http.StatusOK, &HealthResponse{
		Result: "OK",
	})
}
