package v2controllers

import (
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/unionhall/ledgerhub/lib/responses"
)

// intQueryParam reads an optional integer query parameter.
func intQueryParam(c echo.Context, name string, fallback int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, badParam(name)
	}
	return value, nil
}

func intPathParam(c echo.Context, name string) (int, error) {
	value, err := strconv.Atoi(c.Param(name))
	if err != nil {
		return 0, badParam(name)
	}
	return value, nil
}

func badParam(name string) error {
	resp := responses.BadArgumentsError
	resp.Field = name
	resp.Message = "invalid " + name
	return resp.HTTPError()
}

func bindAndValidate(c echo.Context, body interface{}) error {
	if err := c.Bind(body); err != nil {
		c.Logger().Errorf("Failed to load request body: %v", err)
		return responses.BadArgumentsError.HTTPError()
	}
	if err := c.Validate(body); err != nil {
		c.Logger().Errorf("Invalid request body: %v", err)
		return responses.FromError(err).HTTPError()
	}
	return nil
}
