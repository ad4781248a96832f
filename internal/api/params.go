package api

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"eurotrends/internal/models"
)

// errBadRequest marks malformed client input.
var errBadRequest = errors.New("bad request")

func getPaginationParams(c echo.Context, defaultLimit int) (int, int) {
	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || limit <= 0 {
		limit = defaultLimit
	}
	offset, err := strconv.Atoi(c.QueryParam("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}

// listParam collects a multi-valued query parameter. Values may be repeated
// (?country=a&country=b) or comma separated (?country=a,b).
func listParam(c echo.Context, name string) []string {
	var out []string
	for _, raw := range c.QueryParams()[name] {
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

func filterParams(c echo.Context) models.FilterSelection {
	return models.FilterSelection{
		Countries:  listParam(c, "country"),
		Roles:      listParam(c, "role"),
		TeamSetups: listParam(c, "team_setup"),
	}
}

// horizonParam reads ?horizon=, falling back to def when absent. Range checks
// are left to the forecaster.
func horizonParam(c echo.Context, def int) (int, error) {
	raw := c.QueryParam("horizon")
	if raw == "" {
		return def, nil
	}
	h, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: horizon %q is not an integer", errBadRequest, raw)
	}
	return h, nil
}

// singleParam reads a parameter that must hold at most one value.
func singleParam(c echo.Context, name string) (string, error) {
	values := listParam(c, name)
	switch len(values) {
	case 0:
		return "", nil
	case 1:
		return values[0], nil
	}
	return "", fmt.Errorf("%w: %s accepts a single value", errBadRequest, name)
}
