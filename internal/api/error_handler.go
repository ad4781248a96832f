package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"eurotrends/internal/engine"
	"eurotrends/internal/ingest"
	"eurotrends/internal/pkg/logger"
)

type errorResponse struct {
	Message string            `json:"message"`
	Code    int               `json:"code"`
	Rows    []engine.RowError `json:"rows,omitempty"`
}

// statusFor walks the error chain and picks the HTTP status.
func statusFor(err error) int {
	var (
		ve *engine.ValidationError
		nd *engine.NoDataError
		mb *http.MaxBytesError
		he *echo.HTTPError
	)
	switch {
	case errors.As(err, &ve):
		return http.StatusUnprocessableEntity
	case errors.As(err, &nd):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrNotLoaded):
		return http.StatusServiceUnavailable
	case errors.As(err, &mb):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, engine.ErrInvalidHorizon),
		errors.Is(err, engine.ErrUnknownDimension),
		errors.Is(err, ingest.ErrMissingColumn),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.As(err, &he):
		return he.Code
	}
	return http.StatusInternalServerError
}

func httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := statusFor(err)
	resp := errorResponse{Message: err.Error(), Code: code}

	var ve *engine.ValidationError
	if errors.As(err, &ve) {
		resp.Rows = ve.Rows
	}
	var he *echo.HTTPError
	if errors.As(err, &he) && code == he.Code {
		resp.Message = fmt.Sprint(he.Message)
	}
	if code == http.StatusServiceUnavailable {
		resp.Message = "Data is loading, please try again in a few seconds"
	}
	if code >= http.StatusInternalServerError && code != http.StatusServiceUnavailable {
		logger.Errorf(c.Request().Context(), "%s %s: %s", c.Request().Method, c.Path(), err.Error())
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, resp)
}
