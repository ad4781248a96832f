package api

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"eurotrends/internal/metrics"
	"eurotrends/internal/pkg/logger"
)

// requestLogger puts the request id on the request context so engine and
// handler logs carry it.
func requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Response().Header().Get(echo.HeaderXRequestID)
		if id != "" {
			req := c.Request()
			c.SetRequest(req.WithContext(logger.With(req.Context(), "request_id", id)))
		}
		return next(c)
	}
}

// observe records request count and latency per route template.
func observe(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		if err := next(c); err != nil {
			c.Error(err)
		}
		route := c.Path()
		if route == "" {
			route = "unmatched"
		}
		metrics.ObserveRequest(route, strconv.Itoa(c.Response().Status), time.Since(start))
		return nil
	}
}
