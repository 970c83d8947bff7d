package server

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const healthTimeout = 2 * time.Second

func (s *Server) MapHandlers(e *echo.Echo) {
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	e.GET("/health", s.health)
}

func (s *Server) health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), healthTimeout)
	defer cancel()

	status := http.StatusOK
	body := map[string]string{"status": "OK"}
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			s.logger.Warnf("health check %s failed: %v", name, err)
			status = http.StatusServiceUnavailable
			body["status"] = "DEGRADED"
			body[name] = err.Error()
			continue
		}
		body[name] = "OK"
	}
	return c.JSON(status, body)
}
