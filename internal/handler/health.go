package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Check pings one dependency.
type Check func(ctx context.Context) error

// HealthHandler reports process liveness and the state of optional
// dependencies. A failing dependency degrades the status but still answers
// 200, since the storefront keeps serving without cache or broker.
type HealthHandler struct {
	checks map[string]Check
}

func NewHealthHandler(checks map[string]Check) *HealthHandler {
	return &HealthHandler{checks: checks}
}

// Health handles GET /healthz.
func (h *HealthHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	status := "ok"
	deps := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			deps[name] = err.Error()
			status = "degraded"
			continue
		}
		deps[name] = "ok"
	}
	return c.JSON(http.StatusOK, echo.Map{"status": status, "dependencies": deps})
}
