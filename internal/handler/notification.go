package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/resort-storefront/internal/middleware"
	"github.com/iliyamo/resort-storefront/internal/notify"
)

// AlertSource drains queued alerts for a session.
type AlertSource interface {
	Drain(ctx context.Context, sessionID string) ([]notify.Alert, error)
}

type NotificationHandler struct {
	Source AlertSource
}

func NewNotificationHandler(src AlertSource) *NotificationHandler {
	return &NotificationHandler{Source: src}
}

// List handles GET /v1/notifications. Alerts are returned once.
func (h *NotificationHandler) List(c echo.Context) error {
	alerts := []notify.Alert{}
	if h.Source != nil {
		got, err := h.Source.Drain(c.Request().Context(), middleware.Identity(c).SessionID)
		if err != nil {
			return err
		}
		if got != nil {
			alerts = got
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"alerts": alerts})
}
