package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/resort-storefront/internal/logger"
	"github.com/iliyamo/resort-storefront/internal/middleware"
	"github.com/iliyamo/resort-storefront/internal/model"
	"github.com/iliyamo/resort-storefront/internal/notify"
	"github.com/iliyamo/resort-storefront/internal/queue"
	"github.com/iliyamo/resort-storefront/internal/review"
)

// ReviewHandler verifies review links and submits reviews.
type ReviewHandler struct {
	Service  review.Service
	Events   queue.Publisher
	Notifier notify.Notifier
	Log      logger.Logger
}

func NewReviewHandler(svc review.Service, events queue.Publisher, notifier notify.Notifier, log logger.Logger) *ReviewHandler {
	if log == nil {
		log = logger.Nop{}
	}
	if events == nil {
		events = queue.NopPublisher{}
	}
	return &ReviewHandler{Service: svc, Events: events, Notifier: notifier, Log: log}
}

// Verify handles GET /v1/reviews/verify?token=. A link the backend refuses
// (typically an already reviewed booking) answers 409 with the backend
// message; other failures answer 502.
func (h *ReviewHandler) Verify(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": review.ErrMissingToken.Error()})
	}
	store := review.NewStore(h.Service, h.Log)
	store.Verify(c.Request().Context(), token)

	st := store.State()
	switch {
	case st.Verification != nil:
		return c.JSON(http.StatusOK, st.Verification)
	case st.AlreadyExists != "":
		return c.JSON(http.StatusConflict, echo.Map{"error": st.AlreadyExists, "alreadyExists": true})
	default:
		return c.JSON(http.StatusBadGateway, echo.Map{"error": st.Error})
	}
}

// Submit handles POST /v1/reviews.
func (h *ReviewHandler) Submit(c echo.Context) error {
	id := middleware.Identity(c)

	var sub model.ReviewSubmission
	if err := c.Bind(&sub); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if sub.UserID == "" {
		sub.UserID = id.UserID
	}
	if sub.Rating < 1 || sub.Rating > 5 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": review.ErrInvalidRating.Error()})
	}
	if err := c.Validate(&sub); err != nil {
		return err
	}

	ctx := c.Request().Context()
	store := review.NewStore(h.Service, h.Log)
	store.Add(ctx, id, sub)

	st := store.State()
	if st.Error != "" {
		return c.JSON(http.StatusBadGateway, echo.Map{"error": st.Error})
	}

	if h.Notifier != nil {
		if err := h.Notifier.Notify(ctx, id.SessionID, notify.Alert{Level: notify.Success, Message: st.Success}); err != nil {
			h.Log.Error("queue alert for %s: %v", id.SessionID, err)
		}
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	_ = h.Events.ReviewSubmitted(pubCtx, queue.ReviewSubmittedEvent{
		BookingID:   sub.BookingID,
		UserID:      sub.UserID,
		Rating:      sub.Rating,
		SubmittedAt: time.Now().UTC().Format(time.RFC3339),
	})
	return c.JSON(http.StatusCreated, echo.Map{"message": st.Success})
}
