package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/resort-storefront/internal/cart"
	"github.com/iliyamo/resort-storefront/internal/logger"
	"github.com/iliyamo/resort-storefront/internal/middleware"
	"github.com/iliyamo/resort-storefront/internal/model"
	"github.com/iliyamo/resort-storefront/internal/notify"
	"github.com/iliyamo/resort-storefront/internal/payment"
	"github.com/iliyamo/resort-storefront/internal/queue"
	"github.com/iliyamo/resort-storefront/internal/session"
	"github.com/iliyamo/resort-storefront/internal/storage"
)

// Resolver delivers widget outcomes posted back by the browser.
type Resolver interface {
	Resolve(owner, orderID string, o payment.Outcome) error
}

// CheckoutHandler pays for the visitor's cart.
type CheckoutHandler struct {
	Flow     *payment.Flow
	Widget   Resolver
	Slots    storage.SlotStore
	Remote   cart.Remote
	Events   queue.Publisher
	Notifier notify.Notifier
	Log      logger.Logger
}

func NewCheckoutHandler(flow *payment.Flow, widget Resolver, slots storage.SlotStore, remote cart.Remote,
	events queue.Publisher, notifier notify.Notifier, log logger.Logger) *CheckoutHandler {
	if log == nil {
		log = logger.Nop{}
	}
	if events == nil {
		events = queue.NopPublisher{}
	}
	return &CheckoutHandler{Flow: flow, Widget: widget, Slots: slots, Remote: remote, Events: events, Notifier: notifier, Log: log}
}

type checkoutRequest struct {
	Currency string `json:"currency,omitempty" validate:"omitempty,len=3"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty" validate:"omitempty,email"`
	Contact  string `json:"contact,omitempty"`
}

type checkoutResponse struct {
	Options payment.CheckoutOptions `json:"options"`
}

// Start handles POST /v1/checkout. It opens a payment for the grand total
// of the cart and answers the widget options; the outcome arrives later on
// the callback route.
func (h *CheckoutHandler) Start(c echo.Context) error {
	var req checkoutRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()
	id := middleware.Identity(c)

	store := cart.NewStore(h.Slots, h.Remote, h.Log)
	store.FetchCart(ctx, id)
	item := store.State().Item
	if item == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cart is empty"})
	}

	currency := req.Currency
	if currency == "" {
		currency = item.Financials.Currency
	}
	prefill := model.Prefill{Name: id.Name, Email: id.Email, Contact: id.Phone}
	if req.Name != "" {
		prefill.Name = req.Name
	}
	if req.Email != "" {
		prefill.Email = req.Email
	}
	if req.Contact != "" {
		prefill.Contact = req.Contact
	}

	opts, err := h.Flow.Process(ctx, payment.Request{
		Identity:    id,
		Amount:      item.Financials.GrandTotal,
		Currency:    currency,
		Description: describe(*item),
		Prefill:     prefill,
	}, h.callbacks(id, *item))
	if err != nil {
		return checkoutError(c, err)
	}
	return c.JSON(http.StatusCreated, checkoutResponse{Options: *opts})
}

func describe(item model.CartItem) string {
	nights := item.Nights()
	unit := "nights"
	if nights == 1 {
		unit = "night"
	}
	return fmt.Sprintf("%s, %d %s from %s", item.Name, nights, unit, item.CheckIn)
}

// callbacks run when the widget outcome is resolved, which happens on a
// later request, so they use their own context.
func (h *CheckoutHandler) callbacks(id session.Identity, item model.CartItem) payment.Callbacks {
	return payment.Callbacks{
		OnSuccess: func(resp model.PaymentResponse) {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			cart.NewStore(h.Slots, h.Remote, h.Log).ClearCart(ctx, id)
			h.alert(ctx, id.SessionID, notify.Success, "Booking confirmed")
			_ = h.Events.PaymentCompleted(ctx, queue.PaymentCompletedEvent{
				SessionID:   id.SessionID,
				UserID:      id.UserID,
				OrderID:     resp.OrderID,
				PaymentID:   resp.PaymentID,
				Amount:      item.Financials.GrandTotal.String(),
				Currency:    item.Financials.Currency,
				RoomSlug:    item.RoomSlug,
				CheckIn:     item.CheckIn.String(),
				CheckOut:    item.CheckOut.String(),
				CompletedAt: time.Now().UTC().Format(time.RFC3339),
			})
		},
		OnFailure: func(err error) {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			ev := queue.PaymentFailedEvent{
				SessionID: id.SessionID,
				UserID:    id.UserID,
				Reason:    err.Error(),
				Cancelled: errors.Is(err, payment.ErrPaymentCancelled),
				FailedAt:  time.Now().UTC().Format(time.RFC3339),
			}
			var declined *payment.DeclinedError
			if errors.As(err, &declined) {
				ev.Reason = declined.Failure.Description
			}
			_ = h.Events.PaymentFailed(ctx, ev)
		},
	}
}

func (h *CheckoutHandler) alert(ctx context.Context, sessionID string, level notify.Level, msg string) {
	if h.Notifier == nil {
		return
	}
	if err := h.Notifier.Notify(ctx, sessionID, notify.Alert{Level: level, Message: msg}); err != nil {
		h.Log.Error("queue alert for %s: %v", sessionID, err)
	}
}

func checkoutError(c echo.Context, err error) error {
	var ie *payment.InitiateError
	switch {
	case errors.Is(err, payment.ErrInvalidAmount):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid amount"})
	case errors.Is(err, payment.ErrPaymentInProgress):
		return c.JSON(http.StatusConflict, echo.Map{"error": "a payment is already in progress"})
	case errors.As(err, &ie):
		return c.JSON(http.StatusBadGateway, echo.Map{"error": ie.Message})
	}
	return err
}

// CallbackRequest is the widget report the browser posts back.
type CallbackRequest struct {
	OrderID string `json:"order_id" validate:"required"`
	payment.Outcome
}

var callbackStatus = map[payment.OutcomeKind]string{
	payment.OutcomeSuccess: "paid",
	payment.OutcomeFailure: "failed",
	payment.OutcomeDismiss: "cancelled",
}

// Callback handles POST /v1/checkout/callback.
func (h *CheckoutHandler) Callback(c echo.Context) error {
	var req CallbackRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	id := middleware.Identity(c)

	err := h.Widget.Resolve(id.SessionID, req.OrderID, req.Outcome)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, echo.Map{"status": callbackStatus[req.Kind], "order_id": req.OrderID})
	case errors.Is(err, payment.ErrUnknownOrder):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no pending checkout for this order"})
	case errors.Is(err, payment.ErrNotOwner):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, payment.ErrSignatureMismatch):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "Payment verification failed"})
	}
	return err
}
