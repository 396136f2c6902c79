// Package payment drives a checkout: it asks the backend for a gateway
// order, opens the checkout widget and turns the widget's report into a
// success or failure for the caller.
package payment

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/resort-storefront/internal/apiclient"
	"github.com/iliyamo/resort-storefront/internal/logger"
	"github.com/iliyamo/resort-storefront/internal/model"
	"github.com/iliyamo/resort-storefront/internal/notify"
	"github.com/iliyamo/resort-storefront/internal/session"
)

// FallbackCurrency is used when neither the request nor the store names a
// currency.
const FallbackCurrency = "INR"

const (
	msgInvalidAmount  = "Invalid amount"
	msgInitiateFailed = "Failed to initiate payment"
	msgCancelled      = "Payment cancelled"
)

var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrPaymentCancelled  = errors.New("payment cancelled by user")
	ErrPaymentInProgress = errors.New("a payment is already in progress")
)

// InitiateError is a failure to obtain a gateway order. Message is safe to
// show to the user.
type InitiateError struct {
	Message string
	Err     error
}

func (e *InitiateError) Error() string { return e.Message }
func (e *InitiateError) Unwrap() error { return e.Err }

// DeclinedError carries the widget's failure report.
type DeclinedError struct {
	Failure model.PaymentFailure
}

func (e *DeclinedError) Error() string { return e.Failure.Description }

// OrderService creates gateway orders on the backend.
type OrderService interface {
	InitiatePayment(ctx context.Context, authToken string, amount decimal.Decimal, currency string) (*model.PaymentOrder, error)
}

// Config is the store-wide checkout configuration.
type Config struct {
	Key             string
	StoreName       string
	ThemeColor      string
	DefaultCurrency string
}

// Request is one call to Process.
type Request struct {
	Identity    session.Identity
	Amount      decimal.Decimal
	Currency    string
	Description string
	Prefill     model.Prefill
}

// Callbacks receive the terminal outcome of a checkout. Exactly one of
// them fires, once, for every Process call that returned nil.
type Callbacks struct {
	OnSuccess func(model.PaymentResponse)
	OnFailure func(error)
}

// Flow is shared by all visitors; the processing flag is tracked per
// visitor session.
type Flow struct {
	orders   OrderService
	gateway  Gateway
	notifier notify.Notifier
	log      logger.Logger
	cfg      Config

	mu       sync.Mutex
	inflight map[string]bool
}

func NewFlow(orders OrderService, gateway Gateway, notifier notify.Notifier, log logger.Logger, cfg Config) *Flow {
	if log == nil {
		log = logger.Nop{}
	}
	return &Flow{
		orders:   orders,
		gateway:  gateway,
		notifier: notifier,
		log:      log,
		cfg:      cfg,
		inflight: map[string]bool{},
	}
}

// Processing reports whether sessionID has a checkout in flight.
func (f *Flow) Processing(sessionID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inflight[sessionID]
}

// Process validates the amount, obtains an order and opens the widget. It
// returns the options the widget was opened with. Errors before the widget
// opens are returned and no callback fires; afterwards the outcome arrives
// through cb.
func (f *Flow) Process(ctx context.Context, req Request, cb Callbacks) (*CheckoutOptions, error) {
	payer := req.Identity.SessionID

	if !req.Amount.IsPositive() {
		f.alert(payer, notify.Error, msgInvalidAmount)
		return nil, ErrInvalidAmount
	}

	f.mu.Lock()
	if f.inflight[payer] {
		f.mu.Unlock()
		return nil, ErrPaymentInProgress
	}
	f.inflight[payer] = true
	f.mu.Unlock()

	var once sync.Once
	terminal := func(fn func()) {
		once.Do(func() {
			f.finish(payer)
			fn()
		})
	}

	currency := f.currency(req.Currency)
	order, err := f.orders.InitiatePayment(ctx, req.Identity.Token, req.Amount, currency)
	if err == nil && (order == nil || order.OrderID == "") {
		err = errors.New("backend returned no order id")
	}
	if err != nil {
		msg := msgInitiateFailed
		if m, ok := apiclient.MessageOf(err); ok {
			msg = m
		}
		f.log.Error("initiate payment for %s: %v", payer, err)
		terminal(func() { f.alert(payer, notify.Error, msg) })
		return nil, &InitiateError{Message: msg, Err: err}
	}

	if order.Currency != "" {
		currency = order.Currency
	}
	opts := CheckoutOptions{
		Key:         f.cfg.Key,
		Amount:      order.Amount,
		Currency:    currency,
		Name:        f.cfg.StoreName,
		Description: req.Description,
		OrderID:     order.OrderID,
		Prefill:     req.Prefill,
		Notes:       map[string]string{"session": payer},
		Theme:       Theme{Color: f.cfg.ThemeColor},
	}

	ev := Events{
		OnSuccess: func(resp model.PaymentResponse) {
			terminal(func() {
				f.log.Info("payment %s succeeded for order %s", resp.PaymentID, opts.OrderID)
				if cb.OnSuccess != nil {
					cb.OnSuccess(resp)
				}
			})
		},
		OnFailure: func(pf model.PaymentFailure) {
			terminal(func() {
				f.log.Error("payment failed for order %s: %s", opts.OrderID, pf.Description)
				f.alert(payer, notify.Error, pf.Description)
				if cb.OnFailure != nil {
					cb.OnFailure(&DeclinedError{Failure: pf})
				}
			})
		},
		OnDismiss: func() {
			terminal(func() {
				f.log.Info("checkout dismissed for order %s", opts.OrderID)
				f.alert(payer, notify.Info, msgCancelled)
				if cb.OnFailure != nil {
					cb.OnFailure(ErrPaymentCancelled)
				}
			})
		},
	}

	if err := f.gateway.Open(ctx, opts, ev); err != nil {
		f.log.Error("open checkout for order %s: %v", opts.OrderID, err)
		terminal(func() { f.alert(payer, notify.Error, msgInitiateFailed) })
		return nil, &InitiateError{Message: msgInitiateFailed, Err: err}
	}
	return &opts, nil
}

func (f *Flow) currency(requested string) string {
	switch {
	case requested != "":
		return requested
	case f.cfg.DefaultCurrency != "":
		return f.cfg.DefaultCurrency
	default:
		return FallbackCurrency
	}
}

func (f *Flow) finish(payer string) {
	f.mu.Lock()
	delete(f.inflight, payer)
	f.mu.Unlock()
}

func (f *Flow) alert(sessionID string, level notify.Level, msg string) {
	if f.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := f.notifier.Notify(ctx, sessionID, notify.Alert{Level: level, Message: msg}); err != nil {
		f.log.Error("queue alert for %s: %v", sessionID, err)
	}
}
