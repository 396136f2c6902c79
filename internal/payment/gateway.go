package payment

import (
	"context"

	"github.com/iliyamo/resort-storefront/internal/model"
)

// Theme is the widget colour scheme.
type Theme struct {
	Color string `json:"color"`
}

// CheckoutOptions configure one opening of the checkout widget. The JSON
// form is handed to the widget script as-is.
type CheckoutOptions struct {
	Key         string            `json:"key"`
	Amount      int64             `json:"amount"`
	Currency    string            `json:"currency"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	OrderID     string            `json:"order_id"`
	Prefill     model.Prefill     `json:"prefill"`
	Notes       map[string]string `json:"notes,omitempty"`
	Theme       Theme             `json:"theme"`
}

// Events are the three things a checkout widget can report.
type Events struct {
	OnSuccess func(model.PaymentResponse)
	OnFailure func(model.PaymentFailure)
	OnDismiss func()
}

// Gateway opens a checkout widget. Implementations deliver at most one of
// the events per Open, possibly long after Open returns.
type Gateway interface {
	Open(ctx context.Context, opts CheckoutOptions, ev Events) error
}
