package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/iliyamo/resort-storefront/internal/logger"
	"github.com/iliyamo/resort-storefront/internal/model"
)

var (
	ErrUnknownOrder      = errors.New("no pending checkout for order")
	ErrSignatureMismatch = errors.New("payment signature mismatch")
	ErrNotOwner          = errors.New("checkout belongs to another session")
)

// DefaultPendingTTL applies when a gateway is built without a positive ttl.
const DefaultPendingTTL = 15 * time.Minute

// OutcomeKind is what the browser reports the widget did.
type OutcomeKind string

const (
	OutcomeSuccess OutcomeKind = "success"
	OutcomeFailure OutcomeKind = "failure"
	OutcomeDismiss OutcomeKind = "dismiss"
)

// Outcome is a widget report posted back by the browser.
type Outcome struct {
	Kind     OutcomeKind           `json:"kind" validate:"required,oneof=success failure dismiss"`
	Response model.PaymentResponse `json:"response"`
	Failure  model.PaymentFailure  `json:"error"`
}

type pendingCheckout struct {
	owner  string
	events Events
	opened time.Time
}

// WidgetGateway is the server side of the browser checkout widget. Open
// parks the attempt; the browser's callback is fed to Resolve. Attempts
// that never report back are treated as dismissed once ttl passes.
// Without a secret no success can be verified, so every reported success
// is refused.
type WidgetGateway struct {
	secret string
	ttl    time.Duration
	log    logger.Logger
	now    func() time.Time

	mu      sync.Mutex
	pending map[string]pendingCheckout
}

func NewWidgetGateway(secret string, ttl time.Duration, log logger.Logger) *WidgetGateway {
	if log == nil {
		log = logger.Nop{}
	}
	if ttl <= 0 {
		ttl = DefaultPendingTTL
	}
	if secret == "" {
		log.Error("no checkout secret configured; payments cannot be verified")
	}
	return &WidgetGateway{
		secret:  secret,
		ttl:     ttl,
		log:     log,
		now:     time.Now,
		pending: map[string]pendingCheckout{},
	}
}

// Open registers the attempt under its order id.
func (g *WidgetGateway) Open(ctx context.Context, opts CheckoutOptions, ev Events) error {
	if opts.OrderID == "" {
		return errors.New("checkout options without order id")
	}
	g.Expire()

	g.mu.Lock()
	g.pending[opts.OrderID] = pendingCheckout{
		owner:  opts.Notes["session"],
		events: ev,
		opened: g.now(),
	}
	g.mu.Unlock()
	return nil
}

// Pending reports how many attempts are waiting for a callback.
func (g *WidgetGateway) Pending() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.pending)
}

// Resolve delivers the browser's report for orderID. owner must match the
// session the checkout was opened for. A success whose signature does not
// verify is delivered as a failure and ErrSignatureMismatch is returned.
func (g *WidgetGateway) Resolve(owner, orderID string, o Outcome) error {
	g.mu.Lock()
	p, ok := g.pending[orderID]
	if ok && p.owner != "" && p.owner != owner {
		g.mu.Unlock()
		return ErrNotOwner
	}
	delete(g.pending, orderID)
	g.mu.Unlock()
	if !ok {
		return ErrUnknownOrder
	}

	switch o.Kind {
	case OutcomeSuccess:
		resp := o.Response
		if resp.OrderID == "" {
			resp.OrderID = orderID
		}
		if g.secret == "" || !VerifySignature(g.secret, resp) {
			g.log.Error("signature mismatch for order %s payment %s", orderID, resp.PaymentID)
			p.events.OnFailure(model.PaymentFailure{
				Code:        "SIGNATURE_MISMATCH",
				Description: "Payment verification failed",
				PaymentID:   resp.PaymentID,
			})
			return ErrSignatureMismatch
		}
		p.events.OnSuccess(resp)
	case OutcomeFailure:
		f := o.Failure
		if f.Description == "" {
			f.Description = "Payment failed"
		}
		p.events.OnFailure(f)
	default:
		p.events.OnDismiss()
	}
	return nil
}

// Expire dismisses attempts older than the ttl and returns how many.
func (g *WidgetGateway) Expire() int {
	cutoff := g.now().Add(-g.ttl)

	g.mu.Lock()
	var stale []pendingCheckout
	for id, p := range g.pending {
		if p.opened.Before(cutoff) {
			stale = append(stale, p)
			delete(g.pending, id)
		}
	}
	g.mu.Unlock()

	for _, p := range stale {
		p.events.OnDismiss()
	}
	return len(stale)
}

// Run expires abandoned attempts every interval until ctx is done.
func (g *WidgetGateway) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := g.Expire(); n > 0 {
				g.log.Info("expired %d abandoned checkouts", n)
			}
		}
	}
}

// Signature is the gateway's HMAC-SHA256 over "order_id|payment_id".
func Signature(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks resp against secret in constant time.
func VerifySignature(secret string, resp model.PaymentResponse) bool {
	want := Signature(secret, resp.OrderID, resp.PaymentID)
	return hmac.Equal([]byte(want), []byte(resp.Signature))
}
