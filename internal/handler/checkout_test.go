package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/resort-storefront/internal/apiclient"
	"github.com/iliyamo/resort-storefront/internal/cart"
	"github.com/iliyamo/resort-storefront/internal/model"
	"github.com/iliyamo/resort-storefront/internal/notify"
	"github.com/iliyamo/resort-storefront/internal/payment"
	"github.com/iliyamo/resort-storefront/internal/session"
)

type mockOrders struct {
	initFn func(ctx context.Context, tok string, amount decimal.Decimal, currency string) (*model.PaymentOrder, error)
}

func (m *mockOrders) InitiatePayment(ctx context.Context, tok string, amount decimal.Decimal, currency string) (*model.PaymentOrder, error) {
	return m.initFn(ctx, tok, amount, currency)
}

type recordingNotifier struct {
	mu     sync.Mutex
	alerts []notify.Alert
}

func (n *recordingNotifier) Notify(ctx context.Context, sessionID string, a notify.Alert) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts = append(n.alerts, a)
	return nil
}

const checkoutSecret = "key_secret"

type checkoutFixture struct {
	h        *CheckoutHandler
	carts    *CartHandler
	remote   *mockRemote
	events   *recordingPublisher
	notifier *recordingNotifier
	amounts  []decimal.Decimal
}

func newCheckoutFixture(t *testing.T, orders *mockOrders) *checkoutFixture {
	t.Helper()
	slots, _ := newSlots(t)
	f := &checkoutFixture{remote: &mockRemote{}, events: &recordingPublisher{}, notifier: &recordingNotifier{}}
	if orders == nil {
		orders = &mockOrders{initFn: func(ctx context.Context, tok string, amount decimal.Decimal, currency string) (*model.PaymentOrder, error) {
			f.amounts = append(f.amounts, amount)
			return &model.PaymentOrder{Amount: amount.Shift(2).IntPart(), Currency: currency, OrderID: fmt.Sprintf("order_%d", len(f.amounts))}, nil
		}}
	}
	gateway := payment.NewWidgetGateway(checkoutSecret, time.Minute, nil)
	flow := payment.NewFlow(orders, gateway, f.notifier, nil, payment.Config{Key: "rzp_test", StoreName: "Azure Bay Resort", ThemeColor: "#0f766e"})
	f.h = NewCheckoutHandler(flow, gateway, slots, f.remote, f.events, f.notifier, nil)
	f.carts = NewCartHandler(slots, f.remote, staticRooms(), nil)
	return f
}

// memberWithCart keeps the remote cart in step with what the member added.
func (f *checkoutFixture) memberWithCart(t *testing.T) model.CartItem {
	t.Helper()
	added := addToCart(t, f.carts, member, addBody)
	item := *added.Item
	f.remote.getFn = func(context.Context, string) (*model.RemoteCart, error) {
		if f.remote.cleared > 0 {
			return &model.RemoteCart{}, nil
		}
		return &model.RemoteCart{Items: []model.CartItem{item}}, nil
	}
	return item
}

func (f *checkoutFixture) start(t *testing.T, id session.Identity) (payment.CheckoutOptions, int, string) {
	t.Helper()
	c, rec := newContext(newEcho(), id, http.MethodPost, "/v1/checkout", `{}`)
	require.NoError(t, f.h.Start(c))
	var resp checkoutResponse
	if rec.Code == http.StatusCreated {
		decode(t, rec, &resp)
		return resp.Options, rec.Code, ""
	}
	return resp.Options, rec.Code, errorOf(t, rec)
}

func (f *checkoutFixture) callback(t *testing.T, id session.Identity, req CallbackRequest) (int, map[string]interface{}) {
	t.Helper()
	b, err := json.Marshal(req)
	require.NoError(t, err)
	c, rec := newContext(newEcho(), id, http.MethodPost, "/v1/checkout/callback", string(b))
	require.NoError(t, f.h.Callback(c))
	var body map[string]interface{}
	decode(t, rec, &body)
	return rec.Code, body
}

func TestCheckout_EmptyCart(t *testing.T) {
	f := newCheckoutFixture(t, nil)
	_, code, msg := f.start(t, member)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "cart is empty", msg)
}

func TestCheckout_PaidClearsCartAndPublishes(t *testing.T) {
	f := newCheckoutFixture(t, nil)
	item := f.memberWithCart(t)

	opts, code, _ := f.start(t, member)
	require.Equal(t, http.StatusCreated, code)
	require.Len(t, f.amounts, 1)
	assert.True(t, item.Financials.GrandTotal.Equal(f.amounts[0]))
	assert.Equal(t, "rzp_test", opts.Key)
	assert.Equal(t, "asha@example.com", opts.Prefill.Email)
	assert.Contains(t, opts.Description, "Pool Villa, 3 nights")

	code, body := f.callback(t, member, CallbackRequest{
		OrderID: opts.OrderID,
		Outcome: payment.Outcome{Kind: payment.OutcomeSuccess, Response: model.PaymentResponse{
			PaymentID: "pay_1",
			OrderID:   opts.OrderID,
			Signature: payment.Signature(checkoutSecret, opts.OrderID, "pay_1"),
		}},
	})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "paid", body["status"])

	assert.Equal(t, 1, f.remote.cleared)
	assert.Nil(t, getCart(t, f.carts, member).Item)
	require.Len(t, f.events.completed, 1)
	assert.Equal(t, "pay_1", f.events.completed[0].PaymentID)
	assert.Equal(t, "pool-villa", f.events.completed[0].RoomSlug)
	assert.Empty(t, f.events.failed)
	require.NotEmpty(t, f.notifier.alerts)
	assert.Equal(t, notify.Success, f.notifier.alerts[len(f.notifier.alerts)-1].Level)
}

func TestCheckout_DismissKeepsCart(t *testing.T) {
	f := newCheckoutFixture(t, nil)
	f.memberWithCart(t)

	opts, code, _ := f.start(t, member)
	require.Equal(t, http.StatusCreated, code)

	code, body := f.callback(t, member, CallbackRequest{OrderID: opts.OrderID, Outcome: payment.Outcome{Kind: payment.OutcomeDismiss}})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "cancelled", body["status"])

	require.Len(t, f.events.failed, 1)
	assert.True(t, f.events.failed[0].Cancelled)
	assert.Zero(t, f.remote.cleared)
	assert.NotNil(t, getCart(t, f.carts, member).Item)
}

func TestCheckout_Declined(t *testing.T) {
	f := newCheckoutFixture(t, nil)
	f.memberWithCart(t)
	opts, _, _ := f.start(t, member)

	code, body := f.callback(t, member, CallbackRequest{OrderID: opts.OrderID, Outcome: payment.Outcome{
		Kind:    payment.OutcomeFailure,
		Failure: model.PaymentFailure{Code: "BAD_REQUEST_ERROR", Description: "Card declined"},
	}})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "failed", body["status"])
	require.Len(t, f.events.failed, 1)
	assert.Equal(t, "Card declined", f.events.failed[0].Reason)
	assert.False(t, f.events.failed[0].Cancelled)
}

func TestCheckout_ForgedSignature(t *testing.T) {
	f := newCheckoutFixture(t, nil)
	f.memberWithCart(t)
	opts, _, _ := f.start(t, member)

	code, _ := f.callback(t, member, CallbackRequest{OrderID: opts.OrderID, Outcome: payment.Outcome{
		Kind:     payment.OutcomeSuccess,
		Response: model.PaymentResponse{PaymentID: "pay_1", OrderID: opts.OrderID, Signature: "forged"},
	}})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Empty(t, f.events.completed)
	require.Len(t, f.events.failed, 1)
	assert.Zero(t, f.remote.cleared)
}

func TestCheckout_CallbackOwnership(t *testing.T) {
	f := newCheckoutFixture(t, nil)
	f.memberWithCart(t)
	opts, _, _ := f.start(t, member)

	code, _ := f.callback(t, guest, CallbackRequest{OrderID: opts.OrderID, Outcome: payment.Outcome{Kind: payment.OutcomeDismiss}})
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = f.callback(t, member, CallbackRequest{OrderID: "order_unknown", Outcome: payment.Outcome{Kind: payment.OutcomeDismiss}})
	assert.Equal(t, http.StatusNotFound, code)
}

func TestCheckout_SecondStartWhilePending(t *testing.T) {
	f := newCheckoutFixture(t, nil)
	f.memberWithCart(t)

	_, code, _ := f.start(t, member)
	require.Equal(t, http.StatusCreated, code)
	_, code, _ = f.start(t, member)
	assert.Equal(t, http.StatusConflict, code)
}

func TestCheckout_BackendRefuses(t *testing.T) {
	f := newCheckoutFixture(t, &mockOrders{initFn: func(context.Context, string, decimal.Decimal, string) (*model.PaymentOrder, error) {
		return nil, &apiclient.APIError{StatusCode: http.StatusOK, Message: "Dates no longer available"}
	}})
	f.memberWithCart(t)

	_, code, msg := f.start(t, member)
	assert.Equal(t, http.StatusBadGateway, code)
	assert.Equal(t, "Dates no longer available", msg)
	assert.Empty(t, f.events.failed)
}

func TestCheckout_CallbackValidation(t *testing.T) {
	f := newCheckoutFixture(t, nil)
	c, _ := newContext(newEcho(), member, http.MethodPost, "/v1/checkout/callback", `{"order_id":"o1","kind":"teleport"}`)
	err := f.h.Callback(c)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, httpErrorCode(err))
}

func TestDescribe(t *testing.T) {
	in, _ := model.ParseDate("2026-12-20")
	out, _ := model.ParseDate("2026-12-21")
	assert.Equal(t, "Garden Suite, 1 night from 2026-12-20", describe(model.CartItem{Name: "Garden Suite", CheckIn: in, CheckOut: out}))
}

var _ cart.Remote = (*mockRemote)(nil)
