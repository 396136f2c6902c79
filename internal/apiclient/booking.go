package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/resort-storefront/internal/model"
)

type initiatePaymentRequest struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// InitiatePayment asks the backend to create a gateway order.
func (c *Client) InitiatePayment(ctx context.Context, authToken string, amount decimal.Decimal, currency string) (*model.PaymentOrder, error) {
	var out model.PaymentOrder
	body := initiatePaymentRequest{Amount: amount, Currency: currency}
	if err := c.do(ctx, http.MethodPost, "/bookings/payment/initiate", authToken, nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetRoom loads the room definition for slug.
func (c *Client) GetRoom(ctx context.Context, slug string) (*model.RoomConfig, error) {
	var out model.RoomConfig
	if err := c.do(ctx, http.MethodGet, "/rooms/"+url.PathEscape(slug), "", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
