package apiclient

import (
	"context"
	"net/http"

	"github.com/iliyamo/resort-storefront/internal/model"
)

// GetCart fetches the authenticated user's cart. A response without an
// items list decodes to an empty cart.
func (c *Client) GetCart(ctx context.Context, authToken string) (*model.RemoteCart, error) {
	var out model.RemoteCart
	if err := c.do(ctx, http.MethodGet, "/cart", authToken, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SyncCart replaces the remote cart with item.
func (c *Client) SyncCart(ctx context.Context, authToken string, item model.CartItem) error {
	return c.do(ctx, http.MethodPost, "/cart/sync", authToken, nil, item, nil)
}

// ClearCart empties the remote cart.
func (c *Client) ClearCart(ctx context.Context, authToken string) error {
	return c.do(ctx, http.MethodDelete, "/cart", authToken, nil, nil, nil)
}
