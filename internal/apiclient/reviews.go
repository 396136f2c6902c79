package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/iliyamo/resort-storefront/internal/model"
)

// GetReviews lists reviews matching filter.
func (c *Client) GetReviews(ctx context.Context, filter model.ReviewFilter) ([]model.Review, error) {
	q := url.Values{}
	if filter.Status != "" {
		q.Set("status", string(filter.Status))
	}
	if filter.RoomSlug != "" {
		q.Set("roomSlug", filter.RoomSlug)
	}
	if filter.UserID != "" {
		q.Set("userId", filter.UserID)
	}
	var out []model.Review
	if err := c.do(ctx, http.MethodGet, "/reviews", "", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AddReview submits a review bound to a verification token.
func (c *Client) AddReview(ctx context.Context, authToken string, sub model.ReviewSubmission) error {
	return c.do(ctx, http.MethodPost, "/reviews", authToken, nil, sub, nil)
}

// VerifyReview exchanges a verification token for the booking and user it
// was issued for.
func (c *Client) VerifyReview(ctx context.Context, token string) (*model.ReviewVerification, error) {
	var out model.ReviewVerification
	q := url.Values{"token": []string{token}}
	if err := c.do(ctx, http.MethodGet, "/reviews/verify", "", q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
