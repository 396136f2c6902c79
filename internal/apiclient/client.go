// Package apiclient talks to the resort booking backend over REST. Every
// call is a single attempt; retries are left to the user.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/iliyamo/resort-storefront/internal/logger"
)

// APIError is a failure the backend reported itself, either through a
// non-2xx status or an explicit "status": false envelope.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend error (status %d)", e.StatusCode)
	}
	return fmt.Sprintf("backend error (status %d): %s", e.StatusCode, e.Message)
}

// MessageOf returns the backend-provided message carried by err, if any.
func MessageOf(err error) (string, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message, true
	}
	return "", false
}

// envelope is the common response shape of the backend.
type envelope struct {
	Status  *bool           `json:"status,omitempty"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Client is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	log     logger.Logger
}

// New builds a client for baseURL. Outbound requests are traced with
// otelhttp.
func New(baseURL string, timeout time.Duration, log logger.Logger) *Client {
	if log == nil {
		log = logger.Nop{}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		log: log,
	}
}

func (c *Client) do(ctx context.Context, method, path, token string, query url.Values, body, out interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, rdr)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s %s: %w", method, path, err)
	}

	var env envelope
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil && resp.StatusCode < 300 {
			return fmt.Errorf("decode %s %s: %w", method, path, err)
		}
	}

	if resp.StatusCode >= 300 {
		c.log.Debug("%s %s -> %d %s", method, path, resp.StatusCode, env.Message)
		return &APIError{StatusCode: resp.StatusCode, Message: env.Message}
	}
	if env.Status != nil && !*env.Status {
		return &APIError{StatusCode: resp.StatusCode, Message: env.Message}
	}
	if out == nil {
		return nil
	}

	src := []byte(env.Data)
	if len(src) == 0 {
		src = raw
	}
	if len(bytes.TrimSpace(src)) == 0 || string(src) == "null" {
		return nil
	}
	if err := json.Unmarshal(src, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
