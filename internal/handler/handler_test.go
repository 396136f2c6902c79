package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/resort-storefront/internal/model"
	"github.com/iliyamo/resort-storefront/internal/queue"
	"github.com/iliyamo/resort-storefront/internal/session"
	"github.com/iliyamo/resort-storefront/internal/storage"
)

// --- Mock RoomService ---

type mockRooms struct {
	getFn func(ctx context.Context, slug string) (*model.RoomConfig, error)
}

func (m *mockRooms) GetRoom(ctx context.Context, slug string) (*model.RoomConfig, error) {
	return m.getFn(ctx, slug)
}

func villa() *model.RoomConfig {
	return &model.RoomConfig{
		ID:              "r1",
		Slug:            "pool-villa",
		Name:            "Pool Villa",
		BasePrice:       decimal.NewFromInt(1000),
		BaseAdults:      2,
		MaxAdults:       4,
		BaseChildren:    1,
		MaxChildren:     2,
		ExtraAdultPrice: decimal.NewFromInt(200),
		ExtraChildPrice: decimal.NewFromInt(100),
		Currency:        "INR",
	}
}

func staticRooms() *mockRooms {
	return &mockRooms{getFn: func(ctx context.Context, slug string) (*model.RoomConfig, error) {
		r := villa()
		r.Slug = slug
		return r, nil
	}}
}

// --- Mock review.Service ---

type mockReviews struct {
	getFn    func(ctx context.Context, filter model.ReviewFilter) ([]model.Review, error)
	addFn    func(ctx context.Context, authToken string, sub model.ReviewSubmission) error
	verifyFn func(ctx context.Context, token string) (*model.ReviewVerification, error)
}

func (m *mockReviews) GetReviews(ctx context.Context, filter model.ReviewFilter) ([]model.Review, error) {
	return m.getFn(ctx, filter)
}
func (m *mockReviews) AddReview(ctx context.Context, authToken string, sub model.ReviewSubmission) error {
	return m.addFn(ctx, authToken, sub)
}
func (m *mockReviews) VerifyReview(ctx context.Context, token string) (*model.ReviewVerification, error) {
	return m.verifyFn(ctx, token)
}

// --- Mock cart.Remote ---

type mockRemote struct {
	getFn   func(ctx context.Context, authToken string) (*model.RemoteCart, error)
	synced  []model.CartItem
	cleared int
}

func (m *mockRemote) GetCart(ctx context.Context, authToken string) (*model.RemoteCart, error) {
	if m.getFn == nil {
		return &model.RemoteCart{}, nil
	}
	return m.getFn(ctx, authToken)
}
func (m *mockRemote) SyncCart(ctx context.Context, authToken string, item model.CartItem) error {
	m.synced = append(m.synced, item)
	return nil
}
func (m *mockRemote) ClearCart(ctx context.Context, authToken string) error {
	m.cleared++
	return nil
}

// --- Recording queue.Publisher ---

type recordingPublisher struct {
	completed []queue.PaymentCompletedEvent
	failed    []queue.PaymentFailedEvent
	reviews   []queue.ReviewSubmittedEvent
}

func (p *recordingPublisher) PaymentCompleted(ctx context.Context, ev queue.PaymentCompletedEvent) error {
	p.completed = append(p.completed, ev)
	return nil
}
func (p *recordingPublisher) PaymentFailed(ctx context.Context, ev queue.PaymentFailedEvent) error {
	p.failed = append(p.failed, ev)
	return nil
}
func (p *recordingPublisher) ReviewSubmitted(ctx context.Context, ev queue.ReviewSubmittedEvent) error {
	p.reviews = append(p.reviews, ev)
	return nil
}

// --- helpers ---

var (
	guest  = session.Identity{SessionID: "sess-guest"}
	member = session.Identity{SessionID: "sess-member", Token: "jwt-token", UserID: "u-1", Name: "Asha", Email: "asha@example.com"}
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func newSlots(t *testing.T) (*storage.RedisSlotStore, *redis.Client) {
	t.Helper()
	_, rdb := setupTestRedis(t)
	return storage.NewRedisSlotStore(rdb, "slot", time.Hour), rdb
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

// newContext builds an echo context for id, the way the session middleware
// would leave it.
func newContext(e *echo.Echo, id session.Identity, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	req = req.WithContext(session.WithIdentity(req.Context(), id))
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]interface{}
	decode(t, rec, &body)
	msg, _ := body["error"].(string)
	return msg
}

func httpErrorCode(err error) int {
	if he, ok := err.(*echo.HTTPError); ok {
		return he.Code
	}
	return http.StatusInternalServerError
}
