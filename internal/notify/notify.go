// Package notify is the storefront's alert channel: messages raised during
// one request are queued per visitor session and shown on the next page.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Level is the severity of an alert.
type Level string

const (
	Info    Level = "info"
	Success Level = "success"
	Error   Level = "error"
)

// Alert is one user-facing notice.
type Alert struct {
	Level   Level     `json:"level"`
	Title   string    `json:"title,omitempty"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Notifier queues alerts for a visitor session.
type Notifier interface {
	Notify(ctx context.Context, sessionID string, a Alert) error
}

// Flash keeps alerts in a Redis list per session. Lists expire so an
// abandoned session does not keep its alerts forever.
type Flash struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
	max    int64
}

func NewFlash(rdb *redis.Client, prefix string, ttl time.Duration) *Flash {
	if prefix == "" {
		prefix = "flash"
	}
	return &Flash{rdb: rdb, prefix: prefix, ttl: ttl, max: 20}
}

func (f *Flash) key(sessionID string) string { return f.prefix + ":" + sessionID }

// Notify appends a to the session's queue, keeping the newest entries.
func (f *Flash) Notify(ctx context.Context, sessionID string, a Alert) error {
	if a.At.IsZero() {
		a.At = time.Now().UTC()
	}
	b, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode alert: %w", err)
	}
	k := f.key(sessionID)
	pipe := f.rdb.TxPipeline()
	pipe.RPush(ctx, k, b)
	pipe.LTrim(ctx, k, -f.max, -1)
	pipe.Expire(ctx, k, f.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("push alert: %w", err)
	}
	return nil
}

// Drain returns and removes all queued alerts, oldest first.
func (f *Flash) Drain(ctx context.Context, sessionID string) ([]Alert, error) {
	k := f.key(sessionID)
	pipe := f.rdb.TxPipeline()
	rng := pipe.LRange(ctx, k, 0, -1)
	pipe.Del(ctx, k)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("drain alerts: %w", err)
	}
	out := make([]Alert, 0, len(rng.Val()))
	for _, raw := range rng.Val() {
		var a Alert
		if err := json.Unmarshal([]byte(raw), &a); err != nil {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}
