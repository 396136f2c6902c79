package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/resort-storefront/internal/logger"
)

// ModerationHandler reacts to a moderated review.
type ModerationHandler func(ctx context.Context, ev ReviewModeratedEvent) error

// ModerationConsumer listens to review.moderated and hands each event to
// its handler. Bad messages are rejected without requeue.
type ModerationConsumer struct {
	url    string
	handle ModerationHandler
	log    logger.Logger
}

func NewModerationConsumer(url string, handle ModerationHandler, log logger.Logger) *ModerationConsumer {
	if url == "" {
		url = DefaultURL
	}
	if log == nil {
		log = logger.Nop{}
	}
	return &ModerationConsumer{url: url, handle: handle, log: log}
}

// Run dials the broker and consumes until ctx is cancelled, reconnecting
// with exponential backoff capped at 30s.
func (c *ModerationConsumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.log.Error("moderation-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Error("moderation-consumer: consume loop ended: %v; reconnecting", err)
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *ModerationConsumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.log.Error("moderation-consumer: set QoS failed: %v", err)
	}
	if _, err := ch.QueueDeclare(ReviewModeratedQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(ReviewModeratedQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.handleMessage(ctx, d.Body); err != nil {
				c.log.Error("moderation-consumer: handle message failed: %v", err)
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (c *ModerationConsumer) handleMessage(ctx context.Context, body []byte) error {
	var ev ReviewModeratedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.RoomSlug == "" {
		return errors.New("event without room_slug")
	}
	c.log.Info("review %s for %s moderated: %s", ev.ReviewID, ev.RoomSlug, ev.Status)
	return c.handle(ctx, ev)
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
