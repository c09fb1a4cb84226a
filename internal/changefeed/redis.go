package changefeed

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"govportal/pkg/requestcontext"
)

// RedisBus fans events out to every instance through a pub/sub channel. Each
// instance, including the publisher, receives its own events back through
// Start and dispatches them to the local bus.
type RedisBus struct {
	client  redis.UniversalClient
	channel string
	local   *MemoryBus
	logger  *slog.Logger
	ready   chan struct{}
}

func NewRedisBus(client redis.UniversalClient, channel string, local *MemoryBus, logger *slog.Logger) *RedisBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisBus{client: client, channel: channel, local: local, logger: logger, ready: make(chan struct{})}
}

func (b *RedisBus) OnChange(table Table, fn Handler) func() {
	return b.local.OnChange(table, fn)
}

// Publish sends the event to the channel. When Redis is unreachable the event
// is still delivered to local subscribers.
func (b *RedisBus) Publish(ctx context.Context, event Event) {
	if event.At.IsZero() {
		event.At = requestcontext.Now(ctx)
	}
	payload, err := json.Marshal(event)
	if err != nil {
		b.logger.ErrorContext(ctx, "failed to encode change event", "error", err)
		return
	}
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		b.logger.WarnContext(ctx, "redis publish failed, delivering locally",
			"channel", b.channel,
			"table", string(event.Table),
			"error", err,
		)
		b.local.Publish(ctx, event)
	}
}

// Ready is closed once Start's subscription is confirmed.
func (b *RedisBus) Ready() <-chan struct{} {
	return b.ready
}

// Start subscribes to the channel and blocks until ctx is cancelled.
func (b *RedisBus) Start(ctx context.Context) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	close(b.ready)
	b.logger.InfoContext(ctx, "change feed subscribed", "channel", b.channel)

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				b.logger.WarnContext(ctx, "dropping malformed change event", "error", err)
				continue
			}
			b.local.Publish(ctx, event)
		}
	}
}
