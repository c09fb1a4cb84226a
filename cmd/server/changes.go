package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"govportal/internal/changefeed"
	"govportal/internal/platform/config"
	"govportal/internal/platform/metrics"
	"govportal/internal/platform/redis"
	httptransport "govportal/internal/transport/http"
)

// changeFeed is the publish side handed to services and the subscribe side
// handed to the websocket endpoint. With Redis configured, publishes go
// through the shared channel and come back to every instance's local bus.
type changeFeed struct {
	publisher  changefeed.Publisher
	subscriber changefeed.Subscriber
	redis      *redis.Client
	kafka      *changefeed.KafkaSink
	cancel     context.CancelFunc
}

func openChangeFeed(ctx context.Context, cfg config.Server, log *slog.Logger, m *metrics.Metrics) (*changeFeed, error) {
	local := changefeed.NewMemoryBus(changefeed.WithLogger(log), changefeed.WithMetrics(m))
	feed := &changeFeed{publisher: local, subscriber: local}

	rc, err := redis.New(ctx, cfg.Redis, log)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	if rc != nil {
		feed.redis = rc
		bus := changefeed.NewRedisBus(rc.Client, cfg.Redis.Channel, local, log)
		subCtx, cancel := context.WithCancel(context.Background())
		feed.cancel = cancel
		go func() {
			if err := bus.Start(subCtx); err != nil {
				log.Error("change feed subscription ended", "error", err)
			}
		}()
		feed.publisher = bus
	} else {
		log.InfoContext(ctx, "REDIS_URL not set, change feed is local to this instance")
	}

	if len(cfg.Kafka.Brokers) > 0 {
		sink, err := changefeed.NewKafkaSink(ctx, cfg.Kafka, log)
		if err != nil {
			feed.Close()
			return nil, err
		}
		feed.kafka = sink
		feed.publisher = changefeed.Fanout{feed.publisher, sink}
	}
	return feed, nil
}

func (f *changeFeed) healthChecks(st *stores) map[string]httptransport.HealthCheck {
	checks := map[string]httptransport.HealthCheck{"database": st.health}
	if f.redis != nil {
		checks["redis"] = f.redis.Health
	}
	return checks
}

func (f *changeFeed) Close() {
	if f.kafka != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		f.kafka.Close(ctx)
		cancel()
	}
	if f.cancel != nil {
		f.cancel()
	}
	if f.redis != nil {
		_ = f.redis.Close()
	}
}
