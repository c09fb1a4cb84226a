// Package redis opens the shared Redis connection used by the change feed.
package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"

	"govportal/internal/platform/config"
)

// Client is the connected go-redis client. It satisfies redis.UniversalClient.
type Client struct {
	*redis.Client
}

// New returns nil, nil when no URL is configured so callers keep the change
// feed in process. Otherwise it pings with exponential backoff until Redis
// answers or cfg.ConnectTimeout elapses; a zero timeout pings once.
func New(ctx context.Context, cfg config.RedisConfig, logger *slog.Logger) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}
	if logger == nil {
		logger = slog.Default()
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns
	opts.DialTimeout = cfg.DialTimeout
	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout
	client := redis.NewClient(opts)

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 100 * time.Millisecond
	policy.MaxElapsedTime = cfg.ConnectTimeout
	var retry backoff.BackOff = policy
	if cfg.ConnectTimeout <= 0 {
		retry = backoff.WithMaxRetries(policy, 0)
	}

	attempt := 0
	err = backoff.Retry(func() error {
		attempt++
		if err := client.Ping(ctx).Err(); err != nil {
			logger.WarnContext(ctx, "redis not ready", "attempt", attempt, "error", err)
			return err
		}
		return nil
	}, backoff.WithContext(retry, ctx))
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Client{Client: client}, nil
}

func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx).Err()
}
