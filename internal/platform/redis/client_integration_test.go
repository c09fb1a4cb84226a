//go:build integration

package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"govportal/internal/platform/config"
	"govportal/pkg/testutil"
	"govportal/pkg/testutil/containers"
)

func TestClient_AgainstRedis(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	testutil.Given(t, "a configured redis URL", func(t *testing.T) {
		cfg := config.RedisConfig{
			URL:            rc.URL,
			PoolSize:       4,
			MinIdleConns:   1,
			DialTimeout:    5 * time.Second,
			ReadTimeout:    3 * time.Second,
			WriteTimeout:   3 * time.Second,
			ConnectTimeout: 10 * time.Second,
		}

		testutil.When(t, "connecting", func(t *testing.T) {
			client, err := New(ctx, cfg, nil)
			require.NoError(t, err)
			require.NotNil(t, client)
			defer client.Close()

			testutil.Then(t, "the client is healthy and applies pool settings", func(t *testing.T) {
				assert.NoError(t, client.Health(ctx))
				assert.Equal(t, 4, client.Options().PoolSize)
			})
		})
	})

	testutil.Given(t, "no redis URL", func(t *testing.T) {
		testutil.When(t, "connecting", func(t *testing.T) {
			client, err := New(ctx, config.RedisConfig{}, nil)

			testutil.Then(t, "no client is returned and no error", func(t *testing.T) {
				assert.NoError(t, err)
				assert.Nil(t, client)
			})
		})
	})

	testutil.Given(t, "an unreachable redis", func(t *testing.T) {
		testutil.When(t, "connecting", func(t *testing.T) {
			_, err := New(ctx, config.RedisConfig{URL: "redis://127.0.0.1:1", DialTimeout: 200 * time.Millisecond, ConnectTimeout: time.Second}, nil)

			testutil.Then(t, "the ping failure is returned", func(t *testing.T) {
				assert.Error(t, err)
			})
		})
	})
}
