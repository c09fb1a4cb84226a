//go:build integration

package containers

import (
	"context"
	"testing"

	"github.com/testcontainers/testcontainers-go/modules/redpanda"
)

// RedpandaContainer is a Kafka-compatible broker for change sink suites.
type RedpandaContainer struct {
	Container *redpanda.Container
	Brokers   []string
}

func NewRedpandaContainer(t *testing.T) *RedpandaContainer {
	t.Helper()
	ctx := context.Background()

	c, err := redpanda.Run(ctx, "docker.redpanda.com/redpandadata/redpanda:v24.2.4",
		redpanda.WithAutoCreateTopics(),
	)
	if err != nil {
		t.Fatalf("failed to start redpanda container: %v", err)
	}

	broker, err := c.KafkaSeedBroker(ctx)
	if err != nil {
		_ = c.Terminate(ctx)
		t.Fatalf("failed to get seed broker: %v", err)
	}

	t.Cleanup(func() { _ = c.Terminate(context.Background()) })
	return &RedpandaContainer{Container: c, Brokers: []string{broker}}
}
