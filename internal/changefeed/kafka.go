package changefeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"govportal/internal/platform/config"
	"govportal/pkg/requestcontext"
)

const (
	kafkaPartitions        int32 = 3
	kafkaReplicationFactor int16 = 1
)

// KafkaSink forwards change events to a topic keyed by record id, so every
// change to one record lands on the same partition in order.
type KafkaSink struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// NewKafkaSink connects to the brokers and makes sure the topic exists,
// retrying with backoff while the cluster comes up.
func NewKafkaSink(ctx context.Context, cfg config.KafkaConfig, logger *slog.Logger) (*KafkaSink, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.DefaultProduceTopic(cfg.Topic),
		kgo.ProducerLinger(50*time.Millisecond),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = 30 * time.Second
	err = backoff.Retry(func() error {
		return ensureTopic(ctx, kadm.NewClient(client), cfg.Topic)
	}, backoff.WithContext(policy, ctx))
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("ensure kafka topic %s: %w", cfg.Topic, err)
	}

	logger.InfoContext(ctx, "kafka change sink ready", "topic", cfg.Topic, "brokers", cfg.Brokers)
	return &KafkaSink{client: client, topic: cfg.Topic, logger: logger}, nil
}

func ensureTopic(ctx context.Context, adm *kadm.Client, topic string) error {
	_, err := adm.CreateTopic(ctx, kafkaPartitions, kafkaReplicationFactor, nil, topic)
	if err != nil && !errors.Is(err, kerr.TopicAlreadyExists) {
		return err
	}
	return nil
}

// Publish produces asynchronously. Delivery failures are logged only.
func (k *KafkaSink) Publish(ctx context.Context, event Event) {
	if event.At.IsZero() {
		event.At = requestcontext.Now(ctx)
	}
	payload, err := json.Marshal(event)
	if err != nil {
		k.logger.ErrorContext(ctx, "failed to encode change event", "error", err)
		return
	}
	record := &kgo.Record{
		Topic: k.topic,
		Key:   []byte(event.RecordID),
		Value: payload,
		Headers: []kgo.RecordHeader{
			{Key: "table", Value: []byte(event.Table)},
			{Key: "op", Value: []byte(event.Op)},
		},
	}
	// The request context may end before the broker acks.
	k.client.Produce(context.WithoutCancel(ctx), record, func(r *kgo.Record, err error) {
		if err != nil {
			k.logger.Warn("kafka change delivery failed",
				"topic", r.Topic,
				"record_id", string(r.Key),
				"error", err,
			)
		}
	})
}

// Flush waits for buffered records.
func (k *KafkaSink) Flush(ctx context.Context) error {
	return k.client.Flush(ctx)
}

func (k *KafkaSink) Close(ctx context.Context) {
	if err := k.client.Flush(ctx); err != nil {
		k.logger.WarnContext(ctx, "kafka flush on close failed", "error", err)
	}
	k.client.Close()
}
