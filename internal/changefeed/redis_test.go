package changefeed

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniRedisClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisBus_DeliversAcrossInstances(t *testing.T) {
	_, client := newMiniRedisClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	publisherLocal := NewMemoryBus()
	subscriberLocal := NewMemoryBus()
	publisher := NewRedisBus(client, "changes", publisherLocal, nil)
	subscriber := NewRedisBus(client, "changes", subscriberLocal, nil)

	received := make(chan Event, 1)
	subscriber.OnChange(TablePrintQueue, func(e Event) { received <- e })

	go func() { _ = subscriber.Start(ctx) }()
	select {
	case <-subscriber.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("subscription not confirmed")
	}

	publisher.Publish(ctx, Event{Table: TablePrintQueue, Op: OpUpdate, RecordID: "q-9"})

	select {
	case e := <-received:
		assert.Equal(t, "q-9", e.RecordID)
		assert.Equal(t, OpUpdate, e.Op)
		assert.False(t, e.At.IsZero())
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}
}

func TestRedisBus_FallsBackToLocalWhenRedisDown(t *testing.T) {
	mr, client := newMiniRedisClient(t)
	local := NewMemoryBus()
	bus := NewRedisBus(client, "changes", local, nil)

	var got []Event
	bus.OnChange(AllTables, func(e Event) { got = append(got, e) })

	mr.Close()
	bus.Publish(context.Background(), Event{Table: TableApplications, Op: OpInsert, RecordID: "a-1"})

	require.Len(t, got, 1)
	assert.Equal(t, "a-1", got[0].RecordID)
}

func TestRedisBus_StartStopsOnCancel(t *testing.T) {
	_, client := newMiniRedisClient(t)
	bus := NewRedisBus(client, "changes", NewMemoryBus(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- bus.Start(ctx) }()
	<-bus.Ready()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after cancel")
	}
}
