package changefeed

import (
	"context"
	"log/slog"
	"sync"

	"govportal/internal/platform/metrics"
	"govportal/pkg/requestcontext"
)

// MemoryBus dispatches events to in-process subscribers.
type MemoryBus struct {
	mu      sync.RWMutex
	nextID  int
	subs    map[Table]map[int]Handler
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type BusOption func(*MemoryBus)

func WithLogger(logger *slog.Logger) BusOption {
	return func(b *MemoryBus) { b.logger = logger }
}

func WithMetrics(m *metrics.Metrics) BusOption {
	return func(b *MemoryBus) { b.metrics = m }
}

func NewMemoryBus(opts ...BusOption) *MemoryBus {
	b := &MemoryBus{subs: make(map[Table]map[int]Handler)}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// OnChange registers fn for table, or for every table with AllTables. The
// returned func removes the subscription.
func (b *MemoryBus) OnChange(table Table, fn Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	subID := b.nextID
	if b.subs[table] == nil {
		b.subs[table] = make(map[int]Handler)
	}
	b.subs[table][subID] = fn
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs[table], subID)
		if len(b.subs[table]) == 0 {
			delete(b.subs, table)
		}
	}
}

// Publish stamps the event time when unset and dispatches synchronously.
func (b *MemoryBus) Publish(ctx context.Context, event Event) {
	if event.At.IsZero() {
		event.At = requestcontext.Now(ctx)
	}
	b.metrics.IncChangeEvent(string(event.Table))
	b.dispatch(ctx, event)
}

func (b *MemoryBus) dispatch(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs[event.Table])+len(b.subs[AllTables]))
	for _, fn := range b.subs[event.Table] {
		handlers = append(handlers, fn)
	}
	for _, fn := range b.subs[AllTables] {
		handlers = append(handlers, fn)
	}
	b.mu.RUnlock()

	for _, fn := range handlers {
		b.invoke(ctx, fn, event)
	}
}

func (b *MemoryBus) invoke(ctx context.Context, fn Handler, event Event) {
	defer func() {
		if r := recover(); r != nil && b.logger != nil {
			b.logger.ErrorContext(ctx, "change handler panicked",
				"table", string(event.Table),
				"record_id", event.RecordID,
				"panic", r,
			)
		}
	}()
	fn(event)
}

// Subscribers reports how many handlers are registered for table.
func (b *MemoryBus) Subscribers(table Table) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[table])
}
