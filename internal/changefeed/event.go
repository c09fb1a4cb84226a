// Package changefeed carries row-level change notifications from the workflow
// services to live subscribers: the admin WebSocket stream, other instances via
// Redis and an optional Kafka topic. Nothing in the workflow depends on delivery.
package changefeed

import (
	"context"
	"time"
)

// Table names the record set that changed.
type Table string

const (
	TableDocuments     Table = "documents"
	TableApplications  Table = "applications"
	TableUploads       Table = "uploaded_documents"
	TablePrintQueue    Table = "print_queue"
	TableNotifications Table = "notifications"

	// AllTables subscribes to every table.
	AllTables Table = "*"
)

type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
)

// Event is published after a mutation commits.
type Event struct {
	Table    Table     `json:"table"`
	Op       Op        `json:"op"`
	RecordID string    `json:"record_id"`
	At       time.Time `json:"at"`
}

// Handler receives events. Handlers run on the publisher's goroutine and must
// not block.
type Handler func(Event)

// Publisher is what the workflow services depend on.
type Publisher interface {
	Publish(ctx context.Context, event Event)
}

// Fanout publishes to each publisher in order.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, event Event) {
	for _, p := range f {
		if p != nil {
			p.Publish(ctx, event)
		}
	}
}
