// Package postgres keeps the workflow audit trail in the audit_events table.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	id "govportal/pkg/domain"
	audit "govportal/pkg/platform/audit"
	txcontext "govportal/pkg/platform/tx"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// conn is satisfied by *sql.DB and *sql.Tx.
type conn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// conn joins the caller's transaction so an approval and its audit row commit
// together.
func (s *Store) conn(ctx context.Context) conn {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const insertEvent = `
	INSERT INTO audit_events (
		id, category, timestamp, user_id, subject, action,
		reason, actor_id, request_id, client_ip
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
`

// Append inserts an event. The category is always derived from the action.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	holder := sql.NullString{String: event.UserID.String(), Valid: !event.UserID.IsNil()}
	_, err := s.conn(ctx).ExecContext(ctx, insertEvent,
		uuid.New(),
		string(audit.AuditEvent(event.Action).Category()),
		event.Timestamp,
		holder,
		event.Subject,
		event.Action,
		event.Reason,
		event.ActorID,
		event.RequestID,
		event.ClientIP,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

const selectEvents = `
	SELECT category, timestamp, COALESCE(user_id, ''), subject, action,
	       reason, actor_id, request_id, client_ip
	FROM audit_events
`

// ListByUser returns a holder's trail oldest first.
func (s *Store) ListByUser(ctx context.Context, userID id.UserID) ([]audit.Event, error) {
	return s.list(ctx, "user", `WHERE user_id = $1 ORDER BY timestamp`, userID.String())
}

// ListBySubject returns the trail of one record (application, upload, queue
// item) oldest first.
func (s *Store) ListBySubject(ctx context.Context, subject string) ([]audit.Event, error) {
	return s.list(ctx, "subject", `WHERE subject = $1 ORDER BY timestamp`, subject)
}

func (s *Store) list(ctx context.Context, by, where string, arg string) ([]audit.Event, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, selectEvents+where, arg)
	if err != nil {
		return nil, fmt.Errorf("query audit events by %s: %w", by, err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var (
			event    audit.Event
			category string
			holder   string
		)
		if err := rows.Scan(&category, &event.Timestamp, &holder, &event.Subject, &event.Action,
			&event.Reason, &event.ActorID, &event.RequestID, &event.ClientIP); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Category = audit.EventCategory(category)
		event.UserID = id.UserID(holder)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
