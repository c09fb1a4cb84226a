package store

import (
	"context"
	"database/sql"
	"fmt"

	"govportal/internal/notifications/models"
	id "govportal/pkg/domain"
	"govportal/pkg/platform/sentinel"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Create runs outside any workflow transaction; a notification is never part
// of the step it reports on.
func (s *PostgresStore) Create(ctx context.Context, n *models.Notification) error {
	query := `
		INSERT INTO notifications (id, holder_id, title, body, severity, created_at, is_read)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		n.ID.String(), string(n.HolderID), n.Title, n.Body, string(n.Severity), n.CreatedAt, n.Read)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByHolder(ctx context.Context, holderID id.UserID, limit int) ([]*models.Notification, error) {
	query := `
		SELECT id, COALESCE(holder_id, ''), title, body, severity, created_at, is_read
		FROM notifications
		WHERE holder_id = $1 OR holder_id IS NULL
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, query, string(holderID), limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []*models.Notification
	for rows.Next() {
		var (
			n        models.Notification
			rawID    string
			holder   string
			severity string
		)
		if err := rows.Scan(&rawID, &holder, &n.Title, &n.Body, &severity, &n.CreatedAt, &n.Read); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		if n.ID, err = id.ParseNotificationID(rawID); err != nil {
			return nil, fmt.Errorf("scan notification id: %w", err)
		}
		n.HolderID = id.UserID(holder)
		n.Severity = models.Severity(severity)
		out = append(out, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) MarkRead(ctx context.Context, notificationID id.NotificationID, holderID id.UserID) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE id = $1 AND holder_id = $2`,
		notificationID.String(), string(holderID))
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark notification read rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
