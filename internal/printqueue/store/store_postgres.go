package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"govportal/internal/printqueue/models"
	id "govportal/pkg/domain"
	"govportal/pkg/platform/sentinel"
	txcontext "govportal/pkg/platform/tx"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const itemColumns = `id, application_id, holder_id, holder_name, service_label, approved_at,
	print_status, printed_at, COALESCE(printed_by, ''), office_location, COALESCE(document_id, '')`

func (s *PostgresStore) Create(ctx context.Context, item *models.Item) error {
	query := `
		INSERT INTO print_queue (id, application_id, holder_id, holder_name, service_label,
			approved_at, print_status, office_location, document_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	var docID sql.NullString
	if item.DocumentID != nil {
		docID = sql.NullString{String: item.DocumentID.String(), Valid: true}
	}
	_, err := s.execer(ctx).ExecContext(ctx, query,
		item.ID.String(),
		item.ApplicationID.String(),
		string(item.HolderID),
		item.HolderName,
		item.ServiceLabel,
		item.ApprovedAt,
		string(item.Status),
		item.OfficeLocation,
		docID,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return fmt.Errorf("enqueue print item: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("enqueue print item: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, itemID id.QueueItemID) (*models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM print_queue WHERE id = $1`
	item, err := scanItem(s.execer(ctx).QueryRowContext(ctx, query, itemID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find print item: %w", err)
	}
	return item, nil
}

func (s *PostgresStore) List(ctx context.Context, status models.Status) ([]*models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM print_queue`
	var args []any
	if status != "" {
		query += ` WHERE print_status = $1`
		args = append(args, string(status))
	}
	query += ` ORDER BY approved_at`

	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list print queue: %w", err)
	}
	defer rows.Close()

	var out []*models.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("list print queue: %w", err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list print queue: %w", err)
	}
	return out, nil
}

// MarkPrintedIfPending is one conditional update, so overlapping bulk runs
// each only print what is still pending at their own write.
func (s *PostgresStore) MarkPrintedIfPending(ctx context.Context, itemID id.QueueItemID, operatorID id.UserID, at time.Time) (*models.Item, error) {
	query := `
		UPDATE print_queue
		SET print_status = 'printed', printed_at = $2, printed_by = $3
		WHERE id = $1 AND print_status = 'pending_print'
		RETURNING ` + itemColumns
	item, err := scanItem(s.execer(ctx).QueryRowContext(ctx, query, itemID.String(), at, string(operatorID)))
	if err == nil {
		return item, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("mark printed: %w", err)
	}
	if _, findErr := s.FindByID(ctx, itemID); findErr != nil {
		return nil, findErr
	}
	return nil, sentinel.ErrInvalidState
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(row scanner) (*models.Item, error) {
	var (
		item      models.Item
		itemID    string
		appID     string
		holder    string
		status    string
		printedAt sql.NullTime
		printedBy string
		docID     string
	)
	if err := row.Scan(&itemID, &appID, &holder, &item.HolderName, &item.ServiceLabel, &item.ApprovedAt,
		&status, &printedAt, &printedBy, &item.OfficeLocation, &docID); err != nil {
		return nil, err
	}
	var err error
	if item.ID, err = id.ParseQueueItemID(itemID); err != nil {
		return nil, fmt.Errorf("scan print item id: %w", err)
	}
	if item.ApplicationID, err = id.ParseApplicationID(appID); err != nil {
		return nil, fmt.Errorf("scan application id: %w", err)
	}
	if docID != "" {
		parsed, err := id.ParseDocumentID(docID)
		if err != nil {
			return nil, fmt.Errorf("scan document id: %w", err)
		}
		item.DocumentID = &parsed
	}
	item.HolderID = id.UserID(holder)
	item.Status = models.Status(status)
	item.PrintedBy = id.UserID(printedBy)
	if printedAt.Valid {
		t := printedAt.Time
		item.PrintedAt = &t
	}
	return &item, nil
}
