package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"govportal/internal/documents/models"
	id "govportal/pkg/domain"
	"govportal/pkg/platform/sentinel"
	txcontext "govportal/pkg/platform/tx"
)

// PostgresStore persists documents. The partial unique index on
// (holder_id, document_type) WHERE status = 'active' backs CreateActive when
// two issues for the same holder race.
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

const documentColumns = `id, holder_id, document_type, document_number, issue_date,
	expiry_date, status, verification_code, COALESCE(application_id, ''), created_at`

const uniqueViolation = "23505"

// CreateActive cancels the holder's active document of the same type and
// inserts doc in one transaction, joining the caller's when ctx carries one.
// A failed insert rolls the cancellation back.
func (s *PostgresStore) CreateActive(ctx context.Context, doc *models.Document) (int64, error) {
	if tx, ok := txcontext.From(ctx); ok {
		return createActive(ctx, tx, doc)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin create document: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()
	superseded, err := createActive(ctx, tx, doc)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit create document: %w", err)
	}
	return superseded, nil
}

func createActive(ctx context.Context, exec dbExecutor, doc *models.Document) (int64, error) {
	cancel := `
		UPDATE documents
		SET status = 'cancelled'
		WHERE holder_id = $1 AND document_type = $2 AND status = 'active'
	`
	result, err := exec.ExecContext(ctx, cancel, string(doc.HolderID), string(doc.Type))
	if err != nil {
		return 0, fmt.Errorf("cancel active documents: %w", err)
	}
	superseded, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("cancel active documents rows affected: %w", err)
	}

	insert := `
		INSERT INTO documents (id, holder_id, document_type, document_number, issue_date,
			expiry_date, status, verification_code, application_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	var appID sql.NullString
	if !doc.ApplicationID.IsNil() {
		appID = sql.NullString{String: doc.ApplicationID.String(), Valid: true}
	}
	_, err = exec.ExecContext(ctx, insert,
		doc.ID.String(),
		string(doc.HolderID),
		string(doc.Type),
		doc.Number,
		doc.IssueDate,
		doc.ExpiryDate,
		string(doc.Status),
		doc.VerificationCode,
		appID,
		doc.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return 0, fmt.Errorf("create document: %w", sentinel.ErrConflict)
		}
		return 0, fmt.Errorf("create document: %w", err)
	}
	return superseded, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, docID id.DocumentID) (*models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	return s.findOne(ctx, "find document", query, docID.String())
}

func (s *PostgresStore) FindLatestActive(ctx context.Context, holderID id.UserID, docType models.Type) (*models.Document, error) {
	query := `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE holder_id = $1 AND document_type = $2 AND status = 'active'
		ORDER BY issue_date DESC
		LIMIT 1
	`
	return s.findOne(ctx, "find latest active document", query, string(holderID), string(docType))
}

func (s *PostgresStore) FindByVerificationCode(ctx context.Context, code string) (*models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE verification_code = $1`
	return s.findOne(ctx, "find document by code", query, code)
}

func (s *PostgresStore) ListByHolder(ctx context.Context, holderID id.UserID) ([]*models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE holder_id = $1 ORDER BY issue_date DESC`
	rows, err := s.execer(ctx).QueryContext(ctx, query, string(holderID))
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []*models.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("list documents: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

func (s *PostgresStore) findOne(ctx context.Context, op, query string, args ...any) (*models.Document, error) {
	doc, err := scanDocument(s.execer(ctx).QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return doc, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (*models.Document, error) {
	var (
		doc    models.Document
		docID  string
		holder string
		typ    string
		status string
		appID  string
		expiry sql.NullTime
	)
	if err := row.Scan(&docID, &holder, &typ, &doc.Number, &doc.IssueDate,
		&expiry, &status, &doc.VerificationCode, &appID, &doc.CreatedAt); err != nil {
		return nil, err
	}
	parsedID, err := id.ParseDocumentID(docID)
	if err != nil {
		return nil, fmt.Errorf("scan document id: %w", err)
	}
	doc.ID = parsedID
	if appID != "" {
		parsedApp, err := id.ParseApplicationID(appID)
		if err != nil {
			return nil, fmt.Errorf("scan application id: %w", err)
		}
		doc.ApplicationID = parsedApp
	}
	doc.HolderID = id.UserID(holder)
	doc.Type = models.Type(typ)
	doc.Status = models.Status(status)
	if expiry.Valid {
		t := expiry.Time
		doc.ExpiryDate = &t
	}
	return &doc, nil
}
