package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"govportal/internal/uploads/models"
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

const uploadColumns = `id, application_id, document_type, file_name, payload, size_bytes, mime_type,
	status, COALESCE(rejection_reason, ''), COALESCE(verifier_id, ''), verified_at, uploaded_at`

// CreateBatch inserts inside the caller's transaction when one is on ctx.
func (s *PostgresStore) CreateBatch(ctx context.Context, uploads []*models.Upload) error {
	query := `
		INSERT INTO uploaded_documents (id, application_id, document_type, file_name, payload,
			size_bytes, mime_type, status, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	exec := s.execer(ctx)
	for _, u := range uploads {
		_, err := exec.ExecContext(ctx, query,
			u.ID.String(),
			u.ApplicationID.String(),
			u.DocumentType,
			u.FileName,
			u.Payload,
			u.SizeBytes,
			u.MimeType,
			string(u.Status),
			u.UploadedAt,
		)
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == "23505" {
				return fmt.Errorf("insert upload: %w", sentinel.ErrConflict)
			}
			return fmt.Errorf("insert upload: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, uploadID id.UploadID) (*models.Upload, error) {
	query := `SELECT ` + uploadColumns + ` FROM uploaded_documents WHERE id = $1`
	u, err := scanUpload(s.execer(ctx).QueryRowContext(ctx, query, uploadID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find upload: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) ListByApplication(ctx context.Context, appID id.ApplicationID) ([]*models.Upload, error) {
	query := `SELECT ` + uploadColumns + ` FROM uploaded_documents WHERE application_id = $1 ORDER BY uploaded_at, document_type`
	rows, err := s.execer(ctx).QueryContext(ctx, query, appID.String())
	if err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	defer rows.Close()

	var out []*models.Upload
	for rows.Next() {
		u, err := scanUpload(rows)
		if err != nil {
			return nil, fmt.Errorf("list uploads: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) SetStatus(ctx context.Context, uploadID id.UploadID, d models.Decision) (*models.Upload, error) {
	query := `
		UPDATE uploaded_documents
		SET status = $2, verifier_id = $3, verified_at = $4, rejection_reason = NULLIF($5, '')
		WHERE id = $1
		RETURNING ` + uploadColumns
	reason := ""
	if d.Status == models.StatusRejected {
		reason = d.Reason
	}
	u, err := scanUpload(s.execer(ctx).QueryRowContext(ctx, query,
		uploadID.String(), string(d.Status), string(d.VerifierID), d.At, reason))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("set upload status: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) CountUnresolved(ctx context.Context, appID id.ApplicationID) (int, error) {
	query := `SELECT COUNT(*) FROM uploaded_documents WHERE application_id = $1 AND status <> 'verified'`
	var n int
	if err := s.execer(ctx).QueryRowContext(ctx, query, appID.String()).Scan(&n); err != nil {
		return 0, fmt.Errorf("count unresolved uploads: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUpload(row scanner) (*models.Upload, error) {
	var (
		u          models.Upload
		uploadID   string
		appID      string
		status     string
		verifierID string
		verifiedAt sql.NullTime
	)
	if err := row.Scan(&uploadID, &appID, &u.DocumentType, &u.FileName, &u.Payload, &u.SizeBytes,
		&u.MimeType, &status, &u.RejectionReason, &verifierID, &verifiedAt, &u.UploadedAt); err != nil {
		return nil, err
	}
	var err error
	if u.ID, err = id.ParseUploadID(uploadID); err != nil {
		return nil, fmt.Errorf("scan upload id: %w", err)
	}
	if u.ApplicationID, err = id.ParseApplicationID(appID); err != nil {
		return nil, fmt.Errorf("scan application id: %w", err)
	}
	u.Status = models.Status(status)
	u.VerifierID = id.UserID(verifierID)
	if verifiedAt.Valid {
		t := verifiedAt.Time
		u.VerifiedAt = &t
	}
	return &u, nil
}
