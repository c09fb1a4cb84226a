package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"govportal/internal/applications/models"
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

const applicationColumns = `id, holder_id, service_id, status, submitted_at, reviewed_at,
	COALESCE(reviewer_id, ''), COALESCE(rejection_reason, ''), is_replacement,
	COALESCE(replacement_reason, ''), office_location, required_documents`

// Create joins the submission transaction when one is on ctx.
func (s *PostgresStore) Create(ctx context.Context, app *models.Application) error {
	query := `
		INSERT INTO applications (id, holder_id, service_id, status, submitted_at, is_replacement,
			replacement_reason, office_location, required_documents)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8, $9)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		app.ID.String(),
		string(app.HolderID),
		int(app.ServiceID),
		string(app.Status),
		app.SubmittedAt,
		app.IsReplacement,
		app.ReplacementReason,
		app.OfficeLocation,
		pq.Array(app.RequiredDocuments),
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return fmt.Errorf("create application: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("create application: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, appID id.ApplicationID) (*models.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE id = $1`
	app, err := scanApplication(s.execer(ctx).QueryRowContext(ctx, query, appID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find application: %w", err)
	}
	return app, nil
}

// LockForReview reads the application with FOR UPDATE. Inside a transaction
// the row stays locked until commit, so upload decisions waiting on
// LockPending cannot interleave with the approval gate check.
func (s *PostgresStore) LockForReview(ctx context.Context, appID id.ApplicationID) (*models.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE id = $1 FOR UPDATE`
	app, err := scanApplication(s.execer(ctx).QueryRowContext(ctx, query, appID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("lock application: %w", err)
	}
	return app, nil
}

// LockPending takes a shared lock on the application row and reports whether
// it is still Pending. A concurrent review holding the row blocks this call
// until it commits, after which the decided status is seen.
func (s *PostgresStore) LockPending(ctx context.Context, appID id.ApplicationID) (bool, error) {
	query := `SELECT status FROM applications WHERE id = $1 FOR SHARE`
	var status string
	if err := s.execer(ctx).QueryRowContext(ctx, query, appID.String()).Scan(&status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, sentinel.ErrNotFound
		}
		return false, fmt.Errorf("lock application status: %w", err)
	}
	return models.Status(status) == models.StatusPending, nil
}

func (s *PostgresStore) ListByHolder(ctx context.Context, holderID id.UserID) ([]*models.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE holder_id = $1 ORDER BY submitted_at DESC, id DESC`
	return s.list(ctx, query, string(holderID))
}

func (s *PostgresStore) ListByStatus(ctx context.Context, status models.Status) ([]*models.Application, error) {
	if status == "" {
		return s.list(ctx, `SELECT `+applicationColumns+` FROM applications ORDER BY submitted_at, id`)
	}
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE status = $1 ORDER BY submitted_at, id`
	return s.list(ctx, query, string(status))
}

// DecideIfPending is one conditional update, so two reviewers racing on the
// same application cannot both win.
func (s *PostgresStore) DecideIfPending(ctx context.Context, appID id.ApplicationID, review models.Review) (*models.Application, error) {
	query := `
		UPDATE applications
		SET status = $2, reviewed_at = $3, reviewer_id = $4, rejection_reason = NULLIF($5, '')
		WHERE id = $1 AND status = 'Pending'
		RETURNING ` + applicationColumns
	app, err := scanApplication(s.execer(ctx).QueryRowContext(ctx, query,
		appID.String(),
		string(review.Status),
		review.At,
		string(review.ReviewerID),
		review.Reason,
	))
	if err == nil {
		return app, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("decide application: %w", err)
	}
	if _, findErr := s.FindByID(ctx, appID); findErr != nil {
		return nil, findErr
	}
	return nil, sentinel.ErrInvalidState
}

func (s *PostgresStore) list(ctx context.Context, query string, args ...any) ([]*models.Application, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()

	var out []*models.Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("list applications: %w", err)
		}
		out = append(out, app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanApplication(row scanner) (*models.Application, error) {
	var (
		app        models.Application
		appID      string
		holder     string
		serviceID  int
		status     string
		reviewedAt sql.NullTime
		reviewer   string
		manifest   pq.StringArray
	)
	if err := row.Scan(&appID, &holder, &serviceID, &status, &app.SubmittedAt, &reviewedAt,
		&reviewer, &app.RejectionReason, &app.IsReplacement, &app.ReplacementReason,
		&app.OfficeLocation, &manifest); err != nil {
		return nil, err
	}
	parsed, err := id.ParseApplicationID(appID)
	if err != nil {
		return nil, fmt.Errorf("scan application id: %w", err)
	}
	app.ID = parsed
	app.HolderID = id.UserID(holder)
	app.ServiceID = id.ServiceID(serviceID)
	app.Status = models.Status(status)
	app.ReviewerID = id.UserID(reviewer)
	app.RequiredDocuments = []string(manifest)
	if reviewedAt.Valid {
		t := reviewedAt.Time
		app.ReviewedAt = &t
	}
	return &app, nil
}
