package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"govportal/internal/catalog/models"
	docModels "govportal/internal/documents/models"
	id "govportal/pkg/domain"
	"govportal/pkg/platform/sentinel"
)

// PostgresStore reads the services and users tables. Both are maintained
// outside the workflow.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const serviceColumns = `id, name, document_type, required_documents, fee_cents, processing_days`

func (s *PostgresStore) FindService(ctx context.Context, serviceID id.ServiceID) (*models.Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services WHERE id = $1`
	svc, err := scanService(s.db.QueryRowContext(ctx, query, int(serviceID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("find service: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find service: %w", err)
	}
	return svc, nil
}

func (s *PostgresStore) ListServices(ctx context.Context) ([]models.Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services ORDER BY id`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	defer rows.Close()

	var out []models.Service
	for rows.Next() {
		svc, err := scanService(rows)
		if err != nil {
			return nil, fmt.Errorf("list services: %w", err)
		}
		out = append(out, *svc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) FindUser(ctx context.Context, userID id.UserID) (*models.User, error) {
	var user models.User
	var rawID string
	err := s.db.QueryRowContext(ctx, `SELECT id, display_name FROM users WHERE id = $1`, string(userID)).
		Scan(&rawID, &user.DisplayName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("find user: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	user.ID = id.UserID(rawID)
	return &user, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanService(row rowScanner) (*models.Service, error) {
	var svc models.Service
	var serviceID int
	var docType string
	var required pq.StringArray
	if err := row.Scan(&serviceID, &svc.Name, &docType, &required, &svc.FeeCents, &svc.ProcessingDays); err != nil {
		return nil, err
	}
	svc.ID = id.ServiceID(serviceID)
	svc.DocumentType = docModels.Type(docType)
	svc.RequiredDocuments = []string(required)
	return &svc, nil
}
