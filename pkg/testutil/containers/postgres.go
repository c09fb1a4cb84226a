//go:build integration

package containers

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	pgplatform "govportal/internal/platform/postgres"
)

// PostgresContainer is a migrated database for store integration suites.
type PostgresContainer struct {
	Container *postgres.PostgresContainer
	DSN       string
	DB        *sql.DB
}

// NewPostgresContainer starts postgres and applies the repository migrations.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()
	ctx := context.Background()

	c, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("govportal"),
		postgres.WithUsername("portal"),
		postgres.WithPassword("portal"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := c.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = c.Terminate(ctx)
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	if err := pgplatform.Migrate(dsn, migrationsDir(t)); err != nil {
		_ = c.Terminate(ctx)
		t.Fatalf("failed to migrate: %v", err)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		_ = c.Terminate(ctx)
		t.Fatalf("failed to open db: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Close()
		_ = c.Terminate(context.Background())
	})
	return &PostgresContainer{Container: c, DSN: dsn, DB: db}
}

// Truncate clears workflow tables between tests. Catalog seed rows are kept.
func (p *PostgresContainer) Truncate(ctx context.Context) error {
	_, err := p.DB.ExecContext(ctx, `
		TRUNCATE documents, applications, uploaded_documents,
		         print_queue, notifications, audit_events`)
	return err
}

// migrationsDir walks up from the test's working directory to the module root.
func migrationsDir(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return filepath.Join(dir, "migrations")
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatalf("module root not found")
		}
		dir = parent
	}
}
