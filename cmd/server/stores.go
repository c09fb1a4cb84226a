package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	appService "govportal/internal/applications/service"
	appStore "govportal/internal/applications/store"
	catalogModels "govportal/internal/catalog/models"
	catalogService "govportal/internal/catalog/service"
	catalogStore "govportal/internal/catalog/store"
	docService "govportal/internal/documents/service"
	docStore "govportal/internal/documents/store"
	notifService "govportal/internal/notifications/service"
	notifStore "govportal/internal/notifications/store"
	"govportal/internal/platform/config"
	"govportal/internal/platform/postgres"
	pqService "govportal/internal/printqueue/service"
	pqStore "govportal/internal/printqueue/store"
	uploadService "govportal/internal/uploads/service"
	uploadStore "govportal/internal/uploads/store"
	audit "govportal/pkg/platform/audit"
	auditmemory "govportal/pkg/platform/audit/store/memory"
	auditpostgres "govportal/pkg/platform/audit/store/postgres"
	"govportal/pkg/platform/tx"
)

// stores holds every persistence dependency. db is nil in memory mode.
type stores struct {
	db            *sql.DB
	runner        tx.Runner
	catalog       catalogService.Store
	applications  appService.Store
	appLock       uploadService.ApplicationLock
	uploads       uploadService.Store
	documents     docService.Store
	printQueue    pqService.Store
	notifications notifService.Store
	audit         audit.Store
}

// openStores picks PostgreSQL when DATABASE_URL is set and applies pending
// migrations; otherwise everything lives in process memory with the default
// catalog seeded.
func openStores(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*stores, error) {
	if cfg.URL == "" {
		logger.WarnContext(ctx, "DATABASE_URL not set, using in-memory stores")
		apps := appStore.NewInMemory()
		return &stores{
			runner:        tx.NewMemoryRunner(),
			catalog:       catalogStore.NewInMemory(catalogModels.DefaultServices()...),
			applications:  apps,
			appLock:       apps,
			uploads:       uploadStore.NewInMemory(),
			documents:     docStore.NewInMemory(),
			printQueue:    pqStore.NewInMemory(),
			notifications: notifStore.NewInMemory(),
			audit:         auditmemory.NewInMemoryStore(),
		}, nil
	}

	db, err := postgres.Open(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := postgres.Migrate(cfg.URL, cfg.MigrationsPath); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	logger.InfoContext(ctx, "postgres stores ready", "migrations", cfg.MigrationsPath)

	apps := appStore.NewPostgres(db)
	return &stores{
		db:            db,
		runner:        tx.NewPostgresRunner(db),
		catalog:       catalogStore.NewPostgres(db),
		applications:  apps,
		appLock:       apps,
		uploads:       uploadStore.NewPostgres(db),
		documents:     docStore.NewPostgres(db),
		printQueue:    pqStore.NewPostgres(db),
		notifications: notifStore.NewPostgres(db),
		audit:         auditpostgres.New(db),
	}, nil
}

func (s *stores) health(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	return s.db.PingContext(ctx)
}

func (s *stores) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
