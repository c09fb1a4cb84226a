package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	appHandler "govportal/internal/applications/handler"
	appService "govportal/internal/applications/service"
	catalogHandler "govportal/internal/catalog/handler"
	catalogService "govportal/internal/catalog/service"
	"govportal/internal/changefeed"
	docHandler "govportal/internal/documents/handler"
	docService "govportal/internal/documents/service"
	notifHandler "govportal/internal/notifications/handler"
	notifService "govportal/internal/notifications/service"
	"govportal/internal/platform/config"
	"govportal/internal/platform/httpserver"
	"govportal/internal/platform/logger"
	"govportal/internal/platform/metrics"
	pqHandler "govportal/internal/printqueue/handler"
	pqService "govportal/internal/printqueue/service"
	httptransport "govportal/internal/transport/http"
	uploadHandler "govportal/internal/uploads/handler"
	uploadService "govportal/internal/uploads/service"
	validationMetrics "govportal/internal/validation/metrics"
	validationService "govportal/internal/validation/service"
	"govportal/pkg/platform/audit/publisher"
	"govportal/pkg/platform/circuit"
)

const auditBufferSize = 256

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	st, err := openStores(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer st.Close()

	feed, err := openChangeFeed(ctx, cfg, log, m)
	if err != nil {
		return err
	}
	defer feed.Close()

	auditPublisher := publisher.NewPublisher(st.audit,
		publisher.WithLogger(log),
		publisher.WithAsyncBuffer(auditBufferSize),
	)
	defer auditPublisher.Close()

	catalog, err := catalogService.New(st.catalog)
	if err != nil {
		return err
	}
	notifications, err := notifService.New(st.notifications,
		notifService.WithLogger(log),
		notifService.WithMetrics(m),
		notifService.WithChangePublisher(feed.publisher),
	)
	if err != nil {
		return err
	}
	documents, err := docService.New(st.documents,
		docService.WithLogger(log),
		docService.WithMetrics(m),
		docService.WithAuditPublisher(auditPublisher),
		docService.WithChangePublisher(feed.publisher),
		docService.WithVerifyBaseURL(cfg.VerifyBaseURL),
	)
	if err != nil {
		return err
	}
	uploads, err := uploadService.New(st.uploads, st.runner, st.appLock,
		uploadService.WithLogger(log),
		uploadService.WithMetrics(m),
		uploadService.WithAuditPublisher(auditPublisher),
		uploadService.WithChangePublisher(feed.publisher),
	)
	if err != nil {
		return err
	}
	printQueue, err := pqService.New(st.printQueue,
		pqService.WithLogger(log),
		pqService.WithMetrics(m),
		pqService.WithNotifier(notifications),
		pqService.WithAuditPublisher(auditPublisher),
		pqService.WithChangePublisher(feed.publisher),
		pqService.WithBulkConcurrency(cfg.PrintBulkConcurrency),
	)
	if err != nil {
		return err
	}

	strategies := []validationService.Strategy{validationService.NewStoreStrategy(documents)}
	if cfg.Eligibility.URL != "" {
		strategies = append(strategies, validationService.NewRemoteStrategy(cfg.Eligibility.URL, cfg.Eligibility.Timeout))
	}
	validator, err := validationService.New(strategies,
		validationService.WithLogger(log),
		validationService.WithMetrics(validationMetrics.New()),
		validationService.WithBreakerOptions(circuit.WithCooldown(cfg.Eligibility.RetryAfter)),
	)
	if err != nil {
		return err
	}

	applications, err := appService.New(st.applications, st.runner, appService.Collaborators{
		Validator:  validator,
		Catalog:    catalog,
		Uploads:    uploads,
		Documents:  documents,
		PrintQueue: printQueue,
		Notifier:   notifications,
	},
		appService.WithLogger(log),
		appService.WithMetrics(m),
		appService.WithAuditPublisher(auditPublisher),
		appService.WithChangePublisher(feed.publisher),
		appService.WithOfficeLocation(cfg.OfficeLocation),
	)
	if err != nil {
		return err
	}

	apps := appHandler.New(applications, log)
	docs := docHandler.New(documents, log)
	changes := changefeed.NewWebSocketHandler(feed.subscriber, log)
	router := httptransport.NewRouter(httptransport.Routes{
		Public: []httptransport.Registrar{
			catalogHandler.New(catalog, log),
			httptransport.RegisterFunc(docs.RegisterPublic),
		},
		Holder: []httptransport.Registrar{
			apps,
			docs,
			notifHandler.New(notifications, log),
		},
		Admin: []httptransport.Registrar{
			httptransport.RegisterFunc(apps.RegisterAdmin),
			uploadHandler.New(uploads, log),
			pqHandler.New(printQueue, log),
		},
		Changes: changes,
		Health:  feed.healthChecks(st),
	}, cfg.AdminAPIToken, log)

	srv := httpserver.New(cfg.Addr, router)
	serveErr := make(chan error, 1)
	go func() {
		log.InfoContext(ctx, "starting govportal", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down", "grace", cfg.ShutdownPeriod)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownPeriod)
	defer cancel()
	changes.CloseAll()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
