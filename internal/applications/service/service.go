// Package service is the application state machine. It gates submissions on
// the validation engine, holds applications in Pending until review, and fans
// an approval out into document issuance, print queueing and notification.
package service

import (
	"context"
	"errors"
	"log/slog"

	appModels "govportal/internal/applications/models"
	catalogModels "govportal/internal/catalog/models"
	"govportal/internal/changefeed"
	docModels "govportal/internal/documents/models"
	docService "govportal/internal/documents/service"
	notifModels "govportal/internal/notifications/models"
	"govportal/internal/platform/metrics"
	pqModels "govportal/internal/printqueue/models"
	pqService "govportal/internal/printqueue/service"
	uploadModels "govportal/internal/uploads/models"
	validationModels "govportal/internal/validation/models"
	id "govportal/pkg/domain"
	dErrors "govportal/pkg/domain-errors"
	"govportal/pkg/platform/audit"
	"govportal/pkg/platform/sentinel"
	"govportal/pkg/platform/tx"
)

const defaultOfficeLocation = "Central Civil Registry Office"

type Store interface {
	Create(ctx context.Context, app *appModels.Application) error
	FindByID(ctx context.Context, appID id.ApplicationID) (*appModels.Application, error)
	// LockForReview reads the application and, inside a transaction, holds
	// its row until commit.
	LockForReview(ctx context.Context, appID id.ApplicationID) (*appModels.Application, error)
	ListByHolder(ctx context.Context, holderID id.UserID) ([]*appModels.Application, error)
	ListByStatus(ctx context.Context, status appModels.Status) ([]*appModels.Application, error)
	DecideIfPending(ctx context.Context, appID id.ApplicationID, review appModels.Review) (*appModels.Application, error)
}

type Validator interface {
	Validate(ctx context.Context, req validationModels.Request) validationModels.Result
}

type Catalog interface {
	FindService(ctx context.Context, serviceID id.ServiceID) (*catalogModels.Service, error)
	DisplayName(ctx context.Context, userID id.UserID) (string, error)
}

type UploadGate interface {
	Attach(ctx context.Context, uploads []*uploadModels.Upload) error
	Announce(ctx context.Context, uploads []*uploadModels.Upload)
	IsApprovable(ctx context.Context, appID id.ApplicationID) (bool, error)
}

type DocumentRegistry interface {
	Issue(ctx context.Context, req docService.IssueRequest) (*docModels.Document, error)
}

type PrintQueue interface {
	Enqueue(ctx context.Context, req pqService.EnqueueRequest) (*pqModels.Item, error)
}

type Notifier interface {
	Send(ctx context.Context, holderID id.UserID, title, body string, severity notifModels.Severity) error
}

type AuditPublisher = audit.Emitter

type ChangePublisher interface {
	Publish(ctx context.Context, event changefeed.Event)
}

// Collaborators are the components the state machine drives. All are required.
type Collaborators struct {
	Validator  Validator
	Catalog    Catalog
	Uploads    UploadGate
	Documents  DocumentRegistry
	PrintQueue PrintQueue
	Notifier   Notifier
}

func (c Collaborators) check() error {
	switch {
	case c.Validator == nil:
		return errors.New("validator is required")
	case c.Catalog == nil:
		return errors.New("catalog is required")
	case c.Uploads == nil:
		return errors.New("upload gate is required")
	case c.Documents == nil:
		return errors.New("document registry is required")
	case c.PrintQueue == nil:
		return errors.New("print queue is required")
	case c.Notifier == nil:
		return errors.New("notifier is required")
	}
	return nil
}

type Service struct {
	store          Store
	runner         tx.Runner
	validator      Validator
	catalog        Catalog
	uploads        UploadGate
	documents      DocumentRegistry
	printQueue     PrintQueue
	notifier       Notifier
	logger         *slog.Logger
	metrics        *metrics.Metrics
	auditPublisher AuditPublisher
	changes        ChangePublisher
	officeLocation string
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Service) { s.auditPublisher = p }
}

func WithChangePublisher(p ChangePublisher) Option {
	return func(s *Service) { s.changes = p }
}

// WithOfficeLocation sets the pickup office for submissions that name none.
func WithOfficeLocation(office string) Option {
	return func(s *Service) {
		if office != "" {
			s.officeLocation = office
		}
	}
}

func New(store Store, runner tx.Runner, deps Collaborators, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("application store is required")
	}
	if runner == nil {
		return nil, errors.New("transaction runner is required")
	}
	if err := deps.check(); err != nil {
		return nil, err
	}
	s := &Service{
		store:          store,
		runner:         runner,
		validator:      deps.Validator,
		catalog:        deps.Catalog,
		uploads:        deps.Uploads,
		documents:      deps.Documents,
		printQueue:     deps.PrintQueue,
		notifier:       deps.Notifier,
		logger:         slog.Default(),
		officeLocation: defaultOfficeLocation,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Validate runs the eligibility check without side effects.
func (s *Service) Validate(ctx context.Context, req validationModels.Request) validationModels.Result {
	return s.validator.Validate(ctx, req)
}

func (s *Service) Get(ctx context.Context, appID id.ApplicationID) (*appModels.Application, error) {
	app, err := s.store.FindByID(ctx, appID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "application not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load application")
	}
	return app, nil
}

// GetForHolder hides other holders' applications behind not_found.
func (s *Service) GetForHolder(ctx context.Context, appID id.ApplicationID, holderID id.UserID) (*appModels.Application, error) {
	app, err := s.Get(ctx, appID)
	if err != nil {
		return nil, err
	}
	if app.HolderID != holderID {
		return nil, dErrors.New(dErrors.CodeNotFound, "application not found")
	}
	return app, nil
}

func (s *Service) ListForHolder(ctx context.Context, holderID id.UserID) ([]*appModels.Application, error) {
	if holderID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "holder id is required")
	}
	apps, err := s.store.ListByHolder(ctx, holderID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list applications")
	}
	return apps, nil
}

func (s *Service) ListByStatus(ctx context.Context, status appModels.Status) ([]*appModels.Application, error) {
	if status != "" && !status.IsValid() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "status must be Pending, Approved or Rejected")
	}
	apps, err := s.store.ListByStatus(ctx, status)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list applications")
	}
	return apps, nil
}

// serviceLabel is the citizen-facing name of the service, falling back to the
// document type name when the catalog entry is unavailable.
func serviceLabel(svc *catalogModels.Service, docType docModels.Type) string {
	if svc != nil && svc.Name != "" {
		return svc.Name
	}
	return docType.DisplayName()
}

func (s *Service) publish(ctx context.Context, op changefeed.Op, appID id.ApplicationID) {
	if s.changes != nil {
		s.changes.Publish(ctx, changefeed.Event{Table: changefeed.TableApplications, Op: op, RecordID: appID.String()})
	}
}

func (s *Service) logAudit(ctx context.Context, event string, attributes ...any) {
	audit.Record(ctx, s.logger, s.auditPublisher, event, attributes...)
}
