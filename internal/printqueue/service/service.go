// Package service projects approved applications into printable work items
// and records the pending_print to printed transition.
package service

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"govportal/internal/changefeed"
	notifModels "govportal/internal/notifications/models"
	"govportal/internal/platform/metrics"
	"govportal/internal/printqueue/models"
	id "govportal/pkg/domain"
	dErrors "govportal/pkg/domain-errors"
	"govportal/pkg/platform/audit"
	"govportal/pkg/platform/sentinel"
	"govportal/pkg/requestcontext"
)

// ErrAlreadyPrinted is returned when a print is recorded twice. The stored
// item keeps its first printed_at and printed_by.
var ErrAlreadyPrinted = dErrors.New(dErrors.CodeConflict, "print item is already printed")

const defaultBulkConcurrency = 8

type Store interface {
	Create(ctx context.Context, item *models.Item) error
	FindByID(ctx context.Context, itemID id.QueueItemID) (*models.Item, error)
	List(ctx context.Context, status models.Status) ([]*models.Item, error)
	MarkPrintedIfPending(ctx context.Context, itemID id.QueueItemID, operatorID id.UserID, at time.Time) (*models.Item, error)
}

type Notifier interface {
	Send(ctx context.Context, holderID id.UserID, title, body string, severity notifModels.Severity) error
}

type AuditPublisher = audit.Emitter

type ChangePublisher interface {
	Publish(ctx context.Context, event changefeed.Event)
}

type Service struct {
	store           Store
	notifier        Notifier
	logger          *slog.Logger
	metrics         *metrics.Metrics
	auditPublisher  AuditPublisher
	changes         ChangePublisher
	bulkConcurrency int
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Service) { s.auditPublisher = p }
}

func WithChangePublisher(p ChangePublisher) Option {
	return func(s *Service) { s.changes = p }
}

// WithBulkConcurrency caps the in-flight updates of one bulk print.
func WithBulkConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.bulkConcurrency = n
		}
	}
}

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("print queue store is required")
	}
	s := &Service{
		store:           store,
		logger:          slog.Default(),
		bulkConcurrency: defaultBulkConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// EnqueueRequest is the approval snapshot an item is built from.
type EnqueueRequest struct {
	ApplicationID  id.ApplicationID
	HolderID       id.UserID
	HolderName     string
	ServiceLabel   string
	ApprovedAt     time.Time
	OfficeLocation string
	DocumentID     *id.DocumentID
}

// Enqueue creates the pending item for an approved application. A second
// enqueue for the same application is a conflict.
func (s *Service) Enqueue(ctx context.Context, req EnqueueRequest) (*models.Item, error) {
	if req.ApplicationID.IsNil() || req.HolderID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "application and holder are required")
	}
	item := &models.Item{
		ID:             id.NewQueueItemID(),
		ApplicationID:  req.ApplicationID,
		HolderID:       req.HolderID,
		HolderName:     req.HolderName,
		ServiceLabel:   req.ServiceLabel,
		ApprovedAt:     req.ApprovedAt,
		Status:         models.StatusPendingPrint,
		OfficeLocation: req.OfficeLocation,
		DocumentID:     req.DocumentID,
	}
	if item.ApprovedAt.IsZero() {
		item.ApprovedAt = requestcontext.Now(ctx)
	}
	if err := s.store.Create(ctx, item); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.Wrap(err, dErrors.CodeConflict, "application is already queued for print")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to enqueue print item")
	}
	s.publish(ctx, changefeed.OpInsert, item.ID)
	return item, nil
}

// List returns views computed at the request time, most pressing first and
// oldest first within a priority.
func (s *Service) List(ctx context.Context, status models.Status) ([]models.View, error) {
	if status != "" && !status.IsValid() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "status must be pending_print or printed")
	}
	items, err := s.store.List(ctx, status)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list print queue")
	}
	now := requestcontext.Now(ctx)
	views := make([]models.View, 0, len(items))
	for _, item := range items {
		views = append(views, models.NewView(*item, now))
	}
	slices.SortStableFunc(views, func(a, b models.View) int {
		if c := cmp.Compare(b.Priority.Rank(), a.Priority.Rank()); c != 0 {
			return c
		}
		return a.ApprovedAt.Compare(b.ApprovedAt)
	})
	return views, nil
}

func (s *Service) Get(ctx context.Context, itemID id.QueueItemID) (*models.View, error) {
	item, err := s.store.FindByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "print item not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load print item")
	}
	view := models.NewView(*item, requestcontext.Now(ctx))
	return &view, nil
}

// MarkPrinted records a print. Only a real transition notifies the holder.
func (s *Service) MarkPrinted(ctx context.Context, itemID id.QueueItemID, operatorID id.UserID) (*models.Item, error) {
	if operatorID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "operator id is required")
	}
	item, err := s.store.MarkPrintedIfPending(ctx, itemID, operatorID, requestcontext.Now(ctx))
	switch {
	case err == nil:
	case errors.Is(err, sentinel.ErrInvalidState):
		s.metrics.IncPrintTransition(string(OutcomeAlreadyPrinted))
		return nil, ErrAlreadyPrinted
	case errors.Is(err, sentinel.ErrNotFound):
		s.metrics.IncPrintTransition(string(OutcomeNotFound))
		return nil, dErrors.New(dErrors.CodeNotFound, "print item not found")
	default:
		s.metrics.IncPrintTransition(string(OutcomeFailed))
		s.logger.ErrorContext(ctx, "failed to mark print item printed",
			"queue_item_id", itemID.String(),
			"error", err,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to mark printed")
	}

	s.metrics.IncPrintTransition(string(OutcomePrinted))
	s.publish(ctx, changefeed.OpUpdate, item.ID)
	s.logAudit(ctx, string(audit.EventPrintCompleted),
		"user_id", item.HolderID.String(),
		"subject", item.ApplicationID.String(),
		"queue_item_id", item.ID.String(),
		"operator_id", operatorID.String(),
	)
	s.notifyPrinted(ctx, item)
	return item, nil
}

func (s *Service) notifyPrinted(ctx context.Context, item *models.Item) {
	if s.notifier == nil {
		return
	}
	body := fmt.Sprintf("Your %s has been printed and is ready for pickup at %s.", item.ServiceLabel, item.OfficeLocation)
	// Send logs its own failures; a print is never undone for a missed notice.
	_ = s.notifier.Send(ctx, item.HolderID, "Document ready for pickup", body, notifModels.SeverityInfo)
}

func (s *Service) publish(ctx context.Context, op changefeed.Op, itemID id.QueueItemID) {
	if s.changes != nil {
		s.changes.Publish(ctx, changefeed.Event{Table: changefeed.TablePrintQueue, Op: op, RecordID: itemID.String()})
	}
}

func (s *Service) logAudit(ctx context.Context, event string, attributes ...any) {
	audit.Record(ctx, s.logger, s.auditPublisher, event, attributes...)
}
