// Package service is the notification dispatcher. Sending is best effort: a
// failure is logged and counted but never undoes the step that triggered it.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"govportal/internal/changefeed"
	"govportal/internal/notifications/models"
	"govportal/internal/platform/metrics"
	id "govportal/pkg/domain"
	dErrors "govportal/pkg/domain-errors"
	"govportal/pkg/platform/sentinel"
	"govportal/pkg/requestcontext"
)

type Store interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByHolder(ctx context.Context, holderID id.UserID, limit int) ([]*models.Notification, error)
	MarkRead(ctx context.Context, notificationID id.NotificationID, holderID id.UserID) error
}

type ChangePublisher interface {
	Publish(ctx context.Context, event changefeed.Event)
}

const defaultInboxLimit = 100

type Service struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics
	changes ChangePublisher
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithChangePublisher(p ChangePublisher) Option {
	return func(s *Service) { s.changes = p }
}

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("notification store is required")
	}
	s := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Send stores a notification. The returned error lets callers report a
// warning; it has already been logged.
func (s *Service) Send(ctx context.Context, holderID id.UserID, title, body string, severity models.Severity) error {
	if !severity.IsValid() {
		severity = models.SeverityInfo
	}
	n := &models.Notification{
		ID:        id.NewNotificationID(),
		HolderID:  holderID,
		Title:     strings.TrimSpace(title),
		Body:      strings.TrimSpace(body),
		Severity:  severity,
		CreatedAt: requestcontext.Now(ctx),
	}
	if err := s.store.Create(ctx, n); err != nil {
		s.metrics.IncNotificationFailure()
		s.logger.WarnContext(ctx, "failed to send notification",
			"holder_id", string(holderID),
			"title", n.Title,
			"severity", string(severity),
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to send notification")
	}
	if s.changes != nil {
		s.changes.Publish(ctx, changefeed.Event{Table: changefeed.TableNotifications, Op: changefeed.OpInsert, RecordID: n.ID.String()})
	}
	return nil
}

func (s *Service) ListForHolder(ctx context.Context, holderID id.UserID) ([]*models.Notification, error) {
	if holderID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "holder id is required")
	}
	list, err := s.store.ListByHolder(ctx, holderID, defaultInboxLimit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list notifications")
	}
	return list, nil
}

func (s *Service) MarkRead(ctx context.Context, notificationID id.NotificationID, holderID id.UserID) error {
	if err := s.store.MarkRead(ctx, notificationID, holderID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "notification not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update notification")
	}
	if s.changes != nil {
		s.changes.Publish(ctx, changefeed.Event{Table: changefeed.TableNotifications, Op: changefeed.OpUpdate, RecordID: notificationID.String()})
	}
	return nil
}
