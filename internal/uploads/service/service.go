// Package service is the upload verification gate: admins verify or reject
// each evidence file, and an application is approvable only when all of its
// files are verified.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"govportal/internal/changefeed"
	"govportal/internal/platform/metrics"
	"govportal/internal/uploads/models"
	id "govportal/pkg/domain"
	dErrors "govportal/pkg/domain-errors"
	"govportal/pkg/platform/audit"
	"govportal/pkg/platform/sentinel"
	"govportal/pkg/platform/tx"
	"govportal/pkg/requestcontext"
)

type Store interface {
	CreateBatch(ctx context.Context, uploads []*models.Upload) error
	FindByID(ctx context.Context, uploadID id.UploadID) (*models.Upload, error)
	ListByApplication(ctx context.Context, appID id.ApplicationID) ([]*models.Upload, error)
	SetStatus(ctx context.Context, uploadID id.UploadID, d models.Decision) (*models.Upload, error)
	CountUnresolved(ctx context.Context, appID id.ApplicationID) (int, error)
}

// ApplicationLock guards decisions against a concurrent review of the parent
// application.
type ApplicationLock interface {
	// LockPending reports whether the application is still Pending and, inside
	// a transaction, keeps it from being reviewed until commit.
	LockPending(ctx context.Context, appID id.ApplicationID) (bool, error)
}

type AuditPublisher = audit.Emitter

type ChangePublisher interface {
	Publish(ctx context.Context, event changefeed.Event)
}

type Service struct {
	store          Store
	runner         tx.Runner
	applications   ApplicationLock
	logger         *slog.Logger
	metrics        *metrics.Metrics
	auditPublisher AuditPublisher
	changes        ChangePublisher
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

func New(store Store, runner tx.Runner, applications ApplicationLock, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("upload store is required")
	}
	if runner == nil {
		return nil, errors.New("transaction runner is required")
	}
	if applications == nil {
		return nil, errors.New("application lock is required")
	}
	s := &Service{store: store, runner: runner, applications: applications, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Attach stores a submission's uploads. Callers run it inside the
// submission transaction and call Announce once it has committed.
func (s *Service) Attach(ctx context.Context, uploads []*models.Upload) error {
	if len(uploads) == 0 {
		return nil
	}
	if err := s.store.CreateBatch(ctx, uploads); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store uploads")
	}
	return nil
}

// Announce publishes insert events for committed uploads.
func (s *Service) Announce(ctx context.Context, uploads []*models.Upload) {
	for _, u := range uploads {
		s.publish(ctx, changefeed.OpInsert, u.ID)
	}
}

func (s *Service) ListDocuments(ctx context.Context, appID id.ApplicationID) ([]*models.Upload, error) {
	uploads, err := s.store.ListByApplication(ctx, appID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list uploads")
	}
	return uploads, nil
}

func (s *Service) Verify(ctx context.Context, uploadID id.UploadID, verifierID id.UserID) (*models.Upload, error) {
	return s.SetStatus(ctx, uploadID, models.StatusVerified, verifierID, "")
}

func (s *Service) Reject(ctx context.Context, uploadID id.UploadID, verifierID id.UserID, reason string) (*models.Upload, error) {
	return s.SetStatus(ctx, uploadID, models.StatusRejected, verifierID, reason)
}

// SetStatus records an admin decision while the parent application is still
// Pending. The parent row is locked for the write, so a decision and an
// approval of the same application never interleave. A failed write never
// leaves the upload verified; the admin retries manually.
func (s *Service) SetStatus(ctx context.Context, uploadID id.UploadID, status models.Status, verifierID id.UserID, reason string) (*models.Upload, error) {
	reason = strings.TrimSpace(reason)
	if !status.IsDecision() {
		return nil, dErrors.New(dErrors.CodeValidation, "status must be verified or rejected")
	}
	if verifierID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "verifier id is required")
	}
	if status == models.StatusRejected && reason == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "a rejection reason is required")
	}

	decision := models.Decision{
		Status:     status,
		VerifierID: verifierID,
		Reason:     reason,
		At:         requestcontext.Now(ctx),
	}
	var upload *models.Upload
	err := s.runner.RunInTx(ctx, func(txCtx context.Context) error {
		current, err := s.store.FindByID(txCtx, uploadID)
		if err != nil {
			return err
		}
		pending, err := s.applications.LockPending(txCtx, current.ApplicationID)
		if err != nil {
			return err
		}
		if !pending {
			return sentinel.ErrInvalidState
		}
		upload, err = s.store.SetStatus(txCtx, uploadID, decision)
		return err
	})
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "upload not found")
		case errors.Is(err, sentinel.ErrInvalidState):
			return nil, dErrors.New(dErrors.CodeConflict, "application has already been reviewed")
		}
		s.logger.ErrorContext(ctx, "failed to record upload decision",
			"upload_id", uploadID.String(),
			"status", string(status),
			"error", err,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update upload status")
	}

	s.metrics.IncUploadDecision(string(status))
	s.publish(ctx, changefeed.OpUpdate, upload.ID)
	event := audit.EventUploadVerified
	if status == models.StatusRejected {
		event = audit.EventUploadRejected
	}
	s.logAudit(ctx, string(event),
		"subject", upload.ApplicationID.String(),
		"upload_id", upload.ID.String(),
		"document_type", upload.DocumentType,
		"reason", reason,
	)
	return upload, nil
}

// IsApprovable reads the current upload state on every call. An application
// without uploads is approvable.
func (s *Service) IsApprovable(ctx context.Context, appID id.ApplicationID) (bool, error) {
	n, err := s.store.CountUnresolved(ctx, appID)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check upload status")
	}
	return n == 0, nil
}

func (s *Service) publish(ctx context.Context, op changefeed.Op, uploadID id.UploadID) {
	if s.changes != nil {
		s.changes.Publish(ctx, changefeed.Event{Table: changefeed.TableUploads, Op: op, RecordID: uploadID.String()})
	}
}

func (s *Service) logAudit(ctx context.Context, event string, attributes ...any) {
	audit.Record(ctx, s.logger, s.auditPublisher, event, attributes...)
}
