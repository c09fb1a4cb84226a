// Package service implements the document registry: issuing documents on
// approval, superseding replaced ones and resolving verification codes.
package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"govportal/internal/changefeed"
	"govportal/internal/documents/models"
	"govportal/internal/platform/metrics"
	id "govportal/pkg/domain"
	dErrors "govportal/pkg/domain-errors"
	"govportal/pkg/platform/audit"
	"govportal/pkg/platform/sentinel"
	"govportal/pkg/requestcontext"
)

// Store is the persistence the registry needs.
type Store interface {
	// CreateActive inserts doc and cancels the holder's other active
	// documents of its type atomically, returning how many were cancelled.
	CreateActive(ctx context.Context, doc *models.Document) (int64, error)
	FindByID(ctx context.Context, docID id.DocumentID) (*models.Document, error)
	FindLatestActive(ctx context.Context, holderID id.UserID, docType models.Type) (*models.Document, error)
	FindByVerificationCode(ctx context.Context, code string) (*models.Document, error)
	ListByHolder(ctx context.Context, holderID id.UserID) ([]*models.Document, error)
}

type AuditPublisher = audit.Emitter

type ChangePublisher interface {
	Publish(ctx context.Context, event changefeed.Event)
}

// maxNumberAttempts bounds retries when a generated number collides.
const maxNumberAttempts = 3

type Service struct {
	store          Store
	verifyBaseURL  string
	logger         *slog.Logger
	metrics        *metrics.Metrics
	auditPublisher AuditPublisher
	changes        ChangePublisher
	randomSuffix   func(n int) string
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

// WithVerifyBaseURL sets the public endpoint verification codes resolve against.
func WithVerifyBaseURL(base string) Option {
	return func(s *Service) { s.verifyBaseURL = strings.TrimRight(base, "/") }
}

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("document store is required")
	}
	s := &Service{store: store, randomSuffix: randomSuffix}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// IssueRequest describes the document an approval produces.
type IssueRequest struct {
	HolderID      id.UserID
	Type          models.Type
	ApplicationID id.ApplicationID
}

// Issue creates an active document and cancels the holder's previous active
// document of the same type in the same write. Expiry is issue date plus the
// type's validity period.
func (s *Service) Issue(ctx context.Context, req IssueRequest) (*models.Document, error) {
	rules, ok := req.Type.Rules()
	if !ok {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "unknown document type")
	}
	if req.HolderID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "holder id is required")
	}
	now := requestcontext.Now(ctx)

	expiry := now.AddDate(rules.YearsValid, 0, 0)
	var lastErr error
	for range maxNumberAttempts {
		doc := &models.Document{
			ID:               id.NewDocumentID(),
			HolderID:         req.HolderID,
			Type:             req.Type,
			Number:           s.documentNumber(rules.Prefix, now),
			IssueDate:        now,
			ExpiryDate:       &expiry,
			Status:           models.StatusActive,
			VerificationCode: s.verificationCode(req.Type, req.ApplicationID),
			ApplicationID:    req.ApplicationID,
			CreatedAt:        now,
		}
		superseded, err := s.store.CreateActive(ctx, doc)
		if err == nil {
			s.metrics.IncDocumentIssued(string(req.Type))
			s.publish(ctx, changefeed.OpInsert, doc.ID.String())
			s.logAudit(ctx, string(audit.EventDocumentIssued),
				"user_id", string(req.HolderID),
				"subject", req.ApplicationID.String(),
				"document_id", doc.ID.String(),
				"document_type", string(req.Type),
			)
			if superseded > 0 {
				s.logAudit(ctx, string(audit.EventDocumentSuperseded),
					"user_id", string(req.HolderID),
					"subject", req.ApplicationID.String(),
					"document_type", string(req.Type),
					"cancelled", superseded,
				)
			}
			return doc, nil
		}
		if !errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store document")
		}
		lastErr = err
	}
	return nil, dErrors.Wrap(lastErr, dErrors.CodeConflict, "document could not be stored after repeated conflicts")
}

// LatestActive returns the holder's most recent active document of the type,
// or nil when there is none.
func (s *Service) LatestActive(ctx context.Context, holderID id.UserID, docType models.Type) (*models.Document, error) {
	doc, err := s.store.FindLatestActive(ctx, holderID, docType)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "document lookup failed")
	}
	return doc, nil
}

// VerificationResult is what the public verification page shows.
type VerificationResult struct {
	Valid     bool             `json:"valid"`
	Document  *models.Document `json:"document"`
	Effective models.Status    `json:"effective_status"`
}

// Verify resolves a verification code. Unknown codes are not found.
func (s *Service) Verify(ctx context.Context, code string) (*VerificationResult, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "verification code is required")
	}
	doc, err := s.store.FindByVerificationCode(ctx, code)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "document not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to verify document")
	}
	effective := doc.EffectiveStatus(requestcontext.Now(ctx))
	return &VerificationResult{
		Valid:     effective == models.StatusActive,
		Document:  doc,
		Effective: effective,
	}, nil
}

func (s *Service) Get(ctx context.Context, docID id.DocumentID) (*models.Document, error) {
	doc, err := s.store.FindByID(ctx, docID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "document not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load document")
	}
	return doc, nil
}

func (s *Service) ListByHolder(ctx context.Context, holderID id.UserID) ([]*models.Document, error) {
	docs, err := s.store.ListByHolder(ctx, holderID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list documents")
	}
	return docs, nil
}

// VerificationURL is the link embedded in the scannable code on the document.
func (s *Service) VerificationURL(doc *models.Document) string {
	return s.verifyBaseURL + "/" + doc.VerificationCode
}

// documentNumber is prefix, issue timestamp and a random suffix. Uniqueness is
// probabilistic; the store's unique index catches the rare collision.
func (s *Service) documentNumber(prefix string, now time.Time) string {
	return prefix + strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36)) + s.randomSuffix(4)
}

func (s *Service) verificationCode(docType models.Type, appID id.ApplicationID) string {
	return fmt.Sprintf("%s-%s-%s", strings.ToUpper(string(docType)), appID.String(), s.randomSuffix(8))
}

func randomSuffix(n int) string {
	return rand.Text()[:n]
}

func (s *Service) publish(ctx context.Context, op changefeed.Op, recordID string) {
	if s.changes != nil {
		s.changes.Publish(ctx, changefeed.Event{Table: changefeed.TableDocuments, Op: op, RecordID: recordID})
	}
}

func (s *Service) logAudit(ctx context.Context, event string, attributes ...any) {
	audit.Record(ctx, s.logger, s.auditPublisher, event, attributes...)
}
