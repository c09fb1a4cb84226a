// Package service decides whether a citizen may submit an application for a
// service, given the documents they already hold.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	docModels "govportal/internal/documents/models"
	"govportal/internal/validation/metrics"
	"govportal/internal/validation/models"
	"govportal/pkg/platform/circuit"
	"govportal/pkg/requestcontext"
)

const sourceFailOpen = "fail_open"

type lookup struct {
	strategy Strategy
	breaker  *circuit.Breaker
}

// Service runs the ordered lookup strategies, skipping any whose circuit is
// open until its cooldown admits a trial call. When every strategy fails the
// verdict is allow-with-warning; the engine never returns an error for an
// infrastructure failure.
type Service struct {
	lookups     []lookup
	logger      *slog.Logger
	metrics     *metrics.Metrics
	breakerOpts []circuit.Option
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithBreakerOptions tunes the circuit kept for each strategy.
func WithBreakerOptions(opts ...circuit.Option) Option {
	return func(s *Service) { s.breakerOpts = append(s.breakerOpts, opts...) }
}

// New takes strategies in the order they are tried.
func New(strategies []Strategy, opts ...Option) (*Service, error) {
	if len(strategies) == 0 {
		return nil, errors.New("at least one lookup strategy is required")
	}
	s := &Service{logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	for _, st := range strategies {
		if st == nil {
			return nil, errors.New("lookup strategy must not be nil")
		}
		s.lookups = append(s.lookups, lookup{strategy: st, breaker: circuit.New(st.Name(), s.breakerOpts...)})
	}
	return s, nil
}

// Validate never touches storage for malformed input and has no side effects
// beyond logs and metrics.
func (s *Service) Validate(ctx context.Context, req models.Request) models.Result {
	req.ReplacementReason = strings.TrimSpace(req.ReplacementReason)

	docType, result, ok := s.checkInput(req)
	if !ok {
		s.metrics.IncOutcome("input_error")
		return result
	}

	now := requestcontext.Now(ctx)
	for _, l := range s.lookups {
		if !l.breaker.Allow() {
			s.logger.DebugContext(ctx, "skipping degraded lookup strategy", "strategy", l.strategy.Name())
			continue
		}
		existing, err := l.strategy.LatestActive(ctx, req.HolderID, docType)
		if err != nil {
			s.recordFailure(ctx, l, err)
			continue
		}
		s.recordSuccess(ctx, l)

		result = classify(req, docType, existing, now)
		result.Source = l.strategy.Name()
		s.metrics.IncOutcome(outcome(result))
		return result
	}

	s.logger.WarnContext(ctx, "existing document status unverifiable, allowing submission",
		"holder_id", string(req.HolderID),
		"document_type", string(docType),
		"request_id", requestcontext.RequestID(ctx),
	)
	s.metrics.IncOutcome(sourceFailOpen)
	return failOpen(docType)
}

func (s *Service) checkInput(req models.Request) (docModels.Type, models.Result, bool) {
	if strings.TrimSpace(string(req.HolderID)) == "" {
		return "", inputError(models.CodeMissingUserID, "User ID is required."), false
	}
	docType, known := docModels.TypeForService(req.ServiceID)
	if !known {
		return "", inputError(models.CodeInvalidServiceID, "The selected service does not issue a known document type."), false
	}
	if req.IsReplacement && req.ReplacementReason == "" {
		return "", inputError(models.CodeReplacementReasonRequired, "Please provide a reason for the replacement request."), false
	}
	return docType, models.Result{}, true
}

func (s *Service) recordFailure(ctx context.Context, l lookup, err error) {
	name := l.strategy.Name()
	s.metrics.IncStrategyFailure(name)
	_, change := l.breaker.RecordFailure()
	s.logger.WarnContext(ctx, "existing document lookup failed",
		"strategy", name,
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
	if change.Opened {
		s.metrics.SetDegraded(name, true)
		s.logger.ErrorContext(ctx, "lookup strategy degraded", "strategy", name)
	}
}

func (s *Service) recordSuccess(ctx context.Context, l lookup) {
	_, change := l.breaker.RecordSuccess()
	if change.Closed {
		s.metrics.SetDegraded(l.strategy.Name(), false)
		s.logger.InfoContext(ctx, "lookup strategy recovered", "strategy", l.strategy.Name())
	}
}

// Degraded lists strategies whose circuit has not recovered.
func (s *Service) Degraded() []string {
	var out []string
	for _, l := range s.lookups {
		if l.breaker.Degraded() {
			out = append(out, l.strategy.Name())
		}
	}
	return out
}

func outcome(r models.Result) string {
	switch {
	case !r.CanProceed:
		return "denied"
	case r.IsReplacementAllowed:
		return "replacement"
	default:
		return "allowed"
	}
}
