package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	appModels "govportal/internal/applications/models"
	catalogModels "govportal/internal/catalog/models"
	"govportal/internal/changefeed"
	docModels "govportal/internal/documents/models"
	docService "govportal/internal/documents/service"
	notifModels "govportal/internal/notifications/models"
	pqService "govportal/internal/printqueue/service"
	id "govportal/pkg/domain"
	dErrors "govportal/pkg/domain-errors"
	"govportal/pkg/platform/audit"
	"govportal/pkg/platform/sentinel"
	"govportal/pkg/requestcontext"
)

// Approve moves a Pending application to Approved and then issues the
// document, queues it for print and notifies the holder. The gate check and
// the status write run in one transaction under the application's row lock,
// which upload decisions also take. The status change is never undone; each
// failed follow-up step is reported as a warning.
func (s *Service) Approve(ctx context.Context, appID id.ApplicationID, reviewerID id.UserID) (*appModels.ApprovalOutcome, error) {
	if reviewerID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "reviewer id is required")
	}
	review := appModels.Review{
		Status:     appModels.StatusApproved,
		ReviewerID: reviewerID,
		At:         requestcontext.Now(ctx),
	}
	var app *appModels.Application
	err := s.runner.RunInTx(ctx, func(txCtx context.Context) error {
		current, err := s.store.LockForReview(txCtx, appID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "application not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load application")
		}
		if current.Status != appModels.StatusPending {
			return dErrors.New(dErrors.CodeConflict, "application has already been reviewed")
		}

		approvable, err := s.uploads.IsApprovable(txCtx, appID)
		if err != nil {
			return err
		}
		if !approvable {
			return dErrors.New(dErrors.CodeInvariantViolation, "all uploaded documents must be verified before approval")
		}

		app, err = s.decide(txCtx, appID, review)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncDecision("approved")
	s.publish(ctx, changefeed.OpUpdate, app.ID)
	s.logAudit(ctx, string(audit.EventApplicationApproved),
		"user_id", app.HolderID.String(),
		"subject", app.ID.String(),
		"reviewer_id", reviewerID.String(),
		"replacement", app.IsReplacement,
	)

	outcome := &appModels.ApprovalOutcome{Application: app, Warnings: []appModels.StepWarning{}}
	docType, _ := docModels.TypeForService(app.ServiceID)
	svc, holderName := s.loadApprovalContext(ctx, app)
	label := serviceLabel(svc, docType)

	doc, err := s.documents.Issue(ctx, docService.IssueRequest{
		HolderID:      app.HolderID,
		Type:          docType,
		ApplicationID: app.ID,
	})
	if err != nil {
		s.stepFailed(ctx, outcome, appModels.StepDocumentIssue, "document could not be issued; issue it manually", err)
	} else {
		outcome.Document = doc
	}

	enqueue := pqService.EnqueueRequest{
		ApplicationID:  app.ID,
		HolderID:       app.HolderID,
		HolderName:     holderName,
		ServiceLabel:   label,
		ApprovedAt:     *app.ReviewedAt,
		OfficeLocation: app.OfficeLocation,
	}
	if doc != nil {
		enqueue.DocumentID = &doc.ID
	}
	item, err := s.printQueue.Enqueue(ctx, enqueue)
	if err != nil {
		s.stepFailed(ctx, outcome, appModels.StepPrintEnqueue, "application could not be queued for print; enqueue it manually", err)
	} else {
		outcome.QueueItemID = &item.ID
	}

	body := fmt.Sprintf("Your %s application has been approved. Your document will be ready for pickup at %s.", label, app.OfficeLocation)
	if err := s.notifier.Send(ctx, app.HolderID, "Application approved", body, notifModels.SeveritySuccess); err != nil {
		s.stepFailed(ctx, outcome, appModels.StepNotification, "holder was not notified of the approval", err)
	}
	return outcome, nil
}

// Reject moves a Pending application to Rejected and tells the holder why.
func (s *Service) Reject(ctx context.Context, appID id.ApplicationID, reviewerID id.UserID, reason string) (*appModels.Application, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "a rejection reason is required")
	}
	if reviewerID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "reviewer id is required")
	}

	app, err := s.decide(ctx, appID, appModels.Review{
		Status:     appModels.StatusRejected,
		ReviewerID: reviewerID,
		Reason:     reason,
		At:         requestcontext.Now(ctx),
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncDecision("rejected")
	s.publish(ctx, changefeed.OpUpdate, app.ID)
	s.logAudit(ctx, string(audit.EventApplicationRejected),
		"user_id", app.HolderID.String(),
		"subject", app.ID.String(),
		"reviewer_id", reviewerID.String(),
		"reason", reason,
	)

	docType, _ := docModels.TypeForService(app.ServiceID)
	var svc *catalogModels.Service
	if found, err := s.catalog.FindService(ctx, app.ServiceID); err == nil {
		svc = found
	}
	body := fmt.Sprintf("Your %s application was rejected. Reason: %s", serviceLabel(svc, docType), reason)
	_ = s.notifier.Send(ctx, app.HolderID, "Application rejected", body, notifModels.SeverityError)
	return app, nil
}

func (s *Service) decide(ctx context.Context, appID id.ApplicationID, review appModels.Review) (*appModels.Application, error) {
	app, err := s.store.DecideIfPending(ctx, appID, review)
	switch {
	case err == nil:
		return app, nil
	case errors.Is(err, sentinel.ErrInvalidState):
		return nil, dErrors.New(dErrors.CodeConflict, "application has already been reviewed")
	case errors.Is(err, sentinel.ErrNotFound):
		return nil, dErrors.New(dErrors.CodeNotFound, "application not found")
	default:
		s.logger.ErrorContext(ctx, "failed to record review",
			"application_id", appID.String(),
			"status", string(review.Status),
			"error", err,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update application status")
	}
}

// loadApprovalContext reads the catalog entry and holder name together. Either
// lookup may fail; callers fall back to the document type and raw holder id.
func (s *Service) loadApprovalContext(ctx context.Context, app *appModels.Application) (*catalogModels.Service, string) {
	var (
		svc  *catalogModels.Service
		name string
		g    errgroup.Group
	)
	g.Go(func() error {
		found, err := s.catalog.FindService(ctx, app.ServiceID)
		if err != nil {
			return fmt.Errorf("service %s: %w", app.ServiceID, err)
		}
		svc = found
		return nil
	})
	g.Go(func() error {
		found, err := s.catalog.DisplayName(ctx, app.HolderID)
		if err != nil {
			return fmt.Errorf("holder %s: %w", app.HolderID, err)
		}
		name = found
		return nil
	})
	if err := g.Wait(); err != nil {
		s.logger.WarnContext(ctx, "approval context lookup failed",
			"application_id", app.ID.String(),
			"error", err,
		)
	}
	if name == "" {
		name = app.HolderID.String()
	}
	return svc, name
}

func (s *Service) stepFailed(ctx context.Context, outcome *appModels.ApprovalOutcome, step, message string, err error) {
	s.metrics.IncApprovalStepFailure(step)
	s.logger.ErrorContext(ctx, "approval step failed",
		"request_id", requestcontext.RequestID(ctx),
		"application_id", outcome.Application.ID.String(),
		"step", step,
		"error", err,
	)
	outcome.Warnings = append(outcome.Warnings, appModels.StepWarning{Step: step, Message: message})
}
