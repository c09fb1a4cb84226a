package service

import (
	"context"
	"fmt"
	"slices"
	"strings"

	appModels "govportal/internal/applications/models"
	"govportal/internal/changefeed"
	notifModels "govportal/internal/notifications/models"
	uploadModels "govportal/internal/uploads/models"
	id "govportal/pkg/domain"
	dErrors "govportal/pkg/domain-errors"
	"govportal/pkg/platform/audit"
	pstrings "govportal/pkg/platform/strings"
	"govportal/pkg/requestcontext"
)

// Submit gates the request on the validation engine and stores the
// application with its uploads in one transaction. A denial is not an error:
// the outcome carries the verdict and no application.
func (s *Service) Submit(ctx context.Context, req appModels.SubmitRequest) (*appModels.SubmitOutcome, error) {
	req.ReplacementReason = strings.TrimSpace(req.ReplacementReason)
	verdict := s.validator.Validate(ctx, req.ValidationRequest())
	if !verdict.CanProceed {
		return &appModels.SubmitOutcome{Validation: verdict}, nil
	}

	svc, err := s.catalog.FindService(ctx, req.ServiceID)
	if err != nil {
		return nil, err
	}
	manifest := pstrings.DedupeAndTrimLower(svc.RequiredDocuments)

	now := requestcontext.Now(ctx)
	app := &appModels.Application{
		ID:                id.NewApplicationID(),
		HolderID:          req.HolderID,
		ServiceID:         req.ServiceID,
		Status:            appModels.StatusPending,
		SubmittedAt:       now,
		IsReplacement:     req.IsReplacement,
		OfficeLocation:    strings.TrimSpace(req.OfficeLocation),
		RequiredDocuments: manifest,
	}
	if req.IsReplacement {
		app.ReplacementReason = req.ReplacementReason
	}
	if app.OfficeLocation == "" {
		app.OfficeLocation = s.officeLocation
	}

	uploads, err := buildUploads(app, req.Uploads)
	if err != nil {
		return nil, err
	}

	err = s.runner.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.store.Create(txCtx, app); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store application")
		}
		return s.uploads.Attach(txCtx, uploads)
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "submission failed",
			"holder_id", app.HolderID.String(),
			"service_id", app.ServiceID.String(),
			"error", err,
		)
		return nil, err
	}

	s.metrics.IncApplicationsSubmitted()
	s.publish(ctx, changefeed.OpInsert, app.ID)
	s.uploads.Announce(ctx, uploads)
	s.logAudit(ctx, string(audit.EventApplicationSubmitted),
		"user_id", app.HolderID.String(),
		"subject", app.ID.String(),
		"service_id", app.ServiceID.String(),
		"uploads", len(uploads),
		"validation_source", verdict.Source,
	)
	if verdict.FailedOpen() {
		_ = s.notifier.Send(ctx, app.HolderID, "Application submitted with a warning", verdict.WarningMessage, notifModels.SeverityWarning)
	}

	for _, u := range uploads {
		u.Payload = ""
	}
	return &appModels.SubmitOutcome{Validation: verdict, Application: app, Uploads: uploads}, nil
}

// buildUploads checks the files against the manifest: each required label is
// covered exactly once and nothing outside the manifest is attached.
func buildUploads(app *appModels.Application, files []uploadModels.File) ([]*uploadModels.Upload, error) {
	uploads := make([]*uploadModels.Upload, 0, len(files))
	seen := make(map[string]bool, len(files))
	for i := range files {
		f := files[i]
		f.Normalize()
		size, err := f.Validate()
		if err != nil {
			return nil, err
		}
		if !slices.Contains(app.RequiredDocuments, f.DocumentType) {
			return nil, dErrors.New(dErrors.CodeValidation,
				fmt.Sprintf("upload %q is not required by this service", f.DocumentType))
		}
		if seen[f.DocumentType] {
			return nil, dErrors.New(dErrors.CodeValidation,
				fmt.Sprintf("upload %q was supplied more than once", f.DocumentType))
		}
		seen[f.DocumentType] = true
		uploads = append(uploads, uploadModels.NewUpload(app.ID, f, size, app.SubmittedAt))
	}
	var missing []string
	for _, label := range app.RequiredDocuments {
		if !seen[label] {
			missing = append(missing, label)
		}
	}
	if len(missing) > 0 {
		return nil, dErrors.New(dErrors.CodeValidation,
			"missing required documents: "+strings.Join(missing, ", "))
	}
	return uploads, nil
}
