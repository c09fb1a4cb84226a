package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"govportal/internal/applications/models"
	validationModels "govportal/internal/validation/models"
	id "govportal/pkg/domain"
	dErrors "govportal/pkg/domain-errors"
	"govportal/pkg/platform/httputil"
	"govportal/pkg/requestcontext"
)

// Service defines the state machine operations exposed over HTTP.
type Service interface {
	Validate(ctx context.Context, req validationModels.Request) validationModels.Result
	Submit(ctx context.Context, req models.SubmitRequest) (*models.SubmitOutcome, error)
	GetForHolder(ctx context.Context, appID id.ApplicationID, holderID id.UserID) (*models.Application, error)
	ListForHolder(ctx context.Context, holderID id.UserID) ([]*models.Application, error)
	Get(ctx context.Context, appID id.ApplicationID) (*models.Application, error)
	ListByStatus(ctx context.Context, status models.Status) ([]*models.Application, error)
	Approve(ctx context.Context, appID id.ApplicationID, reviewerID id.UserID) (*models.ApprovalOutcome, error)
	Reject(ctx context.Context, appID id.ApplicationID, reviewerID id.UserID, reason string) (*models.Application, error)
}

type Handler struct {
	apps   Service
	logger *slog.Logger
}

func New(apps Service, logger *slog.Logger) *Handler {
	return &Handler{apps: apps, logger: logger}
}

// Register mounts the citizen routes. The caller resolves the acting holder.
func (h *Handler) Register(r chi.Router) {
	r.Post("/applications/validate", h.HandleValidate)
	r.Post("/applications", h.HandleSubmit)
	r.Get("/applications", h.HandleListMine)
	r.Get("/applications/{id}", h.HandleGetMine)
}

// RegisterAdmin mounts review routes. The caller applies the admin gate.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/admin/applications", h.HandleListForReview)
	r.Get("/admin/applications/{id}", h.HandleGet)
	r.Post("/admin/applications/{id}/approve", h.HandleApprove)
	r.Post("/admin/applications/{id}/reject", h.HandleReject)
}

type validateRequest struct {
	ServiceID         id.ServiceID `json:"service_id"`
	IsReplacement     bool         `json:"is_replacement"`
	ReplacementReason string       `json:"replacement_reason"`
}

type applicationListResponse struct {
	Applications []*models.Application `json:"applications"`
}

// HandleValidate always answers 200; the verdict is in the body.
func (h *Handler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[validateRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	result := h.apps.Validate(ctx, validationModels.Request{
		HolderID:          requestcontext.UserID(ctx),
		ServiceID:         req.ServiceID,
		IsReplacement:     req.IsReplacement,
		ReplacementReason: req.ReplacementReason,
	})
	httputil.WriteJSON(w, http.StatusOK, result)
}

// HandleSubmit answers 201 with the created application, or the validation
// verdict with 400 for input errors and 409 when a valid document exists.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[models.SubmitRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	req.HolderID = requestcontext.UserID(ctx)

	outcome, err := h.apps.Submit(ctx, *req)
	if err != nil {
		h.logger.WarnContext(ctx, "submission failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	if outcome.Application == nil {
		status := http.StatusConflict
		if outcome.Validation.ErrorCode.IsInputError() {
			status = http.StatusBadRequest
		}
		h.logger.InfoContext(ctx, "submission denied",
			"request_id", requestcontext.RequestID(ctx),
			"error_code", string(outcome.Validation.ErrorCode),
		)
		httputil.WriteJSON(w, status, outcome)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, outcome)
}

func (h *Handler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	apps, err := h.apps.ListForHolder(ctx, requestcontext.UserID(ctx))
	h.writeList(ctx, w, apps, err)
}

func (h *Handler) HandleGetMine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	appID, ok := h.applicationID(w, r)
	if !ok {
		return
	}
	app, err := h.apps.GetForHolder(ctx, appID, requestcontext.UserID(ctx))
	h.respond(ctx, w, http.StatusOK, app, err)
}

func (h *Handler) HandleListForReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	apps, err := h.apps.ListByStatus(ctx, models.Status(r.URL.Query().Get("status")))
	h.writeList(ctx, w, apps, err)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	appID, ok := h.applicationID(w, r)
	if !ok {
		return
	}
	app, err := h.apps.Get(ctx, appID)
	h.respond(ctx, w, http.StatusOK, app, err)
}

// HandleApprove answers 200 even when follow-up steps failed; the warnings
// list names each one.
func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	appID, ok := h.applicationID(w, r)
	if !ok {
		return
	}
	outcome, err := h.apps.Approve(ctx, appID, requestcontext.UserID(ctx))
	if err == nil && len(outcome.Warnings) > 0 {
		h.logger.WarnContext(ctx, "application approved with warnings",
			"request_id", requestcontext.RequestID(ctx),
			"application_id", appID.String(),
			"warnings", len(outcome.Warnings),
		)
	}
	h.respond(ctx, w, http.StatusOK, outcome, err)
}

func (h *Handler) HandleReject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	appID, ok := h.applicationID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.RejectRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	app, err := h.apps.Reject(ctx, appID, requestcontext.UserID(ctx), req.Reason)
	h.respond(ctx, w, http.StatusOK, app, err)
}

func (h *Handler) applicationID(w http.ResponseWriter, r *http.Request) (id.ApplicationID, bool) {
	appID, err := id.ParseApplicationID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid application id"))
		return id.ApplicationID{}, false
	}
	return appID, true
}

func (h *Handler) writeList(ctx context.Context, w http.ResponseWriter, apps []*models.Application, err error) {
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list applications",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	if apps == nil {
		apps = []*models.Application{}
	}
	httputil.WriteJSON(w, http.StatusOK, applicationListResponse{Applications: apps})
}

func (h *Handler) respond(ctx context.Context, w http.ResponseWriter, status int, body any, err error) {
	if err != nil {
		h.logger.WarnContext(ctx, "application request failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, status, body)
}
