package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"govportal/internal/uploads/models"
	id "govportal/pkg/domain"
	dErrors "govportal/pkg/domain-errors"
	"govportal/pkg/platform/httputil"
	"govportal/pkg/requestcontext"
)

// Service defines the gate operations exposed to admins.
type Service interface {
	ListDocuments(ctx context.Context, appID id.ApplicationID) ([]*models.Upload, error)
	Verify(ctx context.Context, uploadID id.UploadID, verifierID id.UserID) (*models.Upload, error)
	Reject(ctx context.Context, uploadID id.UploadID, verifierID id.UserID, reason string) (*models.Upload, error)
}

type Handler struct {
	uploads Service
	logger  *slog.Logger
}

func New(uploads Service, logger *slog.Logger) *Handler {
	return &Handler{uploads: uploads, logger: logger}
}

// Register mounts admin routes. The caller applies the admin gate.
func (h *Handler) Register(r chi.Router) {
	r.Get("/admin/applications/{id}/uploads", h.HandleList)
	r.Post("/admin/uploads/{id}/verify", h.HandleVerify)
	r.Post("/admin/uploads/{id}/reject", h.HandleReject)
}

type RejectRequest struct {
	Reason string `json:"reason"`
}

func (r *RejectRequest) Validate() error {
	r.Reason = strings.TrimSpace(r.Reason)
	if r.Reason == "" {
		return dErrors.New(dErrors.CodeValidation, "reason is required")
	}
	return nil
}

type uploadListResponse struct {
	Uploads []*models.Upload `json:"uploads"`
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	appID, err := id.ParseApplicationID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid application id"))
		return
	}
	uploads, err := h.uploads.ListDocuments(ctx, appID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list uploads",
			"request_id", requestcontext.RequestID(ctx),
			"application_id", appID.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	if uploads == nil {
		uploads = []*models.Upload{}
	}
	httputil.WriteJSON(w, http.StatusOK, uploadListResponse{Uploads: uploads})
}

func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uploadID, ok := h.uploadID(w, r)
	if !ok {
		return
	}
	upload, err := h.uploads.Verify(ctx, uploadID, requestcontext.UserID(ctx))
	h.respond(ctx, w, upload, err)
}

func (h *Handler) HandleReject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uploadID, ok := h.uploadID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[RejectRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	upload, err := h.uploads.Reject(ctx, uploadID, requestcontext.UserID(ctx), req.Reason)
	h.respond(ctx, w, upload, err)
}

func (h *Handler) uploadID(w http.ResponseWriter, r *http.Request) (id.UploadID, bool) {
	uploadID, err := id.ParseUploadID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid upload id"))
		return id.UploadID{}, false
	}
	return uploadID, true
}

func (h *Handler) respond(ctx context.Context, w http.ResponseWriter, upload *models.Upload, err error) {
	if err != nil {
		h.logger.WarnContext(ctx, "upload decision failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, upload)
}
