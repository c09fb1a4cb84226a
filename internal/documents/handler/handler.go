package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"govportal/internal/documents/models"
	"govportal/internal/documents/service"
	id "govportal/pkg/domain"
	"govportal/pkg/platform/httputil"
	"govportal/pkg/requestcontext"
)

// Service defines the registry operations exposed over HTTP.
type Service interface {
	Verify(ctx context.Context, code string) (*service.VerificationResult, error)
	ListByHolder(ctx context.Context, holderID id.UserID) ([]*models.Document, error)
}

type Handler struct {
	documents Service
	logger    *slog.Logger
}

func New(documents Service, logger *slog.Logger) *Handler {
	return &Handler{documents: documents, logger: logger}
}

// RegisterPublic mounts routes that need no acting user.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/documents/verify/{code}", h.HandleVerify)
}

// Register mounts routes for the acting holder.
func (h *Handler) Register(r chi.Router) {
	r.Get("/documents", h.HandleList)
}

type documentListResponse struct {
	Documents []*models.Document `json:"documents"`
}

func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	result, err := h.documents.Verify(ctx, chi.URLParam(r, "code"))
	if err != nil {
		h.logger.WarnContext(ctx, "document verification failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	docs, err := h.documents.ListByHolder(ctx, requestcontext.UserID(ctx))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list documents",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	if docs == nil {
		docs = []*models.Document{}
	}
	httputil.WriteJSON(w, http.StatusOK, documentListResponse{Documents: docs})
}
