package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"govportal/internal/catalog/models"
	"govportal/pkg/platform/httputil"
	"govportal/pkg/requestcontext"
)

type Service interface {
	ListServices(ctx context.Context) ([]models.Service, error)
}

type Handler struct {
	catalog Service
	logger  *slog.Logger
}

func New(catalog Service, logger *slog.Logger) *Handler {
	return &Handler{catalog: catalog, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/services", h.HandleList)
}

type serviceListResponse struct {
	Services []models.Service `json:"services"`
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	services, err := h.catalog.ListServices(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list services",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	if services == nil {
		services = []models.Service{}
	}
	httputil.WriteJSON(w, http.StatusOK, serviceListResponse{Services: services})
}
