package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"govportal/internal/notifications/models"
	id "govportal/pkg/domain"
	dErrors "govportal/pkg/domain-errors"
	"govportal/pkg/platform/httputil"
	"govportal/pkg/requestcontext"
)

type Service interface {
	ListForHolder(ctx context.Context, holderID id.UserID) ([]*models.Notification, error)
	MarkRead(ctx context.Context, notificationID id.NotificationID, holderID id.UserID) error
}

type Handler struct {
	notifications Service
	logger        *slog.Logger
}

func New(notifications Service, logger *slog.Logger) *Handler {
	return &Handler{notifications: notifications, logger: logger}
}

// Register mounts the acting holder's inbox routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/notifications", h.HandleList)
	r.Post("/notifications/{id}/read", h.HandleMarkRead)
}

type notificationListResponse struct {
	Notifications []*models.Notification `json:"notifications"`
	Unread        int                    `json:"unread"`
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	list, err := h.notifications.ListForHolder(ctx, requestcontext.UserID(ctx))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list notifications",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	resp := notificationListResponse{Notifications: list}
	if resp.Notifications == nil {
		resp.Notifications = []*models.Notification{}
	}
	for _, n := range list {
		if !n.Read {
			resp.Unread++
		}
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	notificationID, err := id.ParseNotificationID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid notification id"))
		return
	}
	if err := h.notifications.MarkRead(ctx, notificationID, requestcontext.UserID(ctx)); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
