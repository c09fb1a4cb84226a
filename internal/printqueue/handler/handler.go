package handler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"govportal/internal/printqueue/models"
	"govportal/internal/printqueue/service"
	id "govportal/pkg/domain"
	dErrors "govportal/pkg/domain-errors"
	"govportal/pkg/platform/httputil"
	"govportal/pkg/requestcontext"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// maxBulkIDs bounds one bulk print request.
const maxBulkIDs = 500

// Service defines the print queue operations exposed to admins.
type Service interface {
	List(ctx context.Context, status models.Status) ([]models.View, error)
	MarkPrinted(ctx context.Context, itemID id.QueueItemID, operatorID id.UserID) (*models.Item, error)
	MarkPrintedBulk(ctx context.Context, itemIDs []id.QueueItemID, operatorID id.UserID) (*service.BulkReport, error)
	ExportXLSX(ctx context.Context, status models.Status, w io.Writer) error
}

type Handler struct {
	queue  Service
	logger *slog.Logger
}

func New(queue Service, logger *slog.Logger) *Handler {
	return &Handler{queue: queue, logger: logger}
}

// Register mounts admin routes. The caller applies the admin gate.
func (h *Handler) Register(r chi.Router) {
	r.Get("/admin/print-queue", h.HandleList)
	r.Get("/admin/print-queue/export.xlsx", h.HandleExport)
	r.Post("/admin/print-queue/printed", h.HandleMarkPrintedBulk)
	r.Post("/admin/print-queue/{id}/printed", h.HandleMarkPrinted)
}

type BulkPrintRequest struct {
	IDs []id.QueueItemID `json:"ids"`
}

func (r *BulkPrintRequest) Validate() error {
	if len(r.IDs) == 0 {
		return dErrors.New(dErrors.CodeValidation, "ids are required")
	}
	if len(r.IDs) > maxBulkIDs {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("at most %d ids per request", maxBulkIDs))
	}
	return nil
}

type queueResponse struct {
	Items []models.View `json:"items"`
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	views, err := h.queue.List(ctx, models.Status(r.URL.Query().Get("status")))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list print queue",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	if views == nil {
		views = []models.View{}
	}
	httputil.WriteJSON(w, http.StatusOK, queueResponse{Items: views})
}

// HandleExport buffers the workbook so a failed export still gets a JSON error.
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var buf bytes.Buffer
	if err := h.queue.ExportXLSX(ctx, models.Status(r.URL.Query().Get("status")), &buf); err != nil {
		h.logger.ErrorContext(ctx, "failed to export print queue",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	filename := fmt.Sprintf("print-queue-%s.xlsx", requestcontext.Now(ctx).UTC().Format("20060102"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (h *Handler) HandleMarkPrinted(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	itemID, err := id.ParseQueueItemID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid print item id"))
		return
	}
	item, err := h.queue.MarkPrinted(ctx, itemID, requestcontext.UserID(ctx))
	if err != nil {
		h.logger.WarnContext(ctx, "mark printed failed",
			"request_id", requestcontext.RequestID(ctx),
			"queue_item_id", itemID.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, item)
}

// HandleMarkPrintedBulk answers 200 with per-item outcomes even when some
// items fail.
func (h *Handler) HandleMarkPrintedBulk(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[BulkPrintRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	report, err := h.queue.MarkPrintedBulk(ctx, req.IDs, requestcontext.UserID(ctx))
	if err != nil {
		h.logger.WarnContext(ctx, "bulk print failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, report)
}
