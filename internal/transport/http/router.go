package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"govportal/pkg/platform/httputil"
	"govportal/pkg/platform/middleware/admin"
	"govportal/pkg/platform/middleware/identity"
	request "govportal/pkg/platform/middleware/request"
	"govportal/pkg/platform/middleware/requesttime"
)

// Registrar is implemented by every module handler.
type Registrar interface {
	Register(r chi.Router)
}

// RegisterFunc adapts a handler method such as RegisterAdmin to Registrar.
type RegisterFunc func(r chi.Router)

func (f RegisterFunc) Register(r chi.Router) { f(r) }

// HealthCheck reports whether a backing dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Routes groups the module handlers by the gate they sit behind. The router
// stays thin: handlers own their paths, the router owns middleware.
type Routes struct {
	// Public routes need neither an acting user nor the admin token.
	Public []Registrar
	// Holder routes require the X-User-ID header.
	Holder []Registrar
	// Admin routes require the admin token and an acting staff user.
	Admin []Registrar
	// Changes serves the admin websocket change stream.
	Changes http.Handler
	// Metrics defaults to the Prometheus default registry.
	Metrics http.Handler
	Health  map[string]HealthCheck
}

// NewRouter wires the middleware chain and mounts every module.
func NewRouter(routes Routes, adminToken string, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(request.ClientMetadata)
	r.Use(request.Recover(logger))
	r.Use(request.AccessLog(logger))
	r.Use(requesttime.Middleware)

	metricsHandler := routes.Metrics
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	r.Method(http.MethodGet, "/metrics", metricsHandler)
	r.Get("/health", healthHandler(routes.Health))

	r.Group(func(r chi.Router) {
		for _, h := range routes.Public {
			h.Register(r)
		}
	})

	r.Group(func(r chi.Router) {
		r.Use(identity.RequireUser(logger))
		for _, h := range routes.Holder {
			h.Register(r)
		}
	})

	r.Group(func(r chi.Router) {
		r.Use(admin.RequireAdminToken(adminToken, logger))
		if routes.Changes != nil {
			r.Method(http.MethodGet, "/admin/changes/ws", routes.Changes)
		}
		r.Group(func(r chi.Router) {
			r.Use(identity.RequireUser(logger))
			for _, h := range routes.Admin {
				h.Register(r)
			}
		})
	})

	return r
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := healthResponse{Status: "ok"}
		status := http.StatusOK
		for name, check := range checks {
			if resp.Checks == nil {
				resp.Checks = make(map[string]string, len(checks))
			}
			if err := check(ctx); err != nil {
				resp.Checks[name] = err.Error()
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
		httputil.WriteJSON(w, status, resp)
	}
}
