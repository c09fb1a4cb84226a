package httptransport

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"govportal/pkg/platform/middleware/admin"
	"govportal/pkg/platform/middleware/identity"
	request "govportal/pkg/platform/middleware/request"
	"govportal/pkg/requestcontext"
	"govportal/pkg/testutil"
)

const testAdminToken = "s3cret"

func echoUser(path string) RegisterFunc {
	return func(r chi.Router) {
		r.Get(path, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(requestcontext.UserID(r.Context()).String()))
		})
	}
}

func newTestRouter(health map[string]HealthCheck) http.Handler {
	return NewRouter(Routes{
		Public: []Registrar{echoUser("/services")},
		Holder: []Registrar{echoUser("/applications")},
		Admin:  []Registrar{echoUser("/admin/applications")},
		Changes: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusSwitchingProtocols)
		}),
		Metrics: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("# metrics"))
		}),
		Health: health,
	}, testAdminToken, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRouterGates(t *testing.T) {
	r := newTestRouter(nil)

	t.Run("public routes need no headers", func(t *testing.T) {
		rr := testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/services"))
		testutil.AssertStatusOK(t, rr)
		assert.NotEmpty(t, rr.Header().Get(request.HeaderRequestID))
	})

	t.Run("holder routes require an acting user", func(t *testing.T) {
		rr := testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/applications"))
		testutil.AssertStatus(t, rr, http.StatusUnauthorized)

		req := testutil.NewRequest(t, http.MethodGet, "/applications")
		req.Header.Set(identity.HeaderUserID, "citizen-1")
		rr = testutil.DoRequest(r, req)
		testutil.AssertStatusOK(t, rr)
		assert.Equal(t, "citizen-1", rr.Body.String())
	})

	t.Run("admin routes require the token and a user", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodGet, "/admin/applications")
		req.Header.Set(identity.HeaderUserID, "admin-1")
		rr := testutil.DoRequest(r, req)
		testutil.AssertStatus(t, rr, http.StatusUnauthorized)

		req = testutil.NewRequest(t, http.MethodGet, "/admin/applications")
		req.Header.Set(admin.HeaderAdminToken, testAdminToken)
		rr = testutil.DoRequest(r, req)
		testutil.AssertStatus(t, rr, http.StatusUnauthorized)

		req = testutil.NewRequest(t, http.MethodGet, "/admin/applications")
		req.Header.Set(admin.HeaderAdminToken, testAdminToken)
		req.Header.Set(identity.HeaderUserID, "admin-1")
		rr = testutil.DoRequest(r, req)
		testutil.AssertStatusOK(t, rr)
		assert.Equal(t, "admin-1", rr.Body.String())
	})

	t.Run("change stream sits behind the admin token only", func(t *testing.T) {
		rr := testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/admin/changes/ws"))
		testutil.AssertStatus(t, rr, http.StatusUnauthorized)

		req := testutil.NewRequest(t, http.MethodGet, "/admin/changes/ws")
		req.Header.Set(admin.HeaderAdminToken, testAdminToken)
		rr = testutil.DoRequest(r, req)
		testutil.AssertStatus(t, rr, http.StatusSwitchingProtocols)
	})

	t.Run("metrics", func(t *testing.T) {
		rr := testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/metrics"))
		testutil.AssertStatusOK(t, rr)
		assert.Contains(t, rr.Body.String(), "# metrics")
	})
}

func TestHealth(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		r := newTestRouter(map[string]HealthCheck{
			"postgres": func(context.Context) error { return nil },
		})
		rr := testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/health"))
		testutil.AssertStatusOK(t, rr)
		resp := testutil.UnmarshalResponse[healthResponse](t, rr)
		assert.Equal(t, "ok", resp.Status)
		assert.Equal(t, "ok", resp.Checks["postgres"])
	})

	t.Run("failing dependency degrades", func(t *testing.T) {
		r := newTestRouter(map[string]HealthCheck{
			"postgres": func(context.Context) error { return nil },
			"redis":    func(context.Context) error { return errors.New("connection refused") },
		})
		rr := testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/health"))
		testutil.AssertStatus(t, rr, http.StatusServiceUnavailable)
		resp := testutil.UnmarshalResponse[healthResponse](t, rr)
		assert.Equal(t, "degraded", resp.Status)
		assert.Equal(t, "connection refused", resp.Checks["redis"])
	})
}
