// Package identity reads the acting user forwarded by the upstream identity
// provider. Authentication itself happens before requests reach this service.
package identity

import (
	"log/slog"
	"net/http"

	id "govportal/pkg/domain"
	request "govportal/pkg/platform/middleware/request"
	"govportal/pkg/requestcontext"
)

const HeaderUserID = "X-User-ID"

// RequireUser rejects requests without a well-formed X-User-ID header and
// stores the parsed id in the context.
func RequireUser(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := id.ParseUserID(r.Header.Get(HeaderUserID))
			if err != nil {
				ctx := r.Context()
				logger.WarnContext(ctx, "request without acting user",
					"request_id", request.GetRequestID(ctx),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"acting user required"}`))
				return
			}
			ctx := requestcontext.WithUserID(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
