// Package requesttime captures one "now" per HTTP request so every timestamp
// written while serving it (review time, issue date, audit entries) agrees.
package requesttime

import (
	"net/http"
	"time"

	"govportal/pkg/requestcontext"
)

func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
