package testutil

import (
	"net/http"

	id "govportal/pkg/domain"
	"govportal/pkg/requestcontext"
)

// WithUserID adds the acting user to the request context, as the identity
// middleware would. Invalid ids are silently ignored.
func WithUserID(req *http.Request, userID string) *http.Request {
	parsed, err := id.ParseUserID(userID)
	if err != nil {
		return req
	}
	return req.WithContext(requestcontext.WithUserID(req.Context(), parsed))
}

