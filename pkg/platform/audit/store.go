package audit

import (
	"context"

	id "govportal/pkg/domain"
)

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByUser(ctx context.Context, userID id.UserID) ([]Event, error)
	ListBySubject(ctx context.Context, subject string) ([]Event, error)
}
