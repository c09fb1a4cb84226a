package store

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"govportal/internal/applications/models"
	id "govportal/pkg/domain"
	"govportal/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu   sync.RWMutex
	apps map[id.ApplicationID]*models.Application
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{apps: make(map[id.ApplicationID]*models.Application)}
}

func (s *InMemoryStore) Create(_ context.Context, app *models.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.apps[app.ID]; ok {
		return sentinel.ErrConflict
	}
	s.apps[app.ID] = clone(app)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, appID id.ApplicationID) (*models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	app, ok := s.apps[appID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(app), nil
}

// LockForReview reads the application. Callers serialize through the memory
// transaction runner, which stands in for the row lock.
func (s *InMemoryStore) LockForReview(ctx context.Context, appID id.ApplicationID) (*models.Application, error) {
	return s.FindByID(ctx, appID)
}

// LockPending reports whether the application is still Pending.
func (s *InMemoryStore) LockPending(_ context.Context, appID id.ApplicationID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	app, ok := s.apps[appID]
	if !ok {
		return false, sentinel.ErrNotFound
	}
	return app.Status == models.StatusPending, nil
}

// ListByHolder returns the holder's applications, newest first.
func (s *InMemoryStore) ListByHolder(_ context.Context, holderID id.UserID) ([]*models.Application, error) {
	return s.filter(func(a *models.Application) bool { return a.HolderID == holderID }, true), nil
}

// ListByStatus returns applications oldest first so reviewers work in
// submission order. An empty status lists everything.
func (s *InMemoryStore) ListByStatus(_ context.Context, status models.Status) ([]*models.Application, error) {
	return s.filter(func(a *models.Application) bool { return status == "" || a.Status == status }, false), nil
}

// DecideIfPending applies the review only when the application is still
// Pending. A decided application yields ErrInvalidState.
func (s *InMemoryStore) DecideIfPending(_ context.Context, appID id.ApplicationID, review models.Review) (*models.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	app, ok := s.apps[appID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if app.Status != models.StatusPending {
		return nil, sentinel.ErrInvalidState
	}
	at := review.At
	app.Status = review.Status
	app.ReviewedAt = &at
	app.ReviewerID = review.ReviewerID
	if review.Status == models.StatusRejected {
		app.RejectionReason = review.Reason
	}
	return clone(app), nil
}

func (s *InMemoryStore) filter(keep func(*models.Application) bool, newestFirst bool) []*models.Application {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Application
	for _, app := range s.apps {
		if keep(app) {
			out = append(out, clone(app))
		}
	}
	slices.SortFunc(out, func(a, b *models.Application) int {
		c := a.SubmittedAt.Compare(b.SubmittedAt)
		if c == 0 {
			c = cmp.Compare(a.ID.String(), b.ID.String())
		}
		if newestFirst {
			return -c
		}
		return c
	})
	return out
}

func clone(app *models.Application) *models.Application {
	copied := *app
	copied.RequiredDocuments = slices.Clone(app.RequiredDocuments)
	return &copied
}
