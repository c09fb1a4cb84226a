package store

import (
	"context"
	"sync"
	"time"

	"govportal/internal/printqueue/models"
	id "govportal/pkg/domain"
	"govportal/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu    sync.RWMutex
	items map[id.QueueItemID]*models.Item
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{items: make(map[id.QueueItemID]*models.Item)}
}

// Create enforces one item per application.
func (s *InMemoryStore) Create(_ context.Context, item *models.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.items {
		if existing.ID == item.ID || existing.ApplicationID == item.ApplicationID {
			return sentinel.ErrConflict
		}
	}
	copied := *item
	s.items[item.ID] = &copied
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, itemID id.QueueItemID) (*models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[itemID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *item
	return &copied, nil
}

// List filters by status when one is given. Ordering is the service's job.
func (s *InMemoryStore) List(_ context.Context, status models.Status) ([]*models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Item
	for _, item := range s.items {
		if status == "" || item.Status == status {
			copied := *item
			out = append(out, &copied)
		}
	}
	return out, nil
}

// MarkPrintedIfPending transitions only items still pending. An item that is
// already printed yields ErrInvalidState and is left untouched.
func (s *InMemoryStore) MarkPrintedIfPending(_ context.Context, itemID id.QueueItemID, operatorID id.UserID, at time.Time) (*models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[itemID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if item.Status != models.StatusPendingPrint {
		return nil, sentinel.ErrInvalidState
	}
	printedAt := at
	item.Status = models.StatusPrinted
	item.PrintedAt = &printedAt
	item.PrintedBy = operatorID
	copied := *item
	return &copied, nil
}
