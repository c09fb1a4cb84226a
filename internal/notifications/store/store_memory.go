package store

import (
	"context"
	"slices"
	"sync"

	"govportal/internal/notifications/models"
	id "govportal/pkg/domain"
	"govportal/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu    sync.RWMutex
	items map[id.NotificationID]*models.Notification
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{items: make(map[id.NotificationID]*models.Notification)}
}

func (s *InMemoryStore) Create(_ context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.items[n.ID]; exists {
		return sentinel.ErrConflict
	}
	copied := *n
	s.items[n.ID] = &copied
	return nil
}

// ListByHolder returns the holder's notifications and broadcasts, newest first.
func (s *InMemoryStore) ListByHolder(_ context.Context, holderID id.UserID, limit int) ([]*models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Notification
	for _, n := range s.items {
		if n.HolderID == holderID || n.HolderID.IsNil() {
			copied := *n
			out = append(out, &copied)
		}
	}
	slices.SortFunc(out, func(a, b *models.Notification) int { return b.CreatedAt.Compare(a.CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// MarkRead only touches the holder's own notifications.
func (s *InMemoryStore) MarkRead(_ context.Context, notificationID id.NotificationID, holderID id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.items[notificationID]
	if !ok || n.HolderID != holderID {
		return sentinel.ErrNotFound
	}
	n.Read = true
	return nil
}

// Count is used by tests to assert how many notifications were sent.
func (s *InMemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
