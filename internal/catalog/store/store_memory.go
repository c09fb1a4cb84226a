package store

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"govportal/internal/catalog/models"
	id "govportal/pkg/domain"
	"govportal/pkg/platform/sentinel"
)

// InMemoryStore holds the catalog and known users for local runs and tests.
type InMemoryStore struct {
	mu       sync.RWMutex
	services map[id.ServiceID]models.Service
	users    map[id.UserID]models.User
}

// NewInMemory seeds the given services, or the default catalog when none are passed.
func NewInMemory(services ...models.Service) *InMemoryStore {
	if len(services) == 0 {
		services = models.DefaultServices()
	}
	s := &InMemoryStore{
		services: make(map[id.ServiceID]models.Service, len(services)),
		users:    make(map[id.UserID]models.User),
	}
	for _, svc := range services {
		s.services[svc.ID] = svc
	}
	return s
}

// PutUser registers a holder's display name.
func (s *InMemoryStore) PutUser(user models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = user
}

func (s *InMemoryStore) FindService(_ context.Context, serviceID id.ServiceID) (*models.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	svc, ok := s.services[serviceID]
	if !ok {
		return nil, fmt.Errorf("service %d: %w", serviceID, sentinel.ErrNotFound)
	}
	svc.RequiredDocuments = slices.Clone(svc.RequiredDocuments)
	return &svc, nil
}

func (s *InMemoryStore) ListServices(_ context.Context) ([]models.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Service, 0, len(s.services))
	for _, svc := range s.services {
		svc.RequiredDocuments = slices.Clone(svc.RequiredDocuments)
		out = append(out, svc)
	}
	slices.SortFunc(out, func(a, b models.Service) int { return int(a.ID) - int(b.ID) })
	return out, nil
}

func (s *InMemoryStore) FindUser(_ context.Context, userID id.UserID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[userID]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", userID, sentinel.ErrNotFound)
	}
	return &user, nil
}
