package store

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"govportal/internal/uploads/models"
	id "govportal/pkg/domain"
	"govportal/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu      sync.RWMutex
	uploads map[id.UploadID]*models.Upload
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{uploads: make(map[id.UploadID]*models.Upload)}
}

// CreateBatch stores every upload or none.
func (s *InMemoryStore) CreateBatch(_ context.Context, uploads []*models.Upload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range uploads {
		if _, exists := s.uploads[u.ID]; exists {
			return sentinel.ErrConflict
		}
	}
	for _, u := range uploads {
		copied := *u
		s.uploads[u.ID] = &copied
	}
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, uploadID id.UploadID) (*models.Upload, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.uploads[uploadID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

// ListByApplication returns uploads in submission order.
func (s *InMemoryStore) ListByApplication(_ context.Context, appID id.ApplicationID) ([]*models.Upload, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Upload
	for _, u := range s.uploads {
		if u.ApplicationID == appID {
			copied := *u
			out = append(out, &copied)
		}
	}
	slices.SortFunc(out, func(a, b *models.Upload) int {
		if c := a.UploadedAt.Compare(b.UploadedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.DocumentType, b.DocumentType)
	})
	return out, nil
}

func (s *InMemoryStore) SetStatus(_ context.Context, uploadID id.UploadID, d models.Decision) (*models.Upload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.uploads[uploadID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	at := d.At
	u.Status = d.Status
	u.VerifierID = d.VerifierID
	u.VerifiedAt = &at
	u.RejectionReason = ""
	if d.Status == models.StatusRejected {
		u.RejectionReason = d.Reason
	}
	copied := *u
	return &copied, nil
}

// CountUnresolved counts uploads that are not verified.
func (s *InMemoryStore) CountUnresolved(_ context.Context, appID id.ApplicationID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, u := range s.uploads {
		if u.ApplicationID == appID && u.Status != models.StatusVerified {
			n++
		}
	}
	return n, nil
}
