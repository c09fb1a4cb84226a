package store

import (
	"context"
	"sync"

	"govportal/internal/documents/models"
	id "govportal/pkg/domain"
	"govportal/pkg/platform/sentinel"
)

// InMemoryStore keeps issued documents in a map keyed by id.
type InMemoryStore struct {
	mu   sync.RWMutex
	docs map[id.DocumentID]*models.Document
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{docs: make(map[id.DocumentID]*models.Document)}
}

// CreateActive stores doc and cancels the holder's other active documents of
// the same type under one lock. A conflict leaves everything untouched.
func (s *InMemoryStore) CreateActive(_ context.Context, doc *models.Document) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.docs {
		if existing.Number == doc.Number || existing.VerificationCode == doc.VerificationCode {
			return 0, sentinel.ErrConflict
		}
	}
	var superseded int64
	for _, existing := range s.docs {
		if existing.HolderID == doc.HolderID && existing.Type == doc.Type && existing.Status == models.StatusActive {
			existing.Status = models.StatusCancelled
			superseded++
		}
	}
	copied := *doc
	s.docs[doc.ID] = &copied
	return superseded, nil
}

func (s *InMemoryStore) FindByID(_ context.Context, docID id.DocumentID) (*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[docID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *doc
	return &copied, nil
}

// FindLatestActive returns the most recently issued active document of the type.
func (s *InMemoryStore) FindLatestActive(_ context.Context, holderID id.UserID, docType models.Type) (*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest *models.Document
	for _, doc := range s.docs {
		if doc.HolderID != holderID || doc.Type != docType || doc.Status != models.StatusActive {
			continue
		}
		if latest == nil || doc.IssueDate.After(latest.IssueDate) {
			latest = doc
		}
	}
	if latest == nil {
		return nil, sentinel.ErrNotFound
	}
	copied := *latest
	return &copied, nil
}

func (s *InMemoryStore) FindByVerificationCode(_ context.Context, code string) (*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, doc := range s.docs {
		if doc.VerificationCode == code {
			copied := *doc
			return &copied, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) ListByHolder(_ context.Context, holderID id.UserID) ([]*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Document
	for _, doc := range s.docs {
		if doc.HolderID == holderID {
			copied := *doc
			out = append(out, &copied)
		}
	}
	sortByIssueDesc(out)
	return out, nil
}

// Count is used by tests asserting that refused approvals issued nothing.
func (s *InMemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}
