package docs

import (
	"context"
	"fmt"
	"sync"

	appErrors "smartdocs-backend/pkg/errors"
)

// MemoryStore keeps documents in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	docs    map[string]*Document
	counter int
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]*Document)}
}

func (s *MemoryStore) NextID(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counter++
	return fmt.Sprintf("doc_%d", s.counter), nil
}

func (s *MemoryStore) Create(ctx context.Context, doc *Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[doc.ID]; ok {
		return appErrors.NewConflict("document already exists: " + doc.ID)
	}
	s.docs[doc.ID] = doc.clone()
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	if !ok {
		return nil, appErrors.NewNotFound("Document not found")
	}
	return doc.clone(), nil
}

func (s *MemoryStore) Update(ctx context.Context, doc *Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[doc.ID]; !ok {
		return appErrors.NewNotFound("Document not found")
	}
	s.docs[doc.ID] = doc.clone()
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[id]; !ok {
		return appErrors.NewNotFound("Document not found")
	}
	delete(s.docs, id)
	return nil
}

func (s *MemoryStore) List(ctx context.Context) ([]*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Document, 0, len(s.docs))
	for _, doc := range s.docs {
		out = append(out, doc.clone())
	}
	return out, nil
}

func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs), nil
}

func (s *MemoryStore) Close() error { return nil }
