package content

import (
	"context"
	"sync"

	"github.com/rpupo63/rooms-blog-backend/errs"
	"github.com/rpupo63/rooms-blog-backend/models"
)

// MemoryStore keeps documents in process. It backs local development when no
// content store project is configured, and tests.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]BlogDocument
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]BlogDocument)}
}

func (s *MemoryStore) Create(_ context.Context, ref models.DocumentRef, doc BlogDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[ref.ID()]; ok {
		return errs.NewAlreadyExists("content document " + ref.ID())
	}
	doc = doc.Clone()
	doc.ID = ref.ID()
	doc.Type = DocumentType
	s.docs[ref.ID()] = doc
	return nil
}

func (s *MemoryStore) Patch(_ context.Context, ref models.DocumentRef, patch DocumentPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[ref.ID()]
	if !ok {
		return errs.NewNotFound("content document")
	}
	patch.Apply(&doc)
	s.docs[ref.ID()] = doc.Clone()
	return nil
}

// Delete is idempotent, like the remote store.
func (s *MemoryStore) Delete(_ context.Context, ref models.DocumentRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.docs, ref.ID())
	return nil
}

func (s *MemoryStore) Get(_ context.Context, ref models.DocumentRef) (*BlogDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[ref.ID()]
	if !ok {
		return nil, errs.NewNotFound("content document")
	}
	c := doc.Clone()
	return &c, nil
}

// Len reports how many documents are stored.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}
