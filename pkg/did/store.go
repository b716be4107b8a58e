package did

import (
	"context"
	"errors"
	"sync"
)

// Store errors.
var (
	// ErrNotFound reports a lookup or update against a missing key.
	ErrNotFound = errors.New("did: document not found")

	// ErrMismatchedID reports a Put or Update whose key differs from the
	// document's id field.
	ErrMismatchedID = errors.New("did: key and document id must match")
)

// Store is an opaque key/value collaborator holding identity documents
// keyed by their DID string.
type Store interface {
	// Get returns the document stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) (*Document, error)

	// Put stores doc under key, overwriting any existing document.
	Put(ctx context.Context, key string, doc *Document) error

	// Update replaces the document under key; ErrNotFound if absent.
	Update(ctx context.Context, key string, doc *Document) error

	// Delete removes the document under key, if present.
	Delete(ctx context.Context, key string) error
}

// MemoryStore is the default map-backed Store. Safe for concurrent use,
// though the hub serializes all access anyway.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]*Document
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]*Document)}
}

// Get returns the document stored under key.
func (s *MemoryStore) Get(_ context.Context, key string) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[key]
	if !ok {
		return nil, ErrNotFound
	}
	return doc, nil
}

// Put stores doc under key.
func (s *MemoryStore) Put(_ context.Context, key string, doc *Document) error {
	if key != doc.ID {
		return ErrMismatchedID
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[key] = doc
	return nil
}

// Update replaces an existing document.
func (s *MemoryStore) Update(_ context.Context, key string, doc *Document) error {
	if key != doc.ID {
		return ErrMismatchedID
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[key]; !ok {
		return ErrNotFound
	}
	s.docs[key] = doc
	return nil
}

// Delete removes the document under key.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, key)
	return nil
}
