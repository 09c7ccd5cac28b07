package memory

import (
	"context"
	"sync"

	"budget/internal/core"
	"budget/internal/store"
)

// Store keeps the budget document in process memory. Nothing survives a
// restart.
type Store struct {
	mu    sync.Mutex
	doc   core.Document
	saves int
	// FailSave, when set, is returned from every Save wrapped in a SaveError.
	FailSave error
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{doc: core.NewDocument()}
}

// NewWithDocument seeds the store with a copy of doc.
func NewWithDocument(doc core.Document) *Store {
	seed := doc.Clone()
	seed.EnsureIDs()
	return &Store{doc: seed}
}

// Load returns a copy of the stored document.
func (s *Store) Load(_ context.Context) (core.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone(), nil
}

// Save replaces the stored document with a copy of doc.
func (s *Store) Save(_ context.Context, doc core.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailSave != nil {
		return &store.SaveError{Path: "memory", Err: s.FailSave}
	}
	s.doc = doc.Clone()
	s.saves++
	return nil
}

// Saves reports how many successful saves happened.
func (s *Store) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
