// Package memory keeps the transaction set in process memory, optionally
// seeded from a JSON file.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"sync"

	"kanakku/internal/core"
	"kanakku/internal/store"
)

type Store struct {
	mu    sync.Mutex
	items []core.Transaction
}

var _ store.Store = (*Store)(nil)

// New returns a store holding a copy of seed.
func New(seed ...core.Transaction) *Store {
	return &Store{items: slices.Clone(seed)}
}

// NewFromFile seeds the store from a JSON array of transactions. An empty
// path gives an empty store.
func NewFromFile(path string) (*Store, error) {
	if path == "" {
		return New(), nil
	}
	seed, err := LoadSeed(path)
	if err != nil {
		return nil, err
	}
	return New(seed...), nil
}

// LoadSeed reads and validates a JSON seed file.
func LoadSeed(path string) ([]core.Transaction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var seed []core.Transaction
	if err := json.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	for i, t := range seed {
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("seed file %s: %w", path, &core.ValidationError{Index: i, ID: t.ID, Reason: err})
		}
	}
	return seed, nil
}

func (s *Store) List(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.items), nil
}

func (s *Store) Get(_ context.Context, id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		return s.items[i], nil
	}
	return core.Transaction{}, store.ErrNotFound
}

func (s *Store) Save(_ context.Context, txn core.Transaction) error {
	if err := txn.Validate(); err != nil {
		return &core.ValidationError{Index: -1, ID: txn.ID, Reason: err}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(txn.ID); i >= 0 {
		s.items[i] = txn
		return nil
	}
	s.items = append(s.items, txn)
	return nil
}

func (s *Store) Update(_ context.Context, txn core.Transaction) error {
	if err := txn.Validate(); err != nil {
		return &core.ValidationError{Index: -1, ID: txn.ID, Reason: err}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(txn.ID)
	if i < 0 {
		return store.ErrNotFound
	}
	s.items[i] = txn
	return nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return store.ErrNotFound
	}
	s.items = slices.Delete(s.items, i, i+1)
	return nil
}

func (s *Store) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	return nil
}

func (s *Store) indexOf(id string) int {
	return slices.IndexFunc(s.items, func(t core.Transaction) bool { return t.ID == id })
}
