// Package store defines the ports through which the transaction set is read
// and mutated. Implementations live in the subpackages.
package store

import (
	"context"
	"errors"

	"kanakku/internal/core"
)

var (
	// ErrNotFound is returned when no transaction has the requested ID.
	ErrNotFound = errors.New("transaction not found")
	// ErrReadOnly is returned by sources that cannot be mutated.
	ErrReadOnly = errors.New("store is read-only")
)

// Ports for transaction storage.
type (
	// Lister returns the whole transaction set in a stable insertion order.
	Lister interface {
		List(ctx context.Context) ([]core.Transaction, error)
	}

	// Store is a mutable transaction set.
	Store interface {
		Lister
		Get(ctx context.Context, id string) (core.Transaction, error)
		// Save inserts txn, or replaces the transaction with the same ID in
		// place so its position in List is preserved.
		Save(ctx context.Context, txn core.Transaction) error
		// Update replaces the transaction with txn.ID in place and returns
		// ErrNotFound when there is none.
		Update(ctx context.Context, txn core.Transaction) error
		Delete(ctx context.Context, id string) error
		// Clear removes every transaction.
		Clear(ctx context.Context) error
	}

	// Pinger is implemented by stores that can report their health.
	Pinger interface {
		Ping(ctx context.Context) error
	}
)
