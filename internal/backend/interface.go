package backend

import (
	"context"

	"kanakku/internal/amqp"
	"kanakku/internal/store"
)

// CleanupFunc releases backend resources.
type CleanupFunc func() error

// BackendResult holds the transaction store and the optional change event
// client. Events is nil when AMQP is not configured or unreachable.
type BackendResult struct {
	Store   store.Store
	Events  *amqp.Client
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	SheetsBackend BackendType = "sheets"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, SheetsBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
