package services

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"

	"kanakku/internal/amqp"
	"kanakku/internal/core"
	"kanakku/internal/ledger"
	"kanakku/internal/locale"
	"kanakku/internal/log"
	"kanakku/internal/store"
)

// Publisher announces ledger changes to other instances.
type Publisher interface {
	Publish(ctx context.Context, msg *amqp.LedgerChangedMessage) error
}

// LedgerService orchestrates transaction mutations and derived ledger views.
type LedgerService struct {
	store     store.Store
	engine    *ledger.Engine
	publisher Publisher
	origin    string
	version   atomic.Int64
	logger    *log.Logger
}

// NewLedgerService wires a store and engine. publisher may be nil and an
// empty origin is replaced by a random one.
func NewLedgerService(st store.Store, engine *ledger.Engine, publisher Publisher, origin string, logger *log.Logger) *LedgerService {
	if logger == nil {
		logger = log.Discard()
	}
	if origin == "" {
		origin = uuid.NewString()
	}
	return &LedgerService{
		store:     st,
		engine:    engine,
		publisher: publisher,
		origin:    origin,
		logger:    logger.WithComponent(log.ComponentLedger),
	}
}

// Origin identifies this instance in published change events.
func (s *LedgerService) Origin() string {
	return s.origin
}

// Version counts mutations applied through this instance.
func (s *LedgerService) Version() int64 {
	return s.version.Load()
}

// Transactions returns the stored set in insertion order.
func (s *LedgerService) Transactions(ctx context.Context) ([]core.Transaction, error) {
	txns, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txns, nil
}

// View derives the ledger of the stored set, labeled by labeler.
func (s *LedgerService) View(ctx context.Context, labeler locale.MonthLabeler) (ledger.Ledger, error) {
	txns, err := s.Transactions(ctx)
	if err != nil {
		return ledger.Ledger{}, err
	}
	return s.engine.Ledger(txns, labeler)
}

// Add stores txn under a fresh ID and returns it.
func (s *LedgerService) Add(ctx context.Context, txn core.Transaction) (core.Transaction, error) {
	txn.ID = uuid.NewString()
	if err := s.store.Save(ctx, txn); err != nil {
		return core.Transaction{}, fmt.Errorf("add transaction: %w", err)
	}
	s.changed(ctx, amqp.OpSave, log.OpCreate, txn)
	return txn, nil
}

// Edit replaces the transaction with the given ID, keeping its position. A
// missing or concurrently deleted ID yields store.ErrNotFound.
func (s *LedgerService) Edit(ctx context.Context, id string, txn core.Transaction) (core.Transaction, error) {
	txn.ID = id
	if err := s.store.Update(ctx, txn); err != nil {
		return core.Transaction{}, fmt.Errorf("edit transaction %s: %w", id, err)
	}
	s.changed(ctx, amqp.OpSave, log.OpUpdate, txn)
	return txn, nil
}

// Delete removes the transaction with the given ID.
func (s *LedgerService) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	s.changed(ctx, amqp.OpDelete, log.OpDelete, core.Transaction{ID: id})
	return nil
}

// Clear removes every transaction. Clearing an empty set succeeds.
func (s *LedgerService) Clear(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear transactions: %w", err)
	}
	s.changed(ctx, amqp.OpClear, log.OpClear, core.Transaction{})
	return nil
}

// changed bumps the version, drops derived ledgers and notifies other
// instances. Publish failures are logged only; the mutation already happened.
func (s *LedgerService) changed(ctx context.Context, op amqp.ChangeOp, logOp string, txn core.Transaction) {
	version := s.version.Add(1)
	s.engine.Purge()

	fields := log.NewFields().
		WithOperation(logOp).
		WithTransaction(txn.ID, string(txn.Type), txn.Amount.String(), txn.Category)
	fields[log.FieldVersion] = version
	s.logger.InfoContext(ctx, "Ledger changed", fields.ToSlice()...)

	if s.publisher == nil {
		return
	}
	msg := amqp.NewLedgerChangedMessage(op, txn.ID, s.origin, version)
	if err := s.publisher.Publish(ctx, msg); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish ledger change",
			log.FieldOperation, log.OpPublish,
			"change", string(op),
			log.FieldVersion, version,
			log.FieldError, err,
			log.FieldErrorType, log.ErrorTypeNetwork)
	}
}
