// Package worker runs background consumers next to the HTTP server.
package worker

import (
	"context"
	"sync/atomic"

	"kanakku/internal/amqp"
	"kanakku/internal/log"
)

// Purger drops derived state.
type Purger interface {
	Purge()
}

// Consumer delivers change events until ctx is done.
type Consumer interface {
	Consume(ctx context.Context, handler func(context.Context, *amqp.LedgerChangedMessage) error) error
}

// InvalidationWorker purges the local ledger cache when another instance
// changes the transaction set.
type InvalidationWorker struct {
	consumer Consumer
	purger   Purger
	origin   string
	logger   *log.Logger
	handled  atomic.Int64
}

func NewInvalidationWorker(consumer Consumer, purger Purger, origin string, logger *log.Logger) *InvalidationWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &InvalidationWorker{
		consumer: consumer,
		purger:   purger,
		origin:   origin,
		logger:   logger.WithComponent(log.ComponentWorker),
	}
}

// Run consumes until ctx is cancelled. Cancellation is not an error.
func (w *InvalidationWorker) Run(ctx context.Context) error {
	w.logger.InfoContext(ctx, "Invalidation worker started",
		log.FieldOperation, log.OpConsume,
		log.FieldOrigin, w.origin)
	err := w.consumer.Consume(ctx, w.Handle)
	if ctx.Err() != nil {
		w.logger.InfoContext(ctx, "Invalidation worker stopped",
			log.FieldOperation, log.OpConsume,
			log.FieldCount, w.handled.Load())
		return nil
	}
	return err
}

// Handle purges for events from other instances and skips our own.
func (w *InvalidationWorker) Handle(ctx context.Context, msg *amqp.LedgerChangedMessage) error {
	if msg.Origin == w.origin {
		return nil
	}
	w.purger.Purge()
	w.handled.Add(1)
	w.logger.DebugContext(ctx, "Purged ledger cache for remote change",
		log.FieldOperation, string(msg.Op),
		log.FieldOrigin, msg.Origin,
		log.FieldVersion, msg.Version)
	return nil
}

// Handled returns the number of remote events that caused a purge.
func (w *InvalidationWorker) Handled() int64 {
	return w.handled.Load()
}
