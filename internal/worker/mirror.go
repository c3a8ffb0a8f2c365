// Package worker mirrors recorded transactions into the spreadsheet.
package worker

import (
	"context"
	"errors"
	"fmt"

	"chatledger/internal/amqp"
	"chatledger/internal/cache"
	"chatledger/internal/core"
	"chatledger/internal/log"
	"chatledger/internal/sheets"
	"chatledger/internal/store"
)

// DefaultSeenCapacity bounds how many mirrored IDs are remembered for
// replay detection.
const DefaultSeenCapacity = 10000

// TransactionLoader reads a single transaction by ID.
type TransactionLoader interface {
	Get(ctx context.Context, id string) (core.Transaction, error)
}

// Consumer delivers TransactionRecorded messages until ctx is done.
type Consumer interface {
	ConsumeTransactionRecorded(ctx context.Context, handler func(context.Context, *amqp.TransactionRecordedMessage) error) error
}

// MirrorWorker copies every recorded transaction into the sheet exactly
// once per process. IDs already mirrored are skipped on redelivery.
type MirrorWorker struct {
	loader TransactionLoader
	sheet  sheets.TransactionWriter
	seen   *cache.LRUCache[string]
	logger *log.Logger
}

func NewMirrorWorker(loader TransactionLoader, sheet sheets.TransactionWriter, logger *log.Logger) *MirrorWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &MirrorWorker{
		loader: loader,
		sheet:  sheet,
		seen:   cache.NewLRUCache[string](DefaultSeenCapacity, 0),
		logger: logger.WithComponent(log.ComponentWorker),
	}
}

// Run consumes messages until ctx is cancelled.
func (w *MirrorWorker) Run(ctx context.Context, consumer Consumer) error {
	w.logger.InfoContext(ctx, "Mirror worker started")
	err := consumer.ConsumeTransactionRecorded(ctx, w.HandleTransactionRecorded)
	if errors.Is(err, context.Canceled) {
		w.logger.InfoContext(ctx, "Mirror worker stopped")
		return nil
	}
	return err
}

// HandleTransactionRecorded mirrors the transaction named by msg.
// A transaction missing from storage is logged and dropped; every other
// failure is returned so the message is redelivered.
func (w *MirrorWorker) HandleTransactionRecorded(ctx context.Context, msg *amqp.TransactionRecordedMessage) error {
	if ref, ok := w.seen.Get(msg.ID); ok {
		w.logger.DebugContext(ctx, "Transaction already mirrored",
			log.FieldTxID, msg.ID,
			"ref", ref)
		return nil
	}

	t, err := w.loader.Get(ctx, msg.ID)
	if errors.Is(err, store.ErrNotFound) {
		w.logger.WarnContext(ctx, "Transaction not found, dropping message",
			log.FieldTxID, msg.ID,
			log.FieldKind, msg.Kind.String())
		return nil
	}
	if err != nil {
		return fmt.Errorf("load transaction %s: %w", msg.ID, err)
	}

	ref, err := w.sheet.Append(ctx, t)
	if err != nil {
		return fmt.Errorf("mirror transaction %s: %w", msg.ID, err)
	}
	w.seen.Set(msg.ID, ref)

	w.logger.InfoContext(ctx, "Transaction mirrored",
		log.FieldOperation, log.OpMirror,
		log.FieldTxID, t.ID,
		log.FieldKind, t.Kind().String(),
		log.FieldAmount, t.Amount,
		"ref", ref)
	return nil
}

// Mirrored reports how many distinct transactions this worker has written.
func (w *MirrorWorker) Mirrored() int {
	return w.seen.Size()
}
