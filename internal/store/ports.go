package store

import (
	"context"

	"chatledger/internal/core"
)

// Ledgers is a point-in-time copy of both transaction sequences, newest first.
type Ledgers struct {
	Expenses []core.Transaction
	Income   []core.Transaction
}

// Ports implemented by the transaction stores.
type (
	// TransactionAppender records a new transaction at the head of its ledger.
	TransactionAppender interface {
		Append(ctx context.Context, t core.Transaction) error
	}

	// LedgerReader returns snapshots that later appends never modify.
	LedgerReader interface {
		Snapshot(ctx context.Context) (Ledgers, error)
	}

	// TransactionGetter looks a transaction up by ID.
	TransactionGetter interface {
		Get(ctx context.Context, id string) (core.Transaction, error)
	}

	// Store is the full transaction store used by the application shell.
	Store interface {
		TransactionAppender
		LedgerReader
		TransactionGetter
	}
)
