// Package sheets defines the spreadsheet mirror ports.
package sheets

import (
	"context"

	"chatledger/internal/core"
)

// TransactionWriter appends a transaction to the mirror and returns a
// reference to the written row.
type TransactionWriter interface {
	Append(ctx context.Context, t core.Transaction) (string, error)
}
