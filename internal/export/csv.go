// Package export writes ledger transactions as CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	"chatledger/internal/core"
)

// Header is the first CSV record.
var Header = []string{"date", "kind", "description", "amount", "category", "id"}

// DateLayout formats the date column.
const DateLayout = "2006-01-02"

// Options control the CSV dialect.
type Options struct {
	Comma rune // defaults to ','
	BOM   bool // prefix a UTF-8 byte order mark for spreadsheet apps
}

// WriteCSV writes txs oldest first, ties kept in input order.
func WriteCSV(w io.Writer, txs []core.Transaction, opts Options) error {
	if opts.BOM {
		if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return fmt.Errorf("write BOM: %w", err)
		}
	}

	sorted := make([]core.Transaction, len(txs))
	copy(sorted, txs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	writer := csv.NewWriter(w)
	if opts.Comma != 0 {
		writer.Comma = opts.Comma
	}

	if err := writer.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, t := range sorted {
		record := []string{
			t.Date.Format(DateLayout),
			t.Kind().String(),
			t.Description,
			strconv.FormatFloat(t.Amount, 'f', 2, 64),
			t.Category,
			t.ID,
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write transaction %s: %w", t.ID, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
