package memory

import (
	"context"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"chatledger/internal/core"
	"chatledger/internal/store"
)

// seedFile is the YAML layout accepted by NewFromFile.
//
//	transactions:
//	  - description: March rent
//	    amount: 300
//	    category: Rent
//	    date: 2024-03-10T09:00:00Z
//	  - description: Salary
//	    amount: 1000
//	    category: Salary
//	    date: 2024-03-05T09:00:00Z
//	    income: true
type seedFile struct {
	Transactions []seedTransaction `yaml:"transactions"`
}

type seedTransaction struct {
	ID          string    `yaml:"id"`
	Description string    `yaml:"description"`
	Amount      float64   `yaml:"amount"`
	Category    string    `yaml:"category"`
	Date        time.Time `yaml:"date"`
	Income      bool      `yaml:"income"`
}

// NewFromFile creates a store seeded from a YAML fixture. Entries are appended
// in file order, so a chronologically ordered file yields newest-first ledgers.
// A missing file yields an empty store.
func NewFromFile(path string, ids *core.IDSource) (*Store, error) {
	s := New()
	if _, err := Seed(context.Background(), s, path, ids); err != nil {
		return nil, err
	}
	return s, nil
}

// Seed appends the fixture entries at path to dst and reports how many were
// written. An empty path or a missing file seeds nothing.
func Seed(ctx context.Context, dst store.TransactionAppender, path string, ids *core.IDSource) (int, error) {
	if path == "" {
		return 0, nil
	}
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read seed file: %w", err)
	}

	var f seedFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return 0, fmt.Errorf("parse seed file %s: %w", path, err)
	}

	for i, st := range f.Transactions {
		t := core.Transaction{
			ID:          st.ID,
			Description: st.Description,
			Amount:      st.Amount,
			Category:    st.Category,
			Date:        st.Date,
			IsIncome:    st.Income,
		}
		if t.Category == "" {
			t.Category = core.DefaultCategory
		}
		if t.ID == "" {
			t.ID = ids.Next(t.Date)
		}
		if err := dst.Append(ctx, t); err != nil {
			return i, fmt.Errorf("seed entry %d: %w", i, err)
		}
	}
	return len(f.Transactions), nil
}
