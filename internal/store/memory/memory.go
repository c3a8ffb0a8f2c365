package memory

import (
	"context"
	"sync"

	"chatledger/internal/core"
	"chatledger/internal/store"
)

// Store keeps both ledgers in process memory. Appends prepend, so each ledger
// is newest-first; snapshots are copies and never observe later appends.
type Store struct {
	mu       sync.Mutex
	expenses []core.Transaction
	income   []core.Transaction
	byID     map[string]struct{}
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{byID: make(map[string]struct{})}
}

// Append validates t and prepends it to the ledger selected by IsIncome.
func (s *Store) Append(_ context.Context, t core.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[t.ID]; ok {
		return store.ErrDuplicate
	}
	s.byID[t.ID] = struct{}{}
	if t.IsIncome {
		s.income = prepend(s.income, t)
	} else {
		s.expenses = prepend(s.expenses, t)
	}
	return nil
}

// Snapshot returns copies of both ledgers.
func (s *Store) Snapshot(_ context.Context) (store.Ledgers, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return store.Ledgers{
		Expenses: append([]core.Transaction(nil), s.expenses...),
		Income:   append([]core.Transaction(nil), s.income...),
	}, nil
}

// Get returns the transaction with the given ID.
func (s *Store) Get(_ context.Context, id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return core.Transaction{}, store.ErrNotFound
	}
	for _, ledger := range [][]core.Transaction{s.expenses, s.income} {
		for _, t := range ledger {
			if t.ID == id {
				return t, nil
			}
		}
	}
	return core.Transaction{}, store.ErrNotFound
}

// Len returns the number of stored transactions across both ledgers.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.expenses) + len(s.income)
}

// prepend builds a fresh backing array so earlier snapshots stay untouched.
func prepend(ledger []core.Transaction, t core.Transaction) []core.Transaction {
	out := make([]core.Transaction, 0, len(ledger)+1)
	out = append(out, t)
	return append(out, ledger...)
}
