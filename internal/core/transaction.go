package core

import (
	"errors"
	"math"
	"strings"
	"time"
)

// DefaultCategory is applied when a transaction is recorded without a label.
const DefaultCategory = "General"

const (
	KindExpense Kind = "expense"
	KindIncome  Kind = "income"
)

type (
	// Kind names the ledger a transaction lives in.
	Kind string

	// Transaction is a single recorded expense or income entry.
	// Values are immutable once created; there is no edit or delete path.
	Transaction struct {
		ID          string
		Description string
		Amount      float64
		Category    string // category for expenses, source for income
		Date        time.Time
		IsIncome    bool
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrEmptyID       = errors.New("empty transaction id")
	ErrZeroDate      = errors.New("date cannot be zero")
	ErrInvalidKind   = errors.New("invalid transaction kind")
)

// ParseKind accepts "expense" or "income" (case-insensitive).
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindExpense:
		return KindExpense, nil
	case KindIncome:
		return KindIncome, nil
	}
	return "", ErrInvalidKind
}

// String implements fmt.Stringer
func (k Kind) String() string {
	return string(k)
}

// Kind reports which ledger the transaction belongs to.
func (t Transaction) Kind() Kind {
	if t.IsIncome {
		return KindIncome
	}
	return KindExpense
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return ErrEmptyID
	}
	if t.Date.IsZero() {
		return ErrZeroDate
	}
	if math.IsNaN(t.Amount) || math.IsInf(t.Amount, 0) || t.Amount < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// NewTransaction builds a transaction stamped with the given clock reading.
// An empty category falls back to DefaultCategory; every other label is kept verbatim.
func NewTransaction(ids *IDSource, now time.Time, description string, amount float64, category string, isIncome bool) (Transaction, error) {
	if category == "" {
		category = DefaultCategory
	}
	t := Transaction{
		ID:          ids.Next(now),
		Description: description,
		Amount:      amount,
		Category:    category,
		Date:        now,
		IsIncome:    isIncome,
	}
	if err := t.Validate(); err != nil {
		return Transaction{}, err
	}
	return t, nil
}
