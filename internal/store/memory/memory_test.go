package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"chatledger/internal/core"
	"chatledger/internal/store"
)

func mustTx(id string, amount float64, income bool) core.Transaction {
	return core.Transaction{
		ID:       id,
		Amount:   amount,
		Category: "A",
		Date:     time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		IsIncome: income,
	}
}

func TestMemoryStoreAppendPrependsPerLedger(t *testing.T) {
	ctx := context.Background()
	s := New()

	for _, tx := range []core.Transaction{mustTx("1", 1, false), mustTx("2", 2, true), mustTx("3", 3, false)} {
		if err := s.Append(ctx, tx); err != nil {
			t.Fatalf("append %s: %v", tx.ID, err)
		}
	}

	snap, err := s.Snapshot(ctx)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(snap.Expenses) != 2 || snap.Expenses[0].ID != "3" || snap.Expenses[1].ID != "1" {
		t.Fatalf("unexpected expenses: %+v", snap.Expenses)
	}
	if len(snap.Income) != 1 || snap.Income[0].ID != "2" {
		t.Fatalf("unexpected income: %+v", snap.Income)
	}
	if s.Len() != 3 {
		t.Fatalf("Len() = %d", s.Len())
	}
}

func TestMemoryStoreSnapshotIsIsolated(t *testing.T) {
	ctx := context.Background()
	s := New()
	_ = s.Append(ctx, mustTx("1", 1, false))

	snap, _ := s.Snapshot(ctx)
	_ = s.Append(ctx, mustTx("2", 2, false))

	if len(snap.Expenses) != 1 || snap.Expenses[0].ID != "1" {
		t.Fatalf("snapshot changed after append: %+v", snap.Expenses)
	}
}

func TestMemoryStoreRejectsInvalidAndDuplicate(t *testing.T) {
	ctx := context.Background()
	s := New()
	if err := s.Append(ctx, mustTx("1", -1, false)); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if err := s.Append(ctx, mustTx("1", 1, false)); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := s.Append(ctx, mustTx("1", 1, true)); !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestMemoryStoreGet(t *testing.T) {
	ctx := context.Background()
	s := New()
	_ = s.Append(ctx, mustTx("1", 1, true))

	got, err := s.Get(ctx, "1")
	if err != nil || got.ID != "1" || !got.IsIncome {
		t.Fatalf("Get(1) = %+v, %v", got, err)
	}
	if _, err := s.Get(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestNewFromFileSeeds(t *testing.T) {
	dir := t.TempDir()

	// Missing file -> empty store
	s, err := NewFromFile(filepath.Join(dir, "missing.yaml"), core.NewIDSource())
	if err != nil || s.Len() != 0 {
		t.Fatalf("expected empty store, got len=%d err=%v", s.Len(), err)
	}

	path := filepath.Join(dir, "seed.yaml")
	content := `transactions:
  - description: Salary
    amount: 1000
    category: Salary
    date: 2024-03-05T09:00:00Z
    income: true
  - description: Rent
    amount: 300
    category: Rent
    date: 2024-03-10T09:00:00Z
  - description: Snack
    amount: 5
    date: 2024-03-11T09:00:00Z
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}

	s, err = NewFromFile(path, core.NewIDSource())
	if err != nil {
		t.Fatalf("NewFromFile: %v", err)
	}
	snap, _ := s.Snapshot(context.Background())
	if len(snap.Expenses) != 2 || snap.Expenses[0].Description != "Snack" {
		t.Fatalf("unexpected expenses: %+v", snap.Expenses)
	}
	if snap.Expenses[0].Category != core.DefaultCategory {
		t.Fatalf("expected default category, got %q", snap.Expenses[0].Category)
	}
	if len(snap.Income) != 1 || snap.Income[0].Amount != 1000 {
		t.Fatalf("unexpected income: %+v", snap.Income)
	}
}

func TestNewFromFileRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(path, []byte("transactions: [\n"), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	if _, err := NewFromFile(path, core.NewIDSource()); err == nil {
		t.Fatalf("expected parse error")
	}
}
