package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"chatledger/internal/core"
	"chatledger/internal/ledger"
	"chatledger/internal/store"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "ledger.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func sample(id string, amount float64, category string, date time.Time, income bool) core.Transaction {
	return core.Transaction{ID: id, Description: "d-" + id, Amount: amount, Category: category, Date: date, IsIncome: income}
}

func TestSQLiteRepositoryAppendAndSnapshot(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	march := time.Date(2024, 3, 10, 8, 30, 0, 123, time.UTC)
	txs := []core.Transaction{
		sample("1", 300, "Rent", march, false),
		sample("2", 1000, "Salary", march, true),
		sample("3", 12.5, "Food", march.Add(time.Hour), false),
	}
	for _, tx := range txs {
		if err := repo.Append(ctx, tx); err != nil {
			t.Fatalf("append %s: %v", tx.ID, err)
		}
	}

	snap, err := repo.Snapshot(ctx)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(snap.Expenses) != 2 || snap.Expenses[0].ID != "3" || snap.Expenses[1].ID != "1" {
		t.Fatalf("expenses not newest-first: %+v", snap.Expenses)
	}
	if len(snap.Income) != 1 || !snap.Income[0].IsIncome {
		t.Fatalf("unexpected income: %+v", snap.Income)
	}
	if !snap.Expenses[1].Date.Equal(march) {
		t.Fatalf("date round trip: got %v want %v", snap.Expenses[1].Date, march)
	}

	n, err := repo.Count(ctx)
	if err != nil || n != 3 {
		t.Fatalf("Count() = %d, %v", n, err)
	}
}

func TestSQLiteRepositoryDuplicateAndInvalid(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	now := time.Now()

	if err := repo.Append(ctx, sample("1", 5, "Food", now, false)); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := repo.Append(ctx, sample("1", 5, "Food", now, false)); !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if err := repo.Append(ctx, sample("2", -5, "Food", now, false)); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestSQLiteRepositoryGet(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	_ = repo.Append(ctx, sample("42", 7, "Books", time.Now(), false))

	got, err := repo.Get(ctx, "42")
	if err != nil || got.Category != "Books" || got.Amount != 7 {
		t.Fatalf("Get(42) = %+v, %v", got, err)
	}
	if _, err := repo.Get(ctx, "nope"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteRepositoryListMonth(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	_ = repo.Append(ctx, sample("a", 1, "A", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), false))
	_ = repo.Append(ctx, sample("b", 2, "A", time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC), false))
	_ = repo.Append(ctx, sample("c", 4, "A", time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), false))
	_ = repo.Append(ctx, sample("d", 8, "A", time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), true))

	march := ledger.Month{Year: 2024, Month: time.March}

	cal, err := repo.ListMonth(ctx, core.KindExpense, march, ledger.MatchCalendarMonth)
	if err != nil || len(cal) != 1 || cal[0].ID != "a" {
		t.Fatalf("calendar ListMonth = %+v, %v", cal, err)
	}
	moy, err := repo.ListMonth(ctx, core.KindExpense, march, ledger.MatchMonthOfYear)
	if err != nil || len(moy) != 2 {
		t.Fatalf("month-of-year ListMonth = %+v, %v", moy, err)
	}
	inc, err := repo.ListMonth(ctx, core.KindIncome, march, ledger.MatchCalendarMonth)
	if err != nil || len(inc) != 1 || inc[0].ID != "d" {
		t.Fatalf("income ListMonth = %+v, %v", inc, err)
	}
}

func TestReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.db")

	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	_ = repo.Append(ctx, sample("1", 3, "A", time.Now(), false))
	_ = repo.Close()

	repo, err = NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer repo.Close()
	if n, _ := repo.Count(ctx); n != 1 {
		t.Fatalf("Count() after reopen = %d", n)
	}
}

func TestSQLiteRepositoryKeepsCreationOffset(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	taipei := time.FixedZone("UTC+8", 8*60*60)
	tests := []struct {
		id    string
		date  time.Time
		month int
	}{
		{"first-day", time.Date(2024, 4, 1, 0, 30, 0, 0, taipei), 4},
		{"last-day", time.Date(2024, 3, 31, 23, 45, 0, 0, time.FixedZone("UTC-5", -5*60*60)), 3},
	}
	for _, tc := range tests {
		if err := repo.Append(ctx, sample(tc.id, 10, "Food", tc.date, false)); err != nil {
			t.Fatalf("append %s: %v", tc.id, err)
		}
	}

	for _, tc := range tests {
		got, err := repo.Get(ctx, tc.id)
		if err != nil {
			t.Fatalf("get %s: %v", tc.id, err)
		}
		if !got.Date.Equal(tc.date) || int(got.Date.Month()) != tc.month {
			t.Errorf("%s: date = %v, want %v in month %d", tc.id, got.Date, tc.date, tc.month)
		}
	}

	snap, err := repo.Snapshot(ctx)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	april := ledger.Month{Year: 2024, Month: time.April}
	march := ledger.Month{Year: 2024, Month: time.March}
	if got := ledger.TotalAmount(ledger.FilterCalendarMonth(snap.Expenses, april)); got != 10 {
		t.Errorf("april total = %v, want 10", got)
	}
	if got := ledger.TotalAmount(ledger.FilterCalendarMonth(snap.Expenses, march)); got != 10 {
		t.Errorf("march total = %v, want 10", got)
	}
}
