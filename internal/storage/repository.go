package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"chatledger/internal/core"
	"chatledger/internal/ledger"
	"chatledger/internal/store"

	_ "modernc.org/sqlite"
)

// SQLiteRepository persists both ledgers in a single transactions table.
// Rows are never updated or deleted; insertion order (seq) defines recency.
type SQLiteRepository struct {
	db *sql.DB
}

var _ store.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite serialises writers; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Append implements store.TransactionAppender
func (r *SQLiteRepository) Append(ctx context.Context, t core.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (id, description, amount, category, created_at, is_income)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, t.Description, t.Amount, t.Category, t.Date.Format(time.RFC3339Nano), boolToInt(t.IsIncome))
	if err != nil {
		if r.exists(ctx, t.ID) {
			return store.ErrDuplicate
		}
		return fmt.Errorf("insert transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", t.ID,
		"kind", t.Kind().String(),
		"amount", t.Amount,
		"category", t.Category)

	return nil
}

// Snapshot implements store.LedgerReader
func (r *SQLiteRepository) Snapshot(ctx context.Context) (store.Ledgers, error) {
	all, err := r.query(ctx, `SELECT id, description, amount, category, created_at, is_income
		FROM transactions ORDER BY seq DESC`)
	if err != nil {
		return store.Ledgers{}, fmt.Errorf("snapshot ledgers: %w", err)
	}

	var l store.Ledgers
	for _, t := range all {
		if t.IsIncome {
			l.Income = append(l.Income, t)
		} else {
			l.Expenses = append(l.Expenses, t)
		}
	}
	return l, nil
}

// Get implements store.TransactionGetter
func (r *SQLiteRepository) Get(ctx context.Context, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, description, amount, category, created_at, is_income
		FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, store.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %s: %w", id, err)
	}
	return t, nil
}

// ListMonth returns the newest-first transactions of one ledger that fall in
// month under mode. The month filter runs in Go so both match modes share the
// exact semantics of the ledger package.
func (r *SQLiteRepository) ListMonth(ctx context.Context, kind core.Kind, month ledger.Month, mode ledger.MatchMode) ([]core.Transaction, error) {
	all, err := r.query(ctx, `SELECT id, description, amount, category, created_at, is_income
		FROM transactions WHERE is_income = ? ORDER BY seq DESC`, boolToInt(kind == core.KindIncome))
	if err != nil {
		return nil, fmt.Errorf("list %s transactions for %s: %w", kind, month, err)
	}
	return ledger.Filter(all, month, mode), nil
}

// Count returns the number of stored transactions.
func (r *SQLiteRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}

// Ping checks the database connection for readiness probes.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) exists(ctx context.Context, id string) bool {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions WHERE id = ?`, id).Scan(&n)
	return err == nil && n > 0
}

func (r *SQLiteRepository) query(ctx context.Context, q string, args ...any) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(s scanner) (core.Transaction, error) {
	var (
		t         core.Transaction
		createdAt string
		isIncome  int64
	)
	if err := s.Scan(&t.ID, &t.Description, &t.Amount, &t.Category, &createdAt, &isIncome); err != nil {
		return core.Transaction{}, err
	}
	// created_at keeps the creation offset so month matching sees the local wall clock.
	date, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	t.Date = date
	t.IsIncome = isIncome != 0
	return t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
