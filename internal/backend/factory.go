package backend

import (
	"context"
	"fmt"

	"chatledger/internal/core"
	"chatledger/internal/log"
	"chatledger/internal/storage"
	"chatledger/internal/store/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
	ids    *core.IDSource
}

// NewFactory creates a new backend factory. Seeded entries without an ID
// draw one from ids.
func NewFactory(logger *log.Logger, ids *core.IDSource) *DefaultFactory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	if ids == nil {
		ids = core.NewIDSource()
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentStore),
		ids:    ids,
	}
}

var _ Factory = (*DefaultFactory)(nil)

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*Result, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	// A persistent ledger is seeded only on first start.
	count, err := repo.Count(ctx)
	if err != nil {
		repo.Close()
		return nil, fmt.Errorf("count transactions: %w", err)
	}
	if count == 0 {
		n, err := memory.Seed(ctx, repo, config.SeedFile, f.ids)
		if err != nil {
			repo.Close()
			return nil, err
		}
		count = int64(n)
	}

	f.logger.InfoContext(ctx, "Initialized SQLite backend",
		"db_path", config.SQLiteDBPath,
		"transactions", count)

	return &Result{
		Store:   repo,
		Ping:    repo.Ping,
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(ctx context.Context, config Config) (*Result, error) {
	s, err := memory.NewFromFile(config.SeedFile, f.ids)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize memory store: %w", err)
	}

	f.logger.InfoContext(ctx, "Initialized memory backend",
		"seed_file", config.SeedFile,
		"transactions", s.Len())

	return &Result{
		Store: s,
		Ping:  func(context.Context) error { return nil },
	}, nil
}
