package backend

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"chatledger/internal/config"
)

const seedYAML = `transactions:
  - description: Salary
    amount: 1000
    category: Salary
    date: 2024-03-05T09:00:00Z
    income: true
  - description: March rent
    amount: 300
    category: Rent
    date: 2024-03-10T09:00:00Z
`

func writeSeed(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(path, []byte(seedYAML), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFromAppConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.Config
		want    BackendType
		wantErr bool
	}{
		{"nil config", nil, "", true},
		{"memory", &config.Config{DataBackend: "memory"}, MemoryBackend, false},
		{"sqlite", &config.Config{DataBackend: "sqlite", SQLiteDBPath: "x.db"}, SQLiteBackend, false},
		{"sheets is no longer a store", &config.Config{DataBackend: "sheets"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromAppConfig(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("FromAppConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got.Type != tt.want {
				t.Errorf("Type = %q, want %q", got.Type, tt.want)
			}
		})
	}
}

func TestConfigValidate(t *testing.T) {
	if err := (Config{Type: SQLiteBackend}).Validate(); err == nil {
		t.Error("sqlite without path should be invalid")
	}
	if err := (Config{Type: "bogus"}).Validate(); err == nil {
		t.Error("unknown type should be invalid")
	}
	if err := (Config{Type: MemoryBackend}).Validate(); err != nil {
		t.Errorf("memory backend: %v", err)
	}
	if got := GetBackendTypeStrings(); len(got) != 2 || got[0] != "sqlite" || got[1] != "memory" {
		t.Errorf("GetBackendTypeStrings() = %v", got)
	}
}

func TestCreateMemoryBackend(t *testing.T) {
	ctx := context.Background()
	res, err := NewFactory(nil, nil).CreateBackend(ctx, Config{Type: MemoryBackend, SeedFile: writeSeed(t)})
	if err != nil {
		t.Fatalf("CreateBackend() error = %v", err)
	}
	defer res.Close()

	if err := res.Ping(ctx); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
	snap, err := res.Store.Snapshot(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Expenses) != 1 || len(snap.Income) != 1 {
		t.Errorf("seeded %d expenses and %d income", len(snap.Expenses), len(snap.Income))
	}
}

func TestCreateSQLiteBackendSeedsOnce(t *testing.T) {
	ctx := context.Background()
	seed := writeSeed(t)
	cfg := Config{
		Type:         SQLiteBackend,
		SQLiteDBPath: filepath.Join(t.TempDir(), "ledger.db"),
		SeedFile:     seed,
	}
	factory := NewFactory(nil, nil)

	for round := 0; round < 2; round++ {
		res, err := factory.CreateBackend(ctx, cfg)
		if err != nil {
			t.Fatalf("round %d: CreateBackend() error = %v", round, err)
		}
		if err := res.Ping(ctx); err != nil {
			t.Errorf("round %d: Ping() error = %v", round, err)
		}
		snap, err := res.Store.Snapshot(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if total := len(snap.Expenses) + len(snap.Income); total != 2 {
			t.Errorf("round %d: %d transactions, want 2", round, total)
		}
		if err := res.Close(); err != nil {
			t.Errorf("round %d: Close() error = %v", round, err)
		}
	}
}
