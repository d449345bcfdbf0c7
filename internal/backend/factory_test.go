package backend

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"kanakku/internal/config"
)

const seedJSON = `[
	{"id":"1","date":"2024-01-01T10:00:00Z","type":"INCOME","amount":"100","category":"Salary"},
	{"id":"2","date":"2024-01-05T10:00:00Z","type":"EXPENSE","amount":"40","category":"Food"}
]`

func writeSeed(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.json")
	if err := os.WriteFile(path, []byte(seedJSON), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFromAppConfig(t *testing.T) {
	cfg, err := FromAppConfig(&config.Config{
		DataBackend:  "sqlite",
		SQLiteDBPath: "x.db",
		AMQPURL:      "amqp://localhost/",
		AMQPExchange: "kanakku",
		AMQPQueue:    "ledger_changes",
	}, "abc")
	if err != nil {
		t.Fatalf("FromAppConfig() error = %v", err)
	}
	if cfg.Type != SQLiteBackend || cfg.SQLiteDBPath != "x.db" {
		t.Errorf("FromAppConfig() = %+v", cfg)
	}
	if cfg.QueueName() != "ledger_changes.abc" {
		t.Errorf("QueueName() = %q", cfg.QueueName())
	}

	if _, err := FromAppConfig(nil, ""); err == nil {
		t.Error("expected error for nil config")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "postgres"}, ""); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{name: "memory", config: Config{Type: MemoryBackend}},
		{name: "sqlite without path", config: Config{Type: SQLiteBackend}, wantErr: true},
		{name: "sheets without credentials", config: Config{Type: SheetsBackend, GoogleSpreadsheetID: "x", GoogleSheetName: "y"}, wantErr: true},
		{name: "amqp without queue", config: Config{Type: MemoryBackend, AMQPURL: "amqp://x/", AMQPExchange: "e"}, wantErr: true},
		{name: "invalid type", config: Config{Type: "nope"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.config.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateBackend_Memory(t *testing.T) {
	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: MemoryBackend, SeedFile: writeSeed(t)})
	if err != nil {
		t.Fatalf("CreateBackend() error = %v", err)
	}
	defer res.Cleanup()

	if res.Events != nil {
		t.Error("Events should be nil without AMQP configuration")
	}
	txns, _ := res.Store.List(context.Background())
	if len(txns) != 2 {
		t.Errorf("seeded %d transactions, want 2", len(txns))
	}
}

func TestCreateBackend_SQLiteSeedsOnce(t *testing.T) {
	ctx := context.Background()
	cfg := Config{
		Type:         SQLiteBackend,
		SQLiteDBPath: filepath.Join(t.TempDir(), "db", "kanakku.db"),
		SeedFile:     writeSeed(t),
	}

	res, err := NewFactory(nil).CreateBackend(ctx, cfg)
	if err != nil {
		t.Fatalf("CreateBackend() error = %v", err)
	}
	if err := res.Store.Delete(ctx, "1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := res.Cleanup(); err != nil {
		t.Fatalf("Cleanup() error = %v", err)
	}

	res, err = NewFactory(nil).CreateBackend(ctx, cfg)
	if err != nil {
		t.Fatalf("second CreateBackend() error = %v", err)
	}
	defer res.Cleanup()

	txns, _ := res.Store.List(ctx)
	if len(txns) != 1 {
		t.Errorf("non-empty store must not be reseeded, got %d transactions", len(txns))
	}
}
