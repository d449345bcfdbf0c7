package backend

import (
	"context"
	"errors"
	"fmt"
	"os"

	"kanakku/internal/amqp"
	"kanakku/internal/log"
	"kanakku/internal/store"
	"kanakku/internal/store/memory"
	"kanakku/internal/store/sheets"
	"kanakku/internal/store/sqlite"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		result *BackendResult
		err    error
	)
	switch config.Type {
	case SQLiteBackend:
		result, err = f.createSQLiteBackend(config)
	case SheetsBackend:
		result, err = f.createSheetsBackend(ctx, config)
	case MemoryBackend:
		result, err = f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	if config.Type != MemoryBackend && config.SeedFile != "" {
		if err := seedIfEmpty(ctx, result.Store, config.SeedFile); err != nil {
			result.Cleanup()
			return nil, err
		}
	}

	f.attachEvents(config, result)
	return result, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	st, err := sqlite.Open(config.SQLiteDBPath, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
	}
	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	return &BackendResult{Store: st, Cleanup: st.Close}, nil
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context, config Config) (*BackendResult, error) {
	creds := []byte(config.GoogleServiceAccountJSON)
	if len(creds) == 0 {
		b, err := os.ReadFile(config.GoogleServiceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		creds = b
	}

	st, err := sheets.New(ctx, sheets.Config{
		SpreadsheetID:   config.GoogleSpreadsheetID,
		SheetName:       config.GoogleSheetName,
		CredentialsJSON: creds,
	}, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets store: %w", err)
	}
	f.logger.Info("Initialized Google Sheets backend", "sheet", config.GoogleSheetName)
	return &BackendResult{Store: st, Cleanup: func() error { return nil }}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	st, err := memory.NewFromFile(config.SeedFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize memory store: %w", err)
	}
	f.logger.Info("Initialized memory backend", "seed_file", config.SeedFile)
	return &BackendResult{Store: st, Cleanup: func() error { return nil }}, nil
}

// attachEvents connects the change event client. A broker that cannot be
// reached leaves the backend usable without cross-instance invalidation.
func (f *DefaultFactory) attachEvents(config Config, result *BackendResult) {
	if config.AMQPURL == "" {
		return
	}
	client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.QueueName(), f.logger)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP client, continuing without change events", log.FieldError, err)
		return
	}
	f.logger.Info("Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"queue", config.QueueName())

	result.Events = client
	storeCleanup := result.Cleanup
	result.Cleanup = func() error {
		return errors.Join(client.Close(), storeCleanup())
	}
}

// seedIfEmpty loads a JSON seed into st when it holds no transactions.
func seedIfEmpty(ctx context.Context, st store.Store, path string) error {
	existing, err := st.List(ctx)
	if err != nil {
		return fmt.Errorf("check store before seeding: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}
	seed, err := memory.LoadSeed(path)
	if err != nil {
		return err
	}
	for _, t := range seed {
		if err := st.Save(ctx, t); err != nil {
			return fmt.Errorf("seed transaction %s: %w", t.ID, err)
		}
	}
	return nil
}
