// Package sqlite persists the transaction set in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"kanakku/internal/core"
	"kanakku/internal/log"
	"kanakku/internal/store"
)

const selectColumns = `SELECT id, date_ms, type, amount, category, description FROM transactions`

type Store struct {
	db     *sql.DB
	logger *log.Logger
}

var (
	_ store.Store  = (*Store)(nil)
	_ store.Pinger = (*Store)(nil)
)

// Open creates the database at dbPath if needed and migrates it.
func Open(dbPath string, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.Discard()
	}
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer keeps upserts serialized.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, logger: logger.WithComponent(log.ComponentStorage)}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row scanner) (core.Transaction, error) {
	var (
		t      core.Transaction
		ms     int64
		typ    string
		amount string
	)
	if err := row.Scan(&t.ID, &ms, &typ, &amount, &t.Category, &t.Description); err != nil {
		return core.Transaction{}, err
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s: parse amount %q: %w", t.ID, amount, err)
	}
	t.Date = core.FromMillis(ms)
	t.Type = core.TransactionType(typ)
	t.Amount = d
	return t, nil
}

func (s *Store) List(ctx context.Context) ([]core.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+` ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	out := []core.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

func (s *Store) Get(ctx context.Context, id string) (core.Transaction, error) {
	t, err := scanTransaction(s.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, store.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %s: %w", id, err)
	}
	return t, nil
}

// Save upserts txn. An existing row keeps its seq and therefore its position.
func (s *Store) Save(ctx context.Context, txn core.Transaction) error {
	if err := txn.Validate(); err != nil {
		return &core.ValidationError{Index: -1, ID: txn.ID, Reason: err}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transactions (id, date_ms, type, amount, category, description, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			date_ms     = excluded.date_ms,
			type        = excluded.type,
			amount      = excluded.amount,
			category    = excluded.category,
			description = excluded.description,
			updated_at  = excluded.updated_at`,
		txn.ID, txn.Millis(), string(txn.Type), txn.Amount.String(), txn.Category, txn.Description,
		time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("save transaction %s: %w", txn.ID, err)
	}

	s.logger.DebugContext(ctx, "Transaction saved",
		log.NewFields().WithTransaction(txn.ID, string(txn.Type), txn.Amount.String(), txn.Category).ToSlice()...)
	return nil
}

// Update rewrites an existing row without touching its seq.
func (s *Store) Update(ctx context.Context, txn core.Transaction) error {
	if err := txn.Validate(); err != nil {
		return &core.ValidationError{Index: -1, ID: txn.ID, Reason: err}
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE transactions SET
			date_ms     = ?,
			type        = ?,
			amount      = ?,
			category    = ?,
			description = ?,
			updated_at  = ?
		WHERE id = ?`,
		txn.Millis(), string(txn.Type), txn.Amount.String(), txn.Category, txn.Description,
		time.Now().UnixMilli(), txn.ID,
	)
	if err != nil {
		return fmt.Errorf("update transaction %s: %w", txn.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update transaction %s: %w", txn.ID, err)
	}
	if n == 0 {
		return store.ErrNotFound
	}

	s.logger.DebugContext(ctx, "Transaction updated",
		log.NewFields().WithOperation(log.OpUpdate).WithTransaction(txn.ID, string(txn.Type), txn.Amount.String(), txn.Category).ToSlice()...)
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) Clear(ctx context.Context) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM transactions`)
	if err != nil {
		return fmt.Errorf("clear transactions: %w", err)
	}
	n, _ := res.RowsAffected()
	s.logger.InfoContext(ctx, "Transactions cleared", log.FieldOperation, log.OpClear, log.FieldCount, n)
	return nil
}
