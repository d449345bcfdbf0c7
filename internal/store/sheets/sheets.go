// Package sheets stores the transaction set in a Google Sheets tab, one row
// per transaction below a header row.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"kanakku/internal/core"
	"kanakku/internal/log"
	"kanakku/internal/store"
)

// Config selects the spreadsheet and the service account used to reach it.
type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON []byte
}

type Store struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	logger        *log.Logger

	// Serializes read-modify-write cycles from this process.
	mu      sync.Mutex
	sheetID *int64
}

var (
	_ store.Store  = (*Store)(nil)
	_ store.Pinger = (*Store)(nil)
)

// New connects with service account credentials and writes the header row
// when the sheet is empty.
func New(ctx context.Context, cfg Config, logger *log.Logger) (*Store, error) {
	if cfg.SpreadsheetID == "" {
		return nil, errors.New("missing spreadsheet ID")
	}
	if len(cfg.CredentialsJSON) == 0 {
		return nil, errors.New("missing service account credentials")
	}
	if logger == nil {
		logger = log.Discard()
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(cfg.CredentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	s := &Store{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     cfg.SheetName,
		logger:        logger.WithComponent(log.ComponentSheets),
	}
	if err := s.ensureHeader(ctx); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "Google Sheets store ready", "sheet", cfg.SheetName)
	return s, nil
}

func (s *Store) rng(a1 string) string {
	return fmt.Sprintf("'%s'!%s", s.sheetName, a1)
}

func (s *Store) ensureHeader(ctx context.Context) error {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, s.rng("A1:"+lastColumn+"1")).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read header of %s: %w", s.sheetName, err)
	}
	if len(resp.Values) > 0 && len(resp.Values[0]) > 0 {
		return nil
	}
	vr := &gsheet.ValueRange{Values: [][]any{header}}
	_, err = s.svc.Spreadsheets.Values.Update(s.spreadsheetID, s.rng("A1:"+lastColumn+"1"), vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write header of %s: %w", s.sheetName, err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	_, err := s.svc.Spreadsheets.Get(s.spreadsheetID).Fields("spreadsheetId").Context(ctx).Do()
	return err
}

func (s *Store) readAll(ctx context.Context) ([]core.Transaction, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, s.rng("A2:"+lastColumn)).
		ValueRenderOption("UNFORMATTED_VALUE").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.sheetName, err)
	}
	return parseRows(resp.Values)
}

func (s *Store) List(ctx context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readAll(ctx)
}

func (s *Store) Get(ctx context.Context, id string) (core.Transaction, error) {
	items, err := s.List(ctx)
	if err != nil {
		return core.Transaction{}, err
	}
	i := indexOf(items, id)
	if i < 0 {
		return core.Transaction{}, store.ErrNotFound
	}
	return items[i], nil
}

func (s *Store) Save(ctx context.Context, txn core.Transaction) error {
	if err := txn.Validate(); err != nil {
		return &core.ValidationError{Index: -1, ID: txn.ID, Reason: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.readAll(ctx)
	if err != nil {
		return err
	}
	vr := &gsheet.ValueRange{Values: [][]any{formatRow(txn)}}

	if i := indexOf(items, txn.ID); i >= 0 {
		return s.writeRow(ctx, i, vr)
	}

	_, err = s.svc.Spreadsheets.Values.Append(s.spreadsheetID, s.rng("A:"+lastColumn), vr).
		ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append to %s: %w", s.sheetName, err)
	}
	return nil
}

// Update rewrites the row holding txn.ID.
func (s *Store) Update(ctx context.Context, txn core.Transaction) error {
	if err := txn.Validate(); err != nil {
		return &core.ValidationError{Index: -1, ID: txn.ID, Reason: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.readAll(ctx)
	if err != nil {
		return err
	}
	i := indexOf(items, txn.ID)
	if i < 0 {
		return store.ErrNotFound
	}
	return s.writeRow(ctx, i, &gsheet.ValueRange{Values: [][]any{formatRow(txn)}})
}

// writeRow overwrites the data row at index i, below the header.
func (s *Store) writeRow(ctx context.Context, i int, vr *gsheet.ValueRange) error {
	row := i + 2
	_, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, s.rng(fmt.Sprintf("A%d:%s%d", row, lastColumn, row)), vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update row %d in %s: %w", row, s.sheetName, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.readAll(ctx)
	if err != nil {
		return err
	}
	i := indexOf(items, id)
	if i < 0 {
		return store.ErrNotFound
	}

	sheetID, err := s.resolveSheetID(ctx)
	if err != nil {
		return err
	}
	// Zero-based and end-exclusive; row 0 is the header.
	req := &gsheet.BatchUpdateSpreadsheetRequest{Requests: []*gsheet.Request{{
		DeleteDimension: &gsheet.DeleteDimensionRequest{Range: &gsheet.DimensionRange{
			SheetId:    sheetID,
			Dimension:  "ROWS",
			StartIndex: int64(i + 1),
			EndIndex:   int64(i + 2),
		}},
	}}}
	if _, err := s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete row for %s: %w", id, err)
	}
	return nil
}

func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.svc.Spreadsheets.Values.Clear(s.spreadsheetID, s.rng("A2:"+lastColumn), &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear %s: %w", s.sheetName, err)
	}
	return nil
}

func (s *Store) resolveSheetID(ctx context.Context) (int64, error) {
	if s.sheetID != nil {
		return *s.sheetID, nil
	}
	ss, err := s.svc.Spreadsheets.Get(s.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == s.sheetName {
			id := sh.Properties.SheetId
			s.sheetID = &id
			return id, nil
		}
	}
	return 0, fmt.Errorf("sheet %q not found", s.sheetName)
}

func indexOf(items []core.Transaction, id string) int {
	return slices.IndexFunc(items, func(t core.Transaction) bool { return t.ID == id })
}
