// Package csvfile reads a transaction set from a CSV export. It is a
// read-only source used by the report command.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"kanakku/internal/core"
	"kanakku/internal/store"
)

var (
	requiredColumns = []string{"id", "date", "type", "amount", "category"}
	optionalColumns = []string{"description"}
)

// Source reads transactions from a CSV file with a header row. Columns are
// matched by name, case-insensitively, in any order.
type Source struct {
	FilePath string
	// Location applies to dates without a zone. Nil means UTC.
	Location *time.Location
}

var _ store.Lister = (*Source)(nil)

func New(path string, loc *time.Location) *Source {
	return &Source{FilePath: path, Location: loc}
}

func (s *Source) List(ctx context.Context) ([]core.Transaction, error) {
	f, err := os.Open(s.FilePath)
	if err != nil {
		return nil, fmt.Errorf("opening a csv file: %w", err)
	}
	defer f.Close()
	return s.read(ctx, f)
}

func (s *Source) read(ctx context.Context, r io.Reader) ([]core.Transaction, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}
	cols, err := headerMap(header)
	if err != nil {
		return nil, err
	}

	out := []core.Transaction{}
	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV row: %w", err)
		}
		t, err := s.parse(row, cols)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *Source) parse(row []string, cols map[string]int) (core.Transaction, error) {
	get := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	date, err := parseDate(get("date"), s.Location)
	if err != nil {
		return core.Transaction{}, err
	}
	typ, err := core.ParseTransactionType(get("type"))
	if err != nil {
		return core.Transaction{}, err
	}
	amount, err := core.ParseAmount(get("amount"))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("amount %q: %w", get("amount"), err)
	}

	return core.Transaction{
		ID:          get("id"),
		Date:        date,
		Type:        typ,
		Amount:      amount,
		Category:    get("category"),
		Description: get("description"),
	}, nil
}

// headerMap maps column names to their indices.
func headerMap(header []string) (map[string]int, error) {
	columnMap := make(map[string]int)
	find := func(column string) bool {
		for i, field := range header {
			if strings.EqualFold(column, strings.TrimSpace(field)) {
				columnMap[column] = i
				return true
			}
		}
		return false
	}

	for _, column := range requiredColumns {
		if !find(column) {
			return nil, fmt.Errorf("required field '%s' not found in CSV header", column)
		}
	}
	for _, column := range optionalColumns {
		find(column)
	}
	return columnMap, nil
}

// parseDate accepts RFC 3339, "2006-01-02 15:04", "2006-01-02" or epoch
// milliseconds.
func parseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	if s == "" {
		return time.Time{}, core.ErrZeroDate
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return core.FromMillis(ms), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	for _, layout := range []string{"2006-01-02 15:04", time.DateOnly} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
