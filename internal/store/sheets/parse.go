package sheets

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"kanakku/internal/core"
)

// Column order of the ledger sheet.
var header = []any{"ID", "Date", "Type", "Amount", "Category", "Description"}

const lastColumn = "F"

// formatRow encodes a transaction as a sheet row. The date is epoch
// milliseconds and the amount is written as text to keep it exact.
func formatRow(t core.Transaction) []any {
	return []any{t.ID, t.Millis(), string(t.Type), t.Amount.String(), t.Category, t.Description}
}

// parseRow decodes a row read with unformatted values.
func parseRow(row []any) (core.Transaction, error) {
	if len(row) < 5 {
		return core.Transaction{}, fmt.Errorf("expected at least 5 cells, got %d", len(row))
	}

	id := cellString(row, 0)
	ms, err := cellInt(row, 1)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("row %q: date: %w", id, err)
	}
	typ, err := core.ParseTransactionType(cellString(row, 2))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("row %q: %w", id, err)
	}
	amount, err := decimal.NewFromString(cellString(row, 3))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("row %q: amount: %w", id, err)
	}

	return core.Transaction{
		ID:          id,
		Date:        core.FromMillis(ms),
		Type:        typ,
		Amount:      amount,
		Category:    cellString(row, 4),
		Description: cellString(row, 5),
	}, nil
}

// parseRows decodes every non-blank row. Rows are numbered from the first
// data row for error messages.
func parseRows(values [][]any) ([]core.Transaction, error) {
	out := make([]core.Transaction, 0, len(values))
	for i, row := range values {
		if isBlank(row) {
			continue
		}
		t, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("sheet row %d: %w", i+2, err)
		}
		out = append(out, t)
	}
	return out, nil
}

func isBlank(row []any) bool {
	for i := range row {
		if cellString(row, i) != "" {
			return false
		}
	}
	return true
}

func cellString(row []any, i int) string {
	if i >= len(row) || row[i] == nil {
		return ""
	}
	switch v := row[i].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func cellInt(row []any, i int) (int64, error) {
	if i >= len(row) {
		return 0, fmt.Errorf("missing cell")
	}
	switch v := row[i].(type) {
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("not an integer: %v", v)
		}
		return int64(v), nil
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case json.Number:
		return v.Int64()
	default:
		return strconv.ParseInt(cellString(row, i), 10, 64)
	}
}
