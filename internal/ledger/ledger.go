// Package ledger derives running balances and month buckets from a
// transaction set. Everything here is recomputed from the input on every
// call; nothing is stored between calls except by the memoizing Engine.
package ledger

import (
	"slices"

	"github.com/shopspring/decimal"

	"kanakku/internal/core"
)

// Summary holds totals over a transaction set.
type Summary struct {
	Count   int             `json:"count"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Balance decimal.Decimal `json:"balance"`
}

// Ledger is the derived view of a transaction set.
type Ledger struct {
	// Entries are most recent first.
	Entries []AnnotatedTransaction `json:"entries"`
	Months  Grouping               `json:"months"`
	Summary Summary                `json:"summary"`
}

// IsEmpty reports whether the ledger has no transactions.
func (l Ledger) IsEmpty() bool {
	return len(l.Entries) == 0
}

// Derive runs the balance calculator and the grouping indexer in sequence.
func Derive(txns []core.Transaction, monthKey MonthKeyFunc) Ledger {
	entries := ComputeRunningBalances(txns)
	return Ledger{
		Entries: entries,
		Months:  GroupByMonth(entries, monthKey),
		Summary: summarize(entries),
	}
}

// DeriveStrict validates txns before deriving. On error no ledger is returned.
func DeriveStrict(txns []core.Transaction, monthKey MonthKeyFunc) (Ledger, error) {
	if err := Validate(txns); err != nil {
		return Ledger{}, err
	}
	return Derive(txns, monthKey), nil
}

// Validate returns a *core.ValidationError for the first malformed
// transaction, or nil.
func Validate(txns []core.Transaction) error {
	for i, t := range txns {
		if err := t.Validate(); err != nil {
			return &core.ValidationError{Index: i, ID: t.ID, Reason: err}
		}
	}
	return nil
}

func summarize(entries []AnnotatedTransaction) Summary {
	s := Summary{
		Count:   len(entries),
		Income:  decimal.Zero,
		Expense: decimal.Zero,
		Balance: decimal.Zero,
	}
	for _, e := range entries {
		if e.Type == core.Income {
			s.Income = s.Income.Add(e.Amount)
		} else {
			s.Expense = s.Expense.Add(e.Amount)
		}
	}
	if len(entries) > 0 {
		s.Balance = entries[0].RunningBalance
	}
	return s
}

// Clone returns a deep copy that shares no slices with l.
func (l Ledger) Clone() Ledger {
	return Ledger{
		Entries: slices.Clone(l.Entries),
		Months:  l.Months.clone(),
		Summary: l.Summary,
	}
}
