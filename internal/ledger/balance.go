package ledger

import (
	"slices"

	"github.com/shopspring/decimal"

	"kanakku/internal/core"
)

// AnnotatedTransaction is a transaction with the balance accumulated over every
// transaction up to and including it, in chronological order.
type AnnotatedTransaction struct {
	core.Transaction
	RunningBalance decimal.Decimal `json:"running_balance"`
}

// ComputeRunningBalances orders txns by date, accumulates the signed amounts
// and returns the annotated transactions most recent first.
//
// Transactions sharing a timestamp keep their relative input order. The input
// slice is not modified. An empty input yields an empty, non-nil result.
func ComputeRunningBalances(txns []core.Transaction) []AnnotatedTransaction {
	sorted := slices.Clone(txns)
	slices.SortStableFunc(sorted, func(a, b core.Transaction) int {
		return a.Date.Compare(b.Date)
	})

	out := make([]AnnotatedTransaction, len(sorted))
	balance := decimal.Zero
	for i, t := range sorted {
		if t.Type == core.Income {
			balance = balance.Add(t.Amount)
		} else {
			balance = balance.Sub(t.Amount)
		}
		// Filled from the back so the newest ends up first.
		out[len(sorted)-1-i] = AnnotatedTransaction{Transaction: t, RunningBalance: balance}
	}
	return out
}
