package ledger

import (
	"encoding/json"
	"iter"
	"slices"
	"time"
)

// MonthKeyFunc maps a timestamp to its month label. It must be deterministic
// and distinguish every (year, month) pair, otherwise buckets of different
// years merge.
type MonthKeyFunc func(date time.Time) string

// MonthGroup is one month bucket in display order.
type MonthGroup struct {
	Label        string                 `json:"label"`
	Transactions []AnnotatedTransaction `json:"transactions"`
}

// Grouping is an ordered mapping from month label to transactions. Iteration
// follows the order in which labels were first encountered.
type Grouping struct {
	groups []MonthGroup
	index  map[string]int
}

// GroupByMonth partitions annotated into month buckets. Buckets appear in the
// order their label is first seen and keep the input order internally, so a
// most-recent-first input gives most-recent-first buckets.
func GroupByMonth(annotated []AnnotatedTransaction, monthKey MonthKeyFunc) Grouping {
	g := Grouping{index: make(map[string]int)}
	for _, t := range annotated {
		label := monthKey(t.Date)
		i, ok := g.index[label]
		if !ok {
			i = len(g.groups)
			g.index[label] = i
			g.groups = append(g.groups, MonthGroup{Label: label})
		}
		g.groups[i].Transactions = append(g.groups[i].Transactions, t)
	}
	return g
}

// Len returns the number of month buckets.
func (g Grouping) Len() int {
	return len(g.groups)
}

// Count returns the number of transactions across all buckets.
func (g Grouping) Count() int {
	n := 0
	for _, grp := range g.groups {
		n += len(grp.Transactions)
	}
	return n
}

// Labels returns the bucket labels in order.
func (g Grouping) Labels() []string {
	labels := make([]string, len(g.groups))
	for i, grp := range g.groups {
		labels[i] = grp.Label
	}
	return labels
}

// Get returns the transactions of the bucket with the given label.
func (g Grouping) Get(label string) ([]AnnotatedTransaction, bool) {
	i, ok := g.index[label]
	if !ok {
		return nil, false
	}
	return slices.Clone(g.groups[i].Transactions), true
}

// Groups returns a copy of the buckets in order.
func (g Grouping) Groups() []MonthGroup {
	out := make([]MonthGroup, len(g.groups))
	for i, grp := range g.groups {
		out[i] = MonthGroup{Label: grp.Label, Transactions: slices.Clone(grp.Transactions)}
	}
	return out
}

// All iterates over the buckets in order.
func (g Grouping) All() iter.Seq2[string, []AnnotatedTransaction] {
	return func(yield func(string, []AnnotatedTransaction) bool) {
		for _, grp := range g.groups {
			if !yield(grp.Label, grp.Transactions) {
				return
			}
		}
	}
}

// MarshalJSON encodes the grouping as an ordered array of buckets.
func (g Grouping) MarshalJSON() ([]byte, error) {
	if g.groups == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(g.groups)
}

func (g Grouping) clone() Grouping {
	c := Grouping{groups: g.Groups(), index: make(map[string]int, len(g.index))}
	for k, v := range g.index {
		c.index[k] = v
	}
	return c
}
