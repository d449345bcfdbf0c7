// Package report renders a derived ledger for the terminal.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"kanakku/internal/ledger"
	"kanakku/internal/locale"
)

// Format selects the report encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat accepts "text" or "json". Empty means text.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported report format %q", s)
	}
}

// Write renders l to w in the given format.
func Write(w io.Writer, format Format, l ledger.Ledger, f *locale.Formatter) error {
	if format == FormatJSON {
		return WriteJSON(w, l)
	}
	return WriteText(w, l, f)
}

// WriteJSON writes the ledger as indented JSON.
func WriteJSON(w io.Writer, l ledger.Ledger) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(l)
}

// WriteText writes one block per month, newest first, followed by the totals.
//
//	February 2024 (1 Entries)
//	  09:05  Gift  + ₹10  ₹70
func WriteText(w io.Writer, l ledger.Ledger, f *locale.Formatter) error {
	if l.IsEmpty() {
		_, err := fmt.Fprintln(w, "No transactions.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for label, txns := range l.Months.All() {
		fmt.Fprintf(tw, "%s (%s)\n", label, f.Entries(len(txns)))
		for _, t := range txns {
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t\n",
				f.TimeOfDay(t.Date),
				t.Category,
				f.Signed(t.Type, t.Amount),
				f.Amount(t.RunningBalance))
		}
		fmt.Fprintln(tw)
	}
	fmt.Fprintf(tw, "%s\n", f.Entries(l.Summary.Count))
	fmt.Fprintf(tw, "Income\t%s\t\n", f.Amount(l.Summary.Income))
	fmt.Fprintf(tw, "Expense\t%s\t\n", f.Amount(l.Summary.Expense))
	fmt.Fprintf(tw, "Balance\t%s\t\n", f.Amount(l.Summary.Balance))
	return tw.Flush()
}
