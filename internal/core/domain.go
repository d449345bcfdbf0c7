package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  TransactionType = "INCOME"
	Expense TransactionType = "EXPENSE"
)

type (
	TransactionType string

	// Transaction is a single income or expense entry. Amount is a magnitude;
	// the sign comes from Type.
	Transaction struct {
		ID          string          `json:"id"`
		Date        time.Time       `json:"date"`
		Type        TransactionType `json:"type"`
		Amount      decimal.Decimal `json:"amount"`
		Category    string          `json:"category"`
		Description string          `json:"description,omitempty"`
	}
)

var (
	// ErrMalformedTransaction is matched by every *ValidationError.
	ErrMalformedTransaction = errors.New("malformed transaction")

	ErrEmptyID       = errors.New("empty id")
	ErrZeroDate      = errors.New("date cannot be zero")
	ErrInvalidType   = errors.New("invalid transaction type")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrEmptyCategory = errors.New("empty category")
)

// ValidationError reports the first malformed transaction found in a set.
// Index is negative when the transaction is not part of a set.
type ValidationError struct {
	Index  int
	ID     string
	Reason error
}

func (e *ValidationError) Error() string {
	if e.Index < 0 {
		if e.ID == "" {
			return fmt.Sprintf("malformed transaction: %v", e.Reason)
		}
		return fmt.Sprintf("malformed transaction %q: %v", e.ID, e.Reason)
	}
	if e.ID == "" {
		return fmt.Sprintf("malformed transaction at index %d: %v", e.Index, e.Reason)
	}
	return fmt.Sprintf("malformed transaction %q at index %d: %v", e.ID, e.Index, e.Reason)
}

func (e *ValidationError) Unwrap() []error {
	return []error{ErrMalformedTransaction, e.Reason}
}

func (t TransactionType) IsValid() bool {
	return t == Income || t == Expense
}

// ParseTransactionType accepts the type in any letter case.
func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidType, s)
	}
	return t, nil
}

// Signed returns Amount with the sign implied by Type.
func (t Transaction) Signed() decimal.Decimal {
	if t.Type == Income {
		return t.Amount
	}
	return t.Amount.Neg()
}

// Millis returns Date as milliseconds since the Unix epoch.
func (t Transaction) Millis() int64 {
	return t.Date.UnixMilli()
}

// FromMillis converts milliseconds since the Unix epoch to a UTC time.
func FromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return ErrEmptyID
	}
	if t.Date.IsZero() {
		return ErrZeroDate
	}
	if !t.Type.IsValid() {
		return ErrInvalidType
	}
	if t.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	return nil
}
