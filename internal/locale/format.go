package locale

import (
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"kanakku/internal/core"
)

const entriesKey = "%d Entries"

func init() {
	_ = message.SetString(language.Tamil, entriesKey, "%d பதிவுகள்")
}

// Formatter renders amounts, times and counts for one language and location.
type Formatter struct {
	lang    language.Tag
	loc     *time.Location
	printer *message.Printer
	symbol  string
	scale   int

	primaryGroup, secondaryGroup int
}

// NewFormatter returns a Formatter for lang. A nil loc means UTC.
func NewFormatter(lang language.Tag, loc *time.Location) *Formatter {
	lang = Match(lang.String())
	if loc == nil {
		loc = time.UTC
	}
	p := message.NewPrinter(lang)
	scale, _ := currency.Standard.Rounding(currency.INR)
	f := &Formatter{
		lang:           lang,
		loc:            loc,
		printer:        p,
		symbol:         p.Sprint(currency.Symbol(currency.INR)),
		scale:          scale,
		primaryGroup:   3,
		secondaryGroup: 3,
	}
	// Tamil follows the Indian lakh/crore grouping, 12,34,567.
	if lang == language.Tamil {
		f.secondaryGroup = 2
	}
	return f
}

// Language returns the resolved display language.
func (f *Formatter) Language() language.Tag {
	return f.lang
}

// Amount formats d as rupees with locale digit grouping, for example
// "₹1,234.50", rounded to paise. Amounts that round to a whole number drop
// the fraction. Formatting is exact for any magnitude.
func (f *Formatter) Amount(d decimal.Decimal) string {
	scale := f.scale
	d = d.Round(int32(scale))
	if d.IsInteger() {
		scale = 0
	}

	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	whole, frac, _ := strings.Cut(d.StringFixed(int32(scale)), ".")
	out := sign + f.symbol + groupDigits(whole, f.primaryGroup, f.secondaryGroup)
	if frac != "" {
		out += "." + frac
	}
	return out
}

// groupDigits inserts thousands separators into a run of digits. The group
// nearest the decimal point has primary digits, every other one secondary.
func groupDigits(digits string, primary, secondary int) string {
	if len(digits) <= primary {
		return digits
	}
	head := digits[:len(digits)-primary]
	groups := []string{digits[len(digits)-primary:]}
	for len(head) > secondary {
		groups = append(groups, head[len(head)-secondary:])
		head = head[:len(head)-secondary]
	}
	groups = append(groups, head)
	slices.Reverse(groups)
	return strings.Join(groups, ",")
}

// Signed formats an amount with the sign of its type, "+ ₹100" or "- ₹40".
func (f *Formatter) Signed(t core.TransactionType, amount decimal.Decimal) string {
	if t == core.Income {
		return "+ " + f.Amount(amount)
	}
	return "- " + f.Amount(amount)
}

// TimeOfDay renders the hour and minute of t in the formatter's location.
func (f *Formatter) TimeOfDay(t time.Time) string {
	return t.In(f.loc).Format("15:04")
}

// Entries renders an entry count, "3 Entries" or "3 பதிவுகள்".
func (f *Formatter) Entries(n int) string {
	return f.printer.Sprintf(entriesKey, n)
}
