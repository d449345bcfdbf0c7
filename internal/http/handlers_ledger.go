package http

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"kanakku/internal/ledger"
	"kanakku/internal/locale"
)

type ledgerResponse struct {
	Language   string          `json:"language"`
	Calendar   string          `json:"calendar"`
	CountLabel string          `json:"count_label"`
	Summary    summaryResponse `json:"summary"`
	// Months is empty, not null, when there are no transactions.
	Months []monthResponse `json:"months"`
}

type summaryResponse struct {
	Count        int             `json:"count"`
	Income       decimal.Decimal `json:"income"`
	Expense      decimal.Decimal `json:"expense"`
	Balance      decimal.Decimal `json:"balance"`
	IncomeLabel  string          `json:"income_label"`
	ExpenseLabel string          `json:"expense_label"`
	BalanceLabel string          `json:"balance_label"`
}

type monthResponse struct {
	Label      string          `json:"label"`
	CountLabel string          `json:"count_label"`
	Entries    []entryResponse `json:"entries"`
}

type entryResponse struct {
	ledger.AnnotatedTransaction
	AmountLabel  string `json:"amount_label"`
	BalanceLabel string `json:"balance_label"`
	Time         string `json:"time"`
}

// handleLedger serves the derived ledger. The display language comes from the
// lang query parameter, then Accept-Language, then the server default.
func (s *Server) handleLedger(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	lang := s.lang
	if v := strings.TrimSpace(q.Get("lang")); v != "" {
		lang = locale.Match(v)
	} else if v := r.Header.Get("Accept-Language"); v != "" {
		lang = locale.Match(v)
	}

	calendar := s.calendar
	if v := strings.TrimSpace(q.Get("calendar")); v != "" {
		calendar = strings.ToLower(v)
	}
	if calendar == "" {
		calendar = "gregorian"
	}

	labeler, err := locale.Labeler(calendar, lang, s.loc)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	view, err := s.svc.View(r.Context(), labeler)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	f := locale.NewFormatter(lang, s.loc)
	writeJSON(w, r, http.StatusOK, buildLedgerResponse(view, f, calendar))
}

func buildLedgerResponse(view ledger.Ledger, f *locale.Formatter, calendar string) ledgerResponse {
	resp := ledgerResponse{
		Language:   f.Language().String(),
		Calendar:   calendar,
		CountLabel: f.Entries(view.Summary.Count),
		Summary: summaryResponse{
			Count:        view.Summary.Count,
			Income:       view.Summary.Income,
			Expense:      view.Summary.Expense,
			Balance:      view.Summary.Balance,
			IncomeLabel:  f.Amount(view.Summary.Income),
			ExpenseLabel: f.Amount(view.Summary.Expense),
			BalanceLabel: f.Amount(view.Summary.Balance),
		},
		Months: make([]monthResponse, 0, view.Months.Len()),
	}

	for label, txns := range view.Months.All() {
		month := monthResponse{
			Label:      label,
			CountLabel: f.Entries(len(txns)),
			Entries:    make([]entryResponse, len(txns)),
		}
		for i, t := range txns {
			month.Entries[i] = entryResponse{
				AnnotatedTransaction: t,
				AmountLabel:          f.Signed(t.Type, t.Amount),
				BalanceLabel:         f.Amount(t.RunningBalance),
				Time:                 f.TimeOfDay(t.Date),
			}
		}
		resp.Months = append(resp.Months, month)
	}
	return resp
}
