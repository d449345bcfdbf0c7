package http

import (
	"net/http"
	"strings"
	"time"

	"kanakku/internal/core"
	"kanakku/internal/log"
)

type transactionRequest struct {
	Date        string `json:"date"`
	Type        string `json:"type"`
	Amount      string `json:"amount"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

type transactionsResponse struct {
	Transactions []core.Transaction `json:"transactions"`
	Version      int64              `json:"version"`
}

// toTransaction converts the request into a transaction without an ID. Field
// errors come back as *core.ValidationError.
func (req transactionRequest) toTransaction(loc *time.Location) (core.Transaction, error) {
	invalid := func(err error) (core.Transaction, error) {
		return core.Transaction{}, &core.ValidationError{Index: -1, Reason: err}
	}

	date, err := parseDate(req.Date, loc)
	if err != nil {
		return invalid(err)
	}
	typ, err := core.ParseTransactionType(req.Type)
	if err != nil {
		return invalid(err)
	}
	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		return invalid(err)
	}
	category := sanitizeInput(req.Category)
	if category == "" {
		return invalid(core.ErrEmptyCategory)
	}

	return core.Transaction{
		Date:        date,
		Type:        typ,
		Amount:      amount,
		Category:    category,
		Description: sanitizeInput(req.Description),
	}, nil
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	txns, err := s.svc.Transactions(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if txns == nil {
		txns = []core.Transaction{}
	}
	writeJSON(w, r, http.StatusOK, transactionsResponse{Transactions: txns, Version: s.svc.Version()})
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	txn, ok := s.readTransaction(w, r)
	if !ok {
		return
	}
	created, err := s.svc.Add(r.Context(), txn)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/transactions/"+created.ID)
	writeJSON(w, r, http.StatusCreated, created)
}

func (s *Server) handleEditTransaction(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	txn, ok := s.readTransaction(w, r)
	if !ok {
		return
	}
	updated, err := s.svc.Edit(r.Context(), id, txn)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, updated)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Delete(r.Context(), strings.TrimSpace(r.PathValue("id"))); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearTransactions(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Clear(r.Context()); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) readTransaction(w http.ResponseWriter, r *http.Request) (core.Transaction, bool) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Rejected request body",
			log.FieldError, err,
			log.FieldErrorType, log.ErrorTypeValidation)
		writeError(w, r, http.StatusBadRequest, err.Error())
		return core.Transaction{}, false
	}
	txn, err := req.toTransaction(s.loc)
	if err != nil {
		writeServiceError(w, r, err)
		return core.Transaction{}, false
	}
	return txn, true
}
