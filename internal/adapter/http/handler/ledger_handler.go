package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jayrakel/sacco-ledger/internal/usecase"
)

// LedgerHandler handles ledger-wide reconciliation requests.
type LedgerHandler struct {
	reconciliationUC *usecase.ReconciliationUseCase
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(reconciliationUC *usecase.ReconciliationUseCase) *LedgerHandler {
	return &LedgerHandler{reconciliationUC: reconciliationUC}
}

// CheckConsistency verifies that total debits equal total credits.
func (h *LedgerHandler) CheckConsistency(w http.ResponseWriter, r *http.Request) {
	report, err := h.reconciliationUC.CheckConsistency(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check consistency", err.Error())
		return
	}

	status := http.StatusOK
	if !report.IsConsistent {
		status = http.StatusConflict
	}

	writeJSON(w, status, report)
}

// CheckAccount verifies one account's balance against its journal lines.
func (h *LedgerHandler) CheckAccount(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "missing account code", "")
		return
	}

	report, err := h.reconciliationUC.CheckAccount(r.Context(), code)
	if err != nil {
		writeDomainError(w, err, "failed to check account")
		return
	}

	status := http.StatusOK
	if !report.IsConsistent {
		status = http.StatusConflict
	}

	writeJSON(w, status, report)
}

// CheckLoan verifies a loan's outstanding totals against its schedule.
func (h *LedgerHandler) CheckLoan(w http.ResponseWriter, r *http.Request) {
	loanID := chi.URLParam(r, "id")
	if loanID == "" {
		writeError(w, http.StatusBadRequest, "missing loan ID", "")
		return
	}

	report, err := h.reconciliationUC.CheckLoan(r.Context(), loanID)
	if err != nil {
		writeDomainError(w, err, "failed to check loan")
		return
	}

	status := http.StatusOK
	if !report.IsConsistent {
		status = http.StatusConflict
	}

	writeJSON(w, status, report)
}
