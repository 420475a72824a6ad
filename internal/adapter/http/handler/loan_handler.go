package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jayrakel/sacco-ledger/internal/adapter/http/dto"
	"github.com/jayrakel/sacco-ledger/internal/domain"
	"github.com/jayrakel/sacco-ledger/internal/usecase"
)

// LoanHandler handles loan lifecycle HTTP requests.
type LoanHandler struct {
	loanUC      *usecase.LoanUseCase
	repaymentUC *usecase.RepaymentUseCase
}

// NewLoanHandler creates a new LoanHandler.
func NewLoanHandler(loanUC *usecase.LoanUseCase, repaymentUC *usecase.RepaymentUseCase) *LoanHandler {
	return &LoanHandler{loanUC: loanUC, repaymentUC: repaymentUC}
}

// Disburse disburses a new loan.
func (h *LoanHandler) Disburse(w http.ResponseWriter, r *http.Request) {
	var req dto.DisburseLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	loan, err := h.loanUC.Disburse(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, err, "failed to disburse loan")
		return
	}

	writeJSON(w, http.StatusCreated, dto.LoanFromDomain(loan))
}

// Get retrieves a loan by id.
func (h *LoanHandler) Get(w http.ResponseWriter, r *http.Request) {
	loanID := chi.URLParam(r, "id")
	if loanID == "" {
		writeError(w, http.StatusBadRequest, "missing loan ID", "")
		return
	}

	loan, err := h.loanUC.GetLoan(r.Context(), loanID)
	if err != nil {
		writeDomainError(w, err, "failed to get loan")
		return
	}

	writeJSON(w, http.StatusOK, dto.LoanFromDomain(loan))
}

// List lists loans filtered by status.
func (h *LoanHandler) List(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status == "" {
		status = string(domain.LoanActive)
	}

	limit := parseIntQuery(r, "limit", 20)
	offset := parseIntQuery(r, "offset", 0)

	loans, err := h.loanUC.ListLoansByStatus(r.Context(), domain.LoanStatus(status), limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list loans", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.LoansFromDomain(loans))
}

// GetSchedule retrieves a loan's repayment schedule.
func (h *LoanHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	loanID := chi.URLParam(r, "id")
	if loanID == "" {
		writeError(w, http.StatusBadRequest, "missing loan ID", "")
		return
	}

	schedule, err := h.loanUC.GetSchedule(r.Context(), loanID)
	if err != nil {
		writeDomainError(w, err, "failed to get schedule")
		return
	}

	writeJSON(w, http.StatusOK, dto.ScheduleFromDomain(schedule))
}

// PreviewSchedule generates a schedule without persisting anything.
func (h *LoanHandler) PreviewSchedule(w http.ResponseWriter, r *http.Request) {
	var req dto.DisburseLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	schedule, err := h.loanUC.PreviewSchedule(r.Context(), req.ToUseCaseInput(), timeNow())
	if err != nil {
		writeDomainError(w, err, "failed to preview schedule")
		return
	}

	writeJSON(w, http.StatusOK, dto.ScheduleFromDomain(schedule))
}

// AllocatePayment applies a payment to a loan.
func (h *LoanHandler) AllocatePayment(w http.ResponseWriter, r *http.Request) {
	loanID := chi.URLParam(r, "id")
	if loanID == "" {
		writeError(w, http.StatusBadRequest, "missing loan ID", "")
		return
	}

	var req dto.AllocatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	result, err := h.repaymentUC.AllocatePayment(r.Context(), usecase.AllocatePaymentInput{
		LoanID:            loanID,
		Amount:            req.Amount,
		Reference:         req.Reference,
		SourceAccountCode: req.SourceAccountCode,
	})
	if err != nil {
		writeDomainError(w, err, "failed to allocate payment")
		return
	}

	status := http.StatusCreated
	if result.Absorbed {
		status = http.StatusOK
	}

	writeJSON(w, status, dto.AllocationFromResult(result))
}

// ListRepayments lists a loan's repayment records.
func (h *LoanHandler) ListRepayments(w http.ResponseWriter, r *http.Request) {
	loanID := chi.URLParam(r, "id")
	if loanID == "" {
		writeError(w, http.StatusBadRequest, "missing loan ID", "")
		return
	}

	limit := parseIntQuery(r, "limit", 20)
	offset := parseIntQuery(r, "offset", 0)

	records, err := h.repaymentUC.ListRepayments(r.Context(), loanID, limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list repayments", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.RepaymentsFromDomain(records))
}

// WriteOff writes off a loan's remaining principal.
func (h *LoanHandler) WriteOff(w http.ResponseWriter, r *http.Request) {
	loanID := chi.URLParam(r, "id")
	if loanID == "" {
		writeError(w, http.StatusBadRequest, "missing loan ID", "")
		return
	}

	var req dto.WriteOffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	loan, err := h.loanUC.WriteOff(r.Context(), loanID, req.Reference)
	if err != nil {
		writeDomainError(w, err, "failed to write off loan")
		return
	}

	writeJSON(w, http.StatusOK, dto.LoanFromDomain(loan))
}
