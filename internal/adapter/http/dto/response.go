package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jayrakel/sacco-ledger/internal/domain"
	"github.com/jayrakel/sacco-ledger/internal/usecase"
)

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	Type      string          `json:"type"`
	Balance   decimal.Decimal `json:"balance"`
	Active    bool            `json:"active"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// AccountFromDomain converts a domain account to a response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		Code:      a.Code,
		Name:      a.Name,
		Type:      string(a.Type),
		Balance:   a.Balance,
		Active:    a.Active,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// AccountsFromDomain converts domain accounts to responses.
func AccountsFromDomain(accounts []*domain.Account) []*AccountResponse {
	result := make([]*AccountResponse, len(accounts))
	for i, a := range accounts {
		result[i] = AccountFromDomain(a)
	}
	return result
}

// MappingResponse represents an event mapping in API responses.
type MappingResponse struct {
	EventName         string    `json:"event_name"`
	DebitAccountCode  string    `json:"debit_account_code"`
	CreditAccountCode string    `json:"credit_account_code"`
	Description       string    `json:"description,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// MappingFromDomain converts a domain mapping to a response.
func MappingFromDomain(m *domain.EventMapping) *MappingResponse {
	return &MappingResponse{
		EventName:         m.EventName,
		DebitAccountCode:  m.DebitAccountCode,
		CreditAccountCode: m.CreditAccountCode,
		Description:       m.Description,
		CreatedAt:         m.CreatedAt,
	}
}

// MappingsFromDomain converts domain mappings to responses.
func MappingsFromDomain(mappings []*domain.EventMapping) []*MappingResponse {
	result := make([]*MappingResponse, len(mappings))
	for i, m := range mappings {
		result[i] = MappingFromDomain(m)
	}
	return result
}

// JournalLineResponse represents a journal line in API responses.
type JournalLineResponse struct {
	ID          string          `json:"id"`
	AccountCode string          `json:"account_code"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
}

// JournalEntryResponse represents a journal entry in API responses.
type JournalEntryResponse struct {
	ID              string                 `json:"id"`
	Reference       string                 `json:"reference"`
	Description     string                 `json:"description,omitempty"`
	TransactionDate time.Time              `json:"transaction_date"`
	CreatedAt       time.Time              `json:"created_at"`
	Lines           []*JournalLineResponse `json:"lines"`
}

// EntryFromDomain converts a domain journal entry to a response.
func EntryFromDomain(e *domain.JournalEntry) *JournalEntryResponse {
	lines := make([]*JournalLineResponse, len(e.Lines))
	for i, l := range e.Lines {
		lines[i] = &JournalLineResponse{
			ID:          l.ID,
			AccountCode: l.AccountCode,
			Debit:       l.Debit,
			Credit:      l.Credit,
		}
	}

	return &JournalEntryResponse{
		ID:              e.ID,
		Reference:       e.Reference,
		Description:     e.Description,
		TransactionDate: e.TransactionDate,
		CreatedAt:       e.CreatedAt,
		Lines:           lines,
	}
}

// EntriesFromDomain converts domain journal entries to responses.
func EntriesFromDomain(entries []*domain.JournalEntry) []*JournalEntryResponse {
	result := make([]*JournalEntryResponse, len(entries))
	for i, e := range entries {
		result[i] = EntryFromDomain(e)
	}
	return result
}

// LoanResponse represents a loan in API responses.
type LoanResponse struct {
	ID                   string          `json:"id"`
	LoanNumber           string          `json:"loan_number"`
	MemberID             string          `json:"member_id"`
	Principal            decimal.Decimal `json:"principal"`
	AnnualRatePercent    decimal.Decimal `json:"annual_rate_percent"`
	TermPeriods          int             `json:"term_periods"`
	Method               string          `json:"method"`
	Status               string          `json:"status"`
	OutstandingPrincipal decimal.Decimal `json:"outstanding_principal"`
	OutstandingInterest  decimal.Decimal `json:"outstanding_interest"`
	OutstandingFees      decimal.Decimal `json:"outstanding_fees"`
	OutstandingPenalties decimal.Decimal `json:"outstanding_penalties"`
	TotalOutstanding     decimal.Decimal `json:"total_outstanding"`
	DisbursedAt          time.Time       `json:"disbursed_at"`
	ClosedAt             *time.Time      `json:"closed_at,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// LoanFromDomain converts a domain loan to a response.
func LoanFromDomain(l *domain.Loan) *LoanResponse {
	return &LoanResponse{
		ID:                   l.ID,
		LoanNumber:           l.LoanNumber,
		MemberID:             l.MemberID,
		Principal:            l.Principal,
		AnnualRatePercent:    l.AnnualRatePercent,
		TermPeriods:          l.TermPeriods,
		Method:               string(l.Method),
		Status:               string(l.Status),
		OutstandingPrincipal: l.OutstandingPrincipal,
		OutstandingInterest:  l.OutstandingInterest,
		OutstandingFees:      l.OutstandingFees,
		OutstandingPenalties: l.OutstandingPenalties,
		TotalOutstanding:     l.TotalOutstanding(),
		DisbursedAt:          l.DisbursedAt,
		ClosedAt:             l.ClosedAt,
		CreatedAt:            l.CreatedAt,
		UpdatedAt:            l.UpdatedAt,
	}
}

// LoansFromDomain converts domain loans to responses.
func LoansFromDomain(loans []*domain.Loan) []*LoanResponse {
	result := make([]*LoanResponse, len(loans))
	for i, l := range loans {
		result[i] = LoanFromDomain(l)
	}
	return result
}

// InstallmentResponse represents one schedule row in API responses.
type InstallmentResponse struct {
	Number       int             `json:"number"`
	DueDate      time.Time       `json:"due_date"`
	PrincipalDue decimal.Decimal `json:"principal_due"`
	InterestDue  decimal.Decimal `json:"interest_due"`
	TotalDue     decimal.Decimal `json:"total_due"`
	Paid         decimal.Decimal `json:"paid"`
	Outstanding  decimal.Decimal `json:"outstanding"`
	Status       string          `json:"status"`
}

// ScheduleFromDomain converts domain installments to responses.
func ScheduleFromDomain(installments []*domain.Installment) []*InstallmentResponse {
	result := make([]*InstallmentResponse, len(installments))
	for i, inst := range installments {
		result[i] = &InstallmentResponse{
			Number:       inst.Number,
			DueDate:      inst.DueDate,
			PrincipalDue: inst.PrincipalDue,
			InterestDue:  inst.InterestDue,
			TotalDue:     inst.TotalDue,
			Paid:         inst.Paid,
			Outstanding:  inst.Outstanding(),
			Status:       string(inst.Status),
		}
	}
	return result
}

// RepaymentResponse represents a repayment record in API responses.
type RepaymentResponse struct {
	ID             string          `json:"id"`
	LoanID         string          `json:"loan_id"`
	JournalEntryID string          `json:"journal_entry_id"`
	Amount         decimal.Decimal `json:"amount"`
	PrincipalPaid  decimal.Decimal `json:"principal_paid"`
	InterestPaid   decimal.Decimal `json:"interest_paid"`
	FeesPaid       decimal.Decimal `json:"fees_paid"`
	PenaltiesPaid  decimal.Decimal `json:"penalties_paid"`
	PaidAt         time.Time       `json:"paid_at"`
}

// RepaymentFromDomain converts a domain repayment record to a response.
func RepaymentFromDomain(r *domain.RepaymentRecord) *RepaymentResponse {
	return &RepaymentResponse{
		ID:             r.ID,
		LoanID:         r.LoanID,
		JournalEntryID: r.JournalEntryID,
		Amount:         r.Amount,
		PrincipalPaid:  r.PrincipalPaid,
		InterestPaid:   r.InterestPaid,
		FeesPaid:       r.FeesPaid,
		PenaltiesPaid:  r.PenaltiesPaid,
		PaidAt:         r.PaidAt,
	}
}

// RepaymentsFromDomain converts domain repayment records to responses.
func RepaymentsFromDomain(records []*domain.RepaymentRecord) []*RepaymentResponse {
	result := make([]*RepaymentResponse, len(records))
	for i, r := range records {
		result[i] = RepaymentFromDomain(r)
	}
	return result
}

// AllocationResponse represents the outcome of a payment allocation.
type AllocationResponse struct {
	Loan          *LoanResponse      `json:"loan"`
	Record        *RepaymentResponse `json:"record"`
	PrincipalPaid decimal.Decimal    `json:"principal_paid"`
	InterestPaid  decimal.Decimal    `json:"interest_paid"`
	FeesPaid      decimal.Decimal    `json:"fees_paid"`
	PenaltiesPaid decimal.Decimal    `json:"penalties_paid"`
	LoanClosed    bool               `json:"loan_closed"`
	Absorbed      bool               `json:"absorbed"`
}

// AllocationFromResult converts a use case allocation result to a response.
func AllocationFromResult(r *usecase.AllocationResult) *AllocationResponse {
	return &AllocationResponse{
		Loan:          LoanFromDomain(r.Loan),
		Record:        RepaymentFromDomain(r.Record),
		PrincipalPaid: r.PrincipalPaid,
		InterestPaid:  r.InterestPaid,
		FeesPaid:      r.FeesPaid,
		PenaltiesPaid: r.PenaltiesPaid,
		LoanClosed:    r.LoanClosed,
		Absorbed:      r.Absorbed,
	}
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
