package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jayrakel/sacco-ledger/internal/domain"
	"github.com/jayrakel/sacco-ledger/internal/usecase"
)

// CreateAccountRequest represents a request to create a ledger account.
type CreateAccountRequest struct {
	Code string `json:"code"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateAccountRequest) ToUseCaseInput() usecase.CreateAccountInput {
	return usecase.CreateAccountInput{
		Code: r.Code,
		Name: r.Name,
		Type: domain.AccountType(r.Type),
	}
}

// CreateMappingRequest represents a request to map a business event to a
// debit/credit account pair.
type CreateMappingRequest struct {
	EventName         string `json:"event_name"`
	DebitAccountCode  string `json:"debit_account_code"`
	CreditAccountCode string `json:"credit_account_code"`
	Description       string `json:"description,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateMappingRequest) ToUseCaseInput() usecase.CreateMappingInput {
	return usecase.CreateMappingInput{
		EventName:         r.EventName,
		DebitAccountCode:  r.DebitAccountCode,
		CreditAccountCode: r.CreditAccountCode,
		Description:       r.Description,
	}
}

// PostRequest represents a simple two-line posting request.
type PostRequest struct {
	Reference         string          `json:"reference"`
	Description       string          `json:"description,omitempty"`
	DebitAccountCode  string          `json:"debit_account_code"`
	CreditAccountCode string          `json:"credit_account_code"`
	Amount            decimal.Decimal `json:"amount"`
}

// ToUseCaseInput converts to use case input.
func (r *PostRequest) ToUseCaseInput() usecase.PostInput {
	return usecase.PostInput{
		Reference:         r.Reference,
		Description:       r.Description,
		DebitAccountCode:  r.DebitAccountCode,
		CreditAccountCode: r.CreditAccountCode,
		Amount:            r.Amount,
	}
}

// PostEventRequest represents a request to post a mapped business event.
type PostEventRequest struct {
	EventName   string          `json:"event_name"`
	Amount      decimal.Decimal `json:"amount"`
	Reference   string          `json:"reference"`
	Description string          `json:"description,omitempty"`
	// DebitAccountOverride settles the event from a different asset account,
	// e.g. mobile money instead of cash.
	DebitAccountOverride string `json:"debit_account_override,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *PostEventRequest) ToUseCaseInput() usecase.PostEventInput {
	return usecase.PostEventInput{
		EventName:            r.EventName,
		Amount:               r.Amount,
		Reference:            r.Reference,
		Description:          r.Description,
		DebitAccountOverride: r.DebitAccountOverride,
	}
}

// LineItem is one leg of a manual journal entry.
type LineItem struct {
	AccountCode string          `json:"account_code"`
	Debit       decimal.Decimal `json:"debit,omitempty"`
	Credit      decimal.Decimal `json:"credit,omitempty"`
}

// PostLinesRequest represents a manual multi-line posting request.
type PostLinesRequest struct {
	Reference       string     `json:"reference"`
	Description     string     `json:"description,omitempty"`
	TransactionDate *time.Time `json:"transaction_date,omitempty"`
	Lines           []LineItem `json:"lines"`
}

// ToUseCaseInput converts to use case input.
func (r *PostLinesRequest) ToUseCaseInput() usecase.PostLinesInput {
	lines := make([]usecase.LineInput, len(r.Lines))
	for i, l := range r.Lines {
		lines[i] = usecase.LineInput{
			AccountCode: l.AccountCode,
			Debit:       l.Debit,
			Credit:      l.Credit,
		}
	}

	return usecase.PostLinesInput{
		Reference:       r.Reference,
		Description:     r.Description,
		TransactionDate: r.TransactionDate,
		Lines:           lines,
	}
}

// ReverseRequest represents a request to reverse a posted entry.
type ReverseRequest struct {
	ReversalReference string `json:"reversal_reference,omitempty"`
	Description       string `json:"description,omitempty"`
}

// DisburseLoanRequest represents a request to disburse a loan.
type DisburseLoanRequest struct {
	MemberID          string          `json:"member_id"`
	Principal         decimal.Decimal `json:"principal"`
	AnnualRatePercent decimal.Decimal `json:"annual_rate_percent"`
	TermPeriods       int             `json:"term_periods"`
	Method            string          `json:"method"`
	Reference         string          `json:"reference,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *DisburseLoanRequest) ToUseCaseInput() usecase.DisburseInput {
	return usecase.DisburseInput{
		MemberID:          r.MemberID,
		Principal:         r.Principal,
		AnnualRatePercent: r.AnnualRatePercent,
		TermPeriods:       r.TermPeriods,
		Method:            domain.InterestMethod(r.Method),
		Reference:         r.Reference,
	}
}

// AllocatePaymentRequest represents a loan payment to allocate.
type AllocatePaymentRequest struct {
	Amount            decimal.Decimal `json:"amount"`
	Reference         string          `json:"reference"`
	SourceAccountCode string          `json:"source_account_code,omitempty"`
}

// WriteOffRequest represents a request to write off a loan.
type WriteOffRequest struct {
	Reference string `json:"reference,omitempty"`
}
