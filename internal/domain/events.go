package domain

import "time"

// Event types
const (
	EventTypeEntryPosted        = "journal.entry_posted"
	EventTypeEntryReversed      = "journal.entry_reversed"
	EventTypePaymentAllocated   = "loan.payment_allocated"
	EventTypeLoanDisbursed      = "loan.disbursed"
	EventTypeLoanClosed         = "loan.closed"
	EventTypeLoanWrittenOff     = "loan.written_off"
	EventTypeInstallmentOverdue = "loan.installment_overdue"
	EventTypeAccountCreated     = "account.created"
)

// Aggregate types
const (
	AggregateTypeJournalEntry = "journal_entry"
	AggregateTypeLoan         = "loan"
	AggregateTypeAccount      = "account"
)

// OutboxEvent represents an event to be published. Events are appended in
// the same transaction as the state change they describe and published by a
// background worker; publication can never fail the core operation.
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// EntryPostedEvent payload
type EntryPostedEvent struct {
	EntryID     string `json:"entry_id"`
	Reference   string `json:"reference"`
	Description string `json:"description"`
	TotalDebit  string `json:"total_debit"`
	LineCount   int    `json:"line_count"`
}

// PaymentAllocatedEvent payload
type PaymentAllocatedEvent struct {
	LoanID         string `json:"loan_id"`
	JournalEntryID string `json:"journal_entry_id"`
	Amount         string `json:"amount"`
	PrincipalPaid  string `json:"principal_paid"`
	InterestPaid   string `json:"interest_paid"`
	FeesPaid       string `json:"fees_paid"`
	PenaltiesPaid  string `json:"penalties_paid"`
}

// LoanDisbursedEvent payload
type LoanDisbursedEvent struct {
	LoanID     string `json:"loan_id"`
	LoanNumber string `json:"loan_number"`
	MemberID   string `json:"member_id"`
	Principal  string `json:"principal"`
	Term       int    `json:"term"`
	Method     string `json:"method"`
}

// LoanClosedEvent payload
type LoanClosedEvent struct {
	LoanID     string `json:"loan_id"`
	LoanNumber string `json:"loan_number"`
}

// InstallmentOverdueEvent payload
type InstallmentOverdueEvent struct {
	LoanID      string `json:"loan_id"`
	Installment int    `json:"installment"`
	DueDate     string `json:"due_date"`
	Outstanding string `json:"outstanding"`
}
