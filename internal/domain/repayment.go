package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RepaymentRecord is the immutable audit record of one payment event: the
// total amount and its component breakdown, linked to the journal entry that
// posted it. Created once per payment, never mutated or deleted.
type RepaymentRecord struct {
	ID             string
	LoanID         string
	JournalEntryID string
	Amount         decimal.Decimal
	PrincipalPaid  decimal.Decimal
	InterestPaid   decimal.Decimal
	FeesPaid       decimal.Decimal
	PenaltiesPaid  decimal.Decimal
	PaidAt         time.Time
	CreatedAt      time.Time
}
