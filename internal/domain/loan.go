package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// InterestMethod selects the amortization formula for a loan.
type InterestMethod string

const (
	MethodFlat            InterestMethod = "FLAT"
	MethodReducingBalance InterestMethod = "REDUCING_BALANCE"
)

// Valid reports whether m is a known interest method.
func (m InterestMethod) Valid() bool {
	return m == MethodFlat || m == MethodReducingBalance
}

// LoanStatus is the lifecycle status of a loan.
type LoanStatus string

const (
	LoanDisbursed  LoanStatus = "DISBURSED"
	LoanActive     LoanStatus = "ACTIVE"
	LoanInArrears  LoanStatus = "IN_ARREARS"
	LoanDefaulted  LoanStatus = "DEFAULTED"
	LoanClosed     LoanStatus = "CLOSED"
	LoanWrittenOff LoanStatus = "WRITTEN_OFF"
)

// loanTransitions is the single authoritative transition table. DEFAULTED
// accepts recovery payments but never returns to ACTIVE automatically;
// CLOSED and WRITTEN_OFF are terminal.
var loanTransitions = map[LoanStatus][]LoanStatus{
	LoanDisbursed: {LoanActive, LoanInArrears, LoanClosed, LoanWrittenOff},
	LoanActive:    {LoanInArrears, LoanClosed, LoanWrittenOff},
	LoanInArrears: {LoanActive, LoanDefaulted, LoanClosed, LoanWrittenOff},
	LoanDefaulted: {LoanClosed, LoanWrittenOff},
}

// CanTransitionTo reports whether the transition table allows moving from s
// to next.
func (s LoanStatus) CanTransitionTo(next LoanStatus) bool {
	for _, allowed := range loanTransitions[s] {
		if allowed == next {
			return true
		}
	}

	return false
}

// Terminal reports whether s admits no further transitions.
func (s LoanStatus) Terminal() bool {
	return len(loanTransitions[s]) == 0
}

// Repayable reports whether a loan in status s may receive payments.
func (s LoanStatus) Repayable() bool {
	switch s {
	case LoanDisbursed, LoanActive, LoanInArrears, LoanDefaulted:
		return true
	}

	return false
}

// Loan is a disbursed member loan. The outstanding fields are mutated only
// by the repayment allocation engine and must always reconcile against the
// unpaid amounts on the repayment schedule.
type Loan struct {
	ID                   string
	LoanNumber           string
	MemberID             string
	Principal            decimal.Decimal
	AnnualRatePercent    decimal.Decimal
	TermPeriods          int
	Method               InterestMethod
	Status               LoanStatus
	OutstandingPrincipal decimal.Decimal
	OutstandingInterest  decimal.Decimal
	OutstandingFees      decimal.Decimal
	OutstandingPenalties decimal.Decimal
	DisbursedAt          time.Time
	ClosedAt             *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// TransitionTo applies a status transition, enforcing the transition table.
func (l *Loan) TransitionTo(next LoanStatus) error {
	if !l.Status.CanTransitionTo(next) {
		return ErrInvalidTransition
	}

	l.Status = next

	return nil
}

// TotalOutstanding is everything still owed on the loan.
func (l *Loan) TotalOutstanding() decimal.Decimal {
	return l.OutstandingPrincipal.
		Add(l.OutstandingInterest).
		Add(l.OutstandingFees).
		Add(l.OutstandingPenalties)
}
