package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// InstallmentStatus is the payment status of a schedule installment.
// Paid amounts only increase: PENDING -> PARTIALLY_PAID -> PAID. OVERDUE is
// a time-driven status applied by the periodic sweep; an overdue installment
// can still receive payments.
type InstallmentStatus string

const (
	InstallmentPending       InstallmentStatus = "PENDING"
	InstallmentPartiallyPaid InstallmentStatus = "PARTIALLY_PAID"
	InstallmentPaid          InstallmentStatus = "PAID"
	InstallmentOverdue       InstallmentStatus = "OVERDUE"
)

// Installment is one row of a loan's repayment schedule. Installments are
// produced once at disbursement as an ordered, immutable-by-number sequence;
// only Paid and Status mutate afterwards.
type Installment struct {
	ID           string
	LoanID       string
	Number       int
	DueDate      time.Time
	PrincipalDue decimal.Decimal
	InterestDue  decimal.Decimal
	TotalDue     decimal.Decimal
	Paid         decimal.Decimal
	Status       InstallmentStatus
	UpdatedAt    time.Time
}

// Outstanding is the unpaid remainder of the installment.
func (i *Installment) Outstanding() decimal.Decimal {
	return i.TotalDue.Sub(i.Paid)
}

// InterestOutstanding is the unpaid interest on the installment. Payments
// apply to interest before principal, so the first InterestDue of Paid is
// interest.
func (i *Installment) InterestOutstanding() decimal.Decimal {
	remaining := i.InterestDue.Sub(i.Paid)
	if remaining.IsNegative() {
		return decimal.Zero
	}

	return remaining
}

// PrincipalOutstanding is the unpaid principal on the installment.
func (i *Installment) PrincipalOutstanding() decimal.Decimal {
	return i.Outstanding().Sub(i.InterestOutstanding())
}

// Settled reports whether the installment no longer accepts payments.
func (i *Installment) Settled() bool {
	return i.Status == InstallmentPaid
}

// PastDue reports whether the installment is unpaid and past its due date.
func (i *Installment) PastDue(asOf time.Time) bool {
	return !i.Settled() && asOf.After(i.DueDate)
}

// ApplyPayment increases Paid by amount and moves the status forward.
// Paid never exceeds TotalDue.
func (i *Installment) ApplyPayment(amount decimal.Decimal, now time.Time) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	newPaid := i.Paid.Add(amount)
	if newPaid.GreaterThan(i.TotalDue) {
		return ErrPaidExceedsDue
	}

	i.Paid = newPaid
	i.UpdatedAt = now

	if i.Paid.Equal(i.TotalDue) {
		i.Status = InstallmentPaid
	} else if i.Status == InstallmentPending {
		i.Status = InstallmentPartiallyPaid
	}

	return nil
}
