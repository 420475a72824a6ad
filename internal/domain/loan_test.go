package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestLoanStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from    LoanStatus
		to      LoanStatus
		allowed bool
	}{
		{LoanDisbursed, LoanActive, true},
		{LoanDisbursed, LoanInArrears, true},
		{LoanDisbursed, LoanClosed, true},
		{LoanDisbursed, LoanWrittenOff, true},
		{LoanDisbursed, LoanDefaulted, false},
		{LoanActive, LoanInArrears, true},
		{LoanActive, LoanClosed, true},
		{LoanActive, LoanDisbursed, false},
		{LoanActive, LoanDefaulted, false},
		{LoanInArrears, LoanActive, true},
		{LoanInArrears, LoanDefaulted, true},
		{LoanInArrears, LoanClosed, true},
		{LoanDefaulted, LoanClosed, true},
		{LoanDefaulted, LoanWrittenOff, true},
		{LoanDefaulted, LoanActive, false},
		{LoanClosed, LoanActive, false},
		{LoanClosed, LoanWrittenOff, false},
		{LoanWrittenOff, LoanClosed, false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.allowed {
			t.Errorf("%s -> %s: got %v, want %v", tt.from, tt.to, got, tt.allowed)
		}
	}
}

func TestLoanStatus_Terminal(t *testing.T) {
	if !LoanClosed.Terminal() {
		t.Error("CLOSED should be terminal")
	}

	if !LoanWrittenOff.Terminal() {
		t.Error("WRITTEN_OFF should be terminal")
	}

	for _, s := range []LoanStatus{LoanDisbursed, LoanActive, LoanInArrears, LoanDefaulted} {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestLoanStatus_Repayable(t *testing.T) {
	repayable := []LoanStatus{LoanDisbursed, LoanActive, LoanInArrears, LoanDefaulted}
	for _, s := range repayable {
		if !s.Repayable() {
			t.Errorf("%s should accept payments", s)
		}
	}

	for _, s := range []LoanStatus{LoanClosed, LoanWrittenOff} {
		if s.Repayable() {
			t.Errorf("%s should not accept payments", s)
		}
	}
}

func TestLoan_TransitionTo(t *testing.T) {
	loan := &Loan{Status: LoanDisbursed}

	if err := loan.TransitionTo(LoanActive); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if loan.Status != LoanActive {
		t.Errorf("status = %s, want ACTIVE", loan.Status)
	}

	err := loan.TransitionTo(LoanDefaulted)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}

	// A rejected transition must not change the status.
	if loan.Status != LoanActive {
		t.Errorf("status mutated on rejected transition: %s", loan.Status)
	}
}

func TestLoan_TotalOutstanding(t *testing.T) {
	loan := &Loan{
		OutstandingPrincipal: decimal.NewFromInt(1000),
		OutstandingInterest:  decimal.NewFromInt(120),
		OutstandingFees:      decimal.NewFromInt(30),
		OutstandingPenalties: decimal.NewFromInt(50),
	}

	if !loan.TotalOutstanding().Equal(decimal.NewFromInt(1200)) {
		t.Errorf("TotalOutstanding() = %s, want 1200", loan.TotalOutstanding())
	}
}

func TestInterestMethod_Valid(t *testing.T) {
	if !MethodFlat.Valid() || !MethodReducingBalance.Valid() {
		t.Error("known methods should be valid")
	}

	if InterestMethod("COMPOUND").Valid() {
		t.Error("unknown method should be invalid")
	}
}
