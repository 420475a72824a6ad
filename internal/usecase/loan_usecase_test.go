package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/jayrakel/sacco-ledger/internal/domain"
	"github.com/jayrakel/sacco-ledger/internal/usecase"
)

func monthlyLoanConfig() usecase.LoanConfig {
	return usecase.LoanConfig{PeriodsPerYear: 12}
}

// flatLoanInput describes a loan whose schedule needs no rounding: 12000 at
// flat 10% over 12 months is 12 installments of 1000 principal plus 100
// interest each.
func flatLoanInput(reference string) usecase.DisburseInput {
	return usecase.DisburseInput{
		MemberID:          "member-1",
		Principal:         decimal.NewFromInt(12000),
		AnnualRatePercent: decimal.NewFromInt(10),
		TermPeriods:       12,
		Method:            domain.MethodFlat,
		Reference:         reference,
	}
}

func TestLoanUseCase_Disburse(t *testing.T) {
	f := newLedgerFixture(t, monthlyLoanConfig(), usecase.OverdueConfig{})

	loan, err := f.loans.Disburse(context.Background(), flatLoanInput("DISB-001"))
	if err != nil {
		t.Fatalf("disburse: %v", err)
	}

	if loan.Status != domain.LoanDisbursed {
		t.Errorf("status = %s, want DISBURSED", loan.Status)
	}

	if !strings.HasPrefix(loan.LoanNumber, "LN-") {
		t.Errorf("loan number = %s", loan.LoanNumber)
	}

	if !loan.OutstandingPrincipal.Equal(decimal.NewFromInt(12000)) {
		t.Errorf("outstanding principal = %s, want 12000", loan.OutstandingPrincipal)
	}

	if !loan.OutstandingInterest.Equal(decimal.NewFromInt(1200)) {
		t.Errorf("outstanding interest = %s, want 1200", loan.OutstandingInterest)
	}

	schedule, err := f.loans.GetSchedule(context.Background(), loan.ID)
	if err != nil {
		t.Fatalf("get schedule: %v", err)
	}

	if len(schedule) != 12 {
		t.Fatalf("expected 12 installments, got %d", len(schedule))
	}

	for _, inst := range schedule {
		if inst.LoanID != loan.ID {
			t.Errorf("installment %d not linked to loan", inst.Number)
		}

		if !inst.TotalDue.Equal(decimal.NewFromInt(1100)) {
			t.Errorf("installment %d total = %s, want 1100", inst.Number, inst.TotalDue)
		}
	}

	// The disbursement posting moves cash into the receivable.
	if !f.balance(t, usecase.AccountLoanReceivable).Equal(decimal.NewFromInt(12000)) {
		t.Errorf("receivable = %s, want 12000", f.balance(t, usecase.AccountLoanReceivable))
	}

	if !f.balance(t, usecase.AccountCash).Equal(decimal.NewFromInt(-12000)) {
		t.Errorf("cash = %s, want -12000", f.balance(t, usecase.AccountCash))
	}

	entry, err := f.posting.GetEntry(context.Background(), "DISB-001")
	if err != nil {
		t.Fatalf("disbursement entry missing: %v", err)
	}

	if !entry.TotalDebit().Equal(decimal.NewFromInt(12000)) {
		t.Errorf("entry total = %s, want 12000", entry.TotalDebit())
	}
}

func TestLoanUseCase_Disburse_ProcessingFee(t *testing.T) {
	cfg := monthlyLoanConfig()
	cfg.ProcessingFeeRate = decimal.NewFromInt(1)

	f := newLedgerFixture(t, cfg, usecase.OverdueConfig{})

	_, err := f.loans.Disburse(context.Background(), flatLoanInput("DISB-002"))
	if err != nil {
		t.Fatalf("disburse: %v", err)
	}

	// 1% of 12000 comes straight back in as fee income.
	if !f.balance(t, usecase.AccountProcessingFee).Equal(decimal.NewFromInt(120)) {
		t.Errorf("fee income = %s, want 120", f.balance(t, usecase.AccountProcessingFee))
	}

	if !f.balance(t, usecase.AccountCash).Equal(decimal.NewFromInt(-11880)) {
		t.Errorf("cash = %s, want -11880", f.balance(t, usecase.AccountCash))
	}

	if _, err := f.posting.GetEntry(context.Background(), "DISB-002-FEE"); err != nil {
		t.Errorf("fee entry missing: %v", err)
	}
}

func TestLoanUseCase_Disburse_Validation(t *testing.T) {
	f := newLedgerFixture(t, monthlyLoanConfig(), usecase.OverdueConfig{})

	t.Run("zero principal", func(t *testing.T) {
		in := flatLoanInput("DISB-BAD1")
		in.Principal = decimal.Zero

		_, err := f.loans.Disburse(context.Background(), in)
		if !errors.Is(err, domain.ErrInvalidAmount) {
			t.Errorf("expected ErrInvalidAmount, got %v", err)
		}
	})

	t.Run("zero term", func(t *testing.T) {
		in := flatLoanInput("DISB-BAD2")
		in.TermPeriods = 0

		_, err := f.loans.Disburse(context.Background(), in)
		if !errors.Is(err, domain.ErrInvalidTerm) {
			t.Errorf("expected ErrInvalidTerm, got %v", err)
		}
	})

	t.Run("negative rate", func(t *testing.T) {
		in := flatLoanInput("DISB-BAD3")
		in.AnnualRatePercent = decimal.NewFromInt(-5)

		_, err := f.loans.Disburse(context.Background(), in)
		if !errors.Is(err, domain.ErrInvalidRate) {
			t.Errorf("expected ErrInvalidRate, got %v", err)
		}
	})

	// Nothing may reach the ledger from a failed disbursement.
	if !f.balance(t, usecase.AccountLoanReceivable).IsZero() {
		t.Errorf("receivable mutated: %s", f.balance(t, usecase.AccountLoanReceivable))
	}
}

func TestLoanUseCase_GetSchedule_UnknownLoan(t *testing.T) {
	f := newLedgerFixture(t, monthlyLoanConfig(), usecase.OverdueConfig{})

	_, err := f.loans.GetSchedule(context.Background(), "missing")
	if !errors.Is(err, domain.ErrLoanNotFound) {
		t.Errorf("expected ErrLoanNotFound, got %v", err)
	}
}

func TestLoanUseCase_WriteOff(t *testing.T) {
	f := newLedgerFixture(t, monthlyLoanConfig(), usecase.OverdueConfig{})

	loan, err := f.loans.Disburse(context.Background(), flatLoanInput("DISB-003"))
	if err != nil {
		t.Fatalf("disburse: %v", err)
	}

	written, err := f.loans.WriteOff(context.Background(), loan.ID, "")
	if err != nil {
		t.Fatalf("write off: %v", err)
	}

	if written.Status != domain.LoanWrittenOff {
		t.Errorf("status = %s, want WRITTEN_OFF", written.Status)
	}

	if written.ClosedAt == nil {
		t.Error("ClosedAt not set")
	}

	if !written.TotalOutstanding().IsZero() {
		t.Errorf("outstanding = %s, want 0", written.TotalOutstanding())
	}

	// The expense posting clears the receivable.
	if !f.balance(t, usecase.AccountLoanReceivable).IsZero() {
		t.Errorf("receivable = %s, want 0", f.balance(t, usecase.AccountLoanReceivable))
	}

	if !f.balance(t, usecase.AccountLoanWriteOff).Equal(decimal.NewFromInt(12000)) {
		t.Errorf("write-off expense = %s, want 12000", f.balance(t, usecase.AccountLoanWriteOff))
	}

	if _, err := f.posting.GetEntry(context.Background(), "WO-"+loan.LoanNumber); err != nil {
		t.Errorf("write-off entry missing: %v", err)
	}

	// Terminal status: a second write-off is rejected.
	_, err = f.loans.WriteOff(context.Background(), loan.ID, "")
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestLoanUseCase_PreviewSchedule(t *testing.T) {
	f := newLedgerFixture(t, monthlyLoanConfig(), usecase.OverdueConfig{})

	schedule, err := f.loans.PreviewSchedule(context.Background(), flatLoanInput(""), f.clock.Now())
	if err != nil {
		t.Fatalf("preview: %v", err)
	}

	if len(schedule) != 12 {
		t.Fatalf("expected 12 installments, got %d", len(schedule))
	}

	// Preview persists nothing.
	loans, err := f.loans.ListLoansByStatus(context.Background(), domain.LoanDisbursed, 0, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	if len(loans) != 0 {
		t.Errorf("preview persisted %d loans", len(loans))
	}
}
