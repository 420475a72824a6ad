package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jayrakel/sacco-ledger/internal/domain"
	"github.com/jayrakel/sacco-ledger/internal/usecase"
)

func disburseFlatLoan(t *testing.T, f *ledgerFixture, reference string) *domain.Loan {
	t.Helper()

	loan, err := f.loans.Disburse(context.Background(), flatLoanInput(reference))
	if err != nil {
		t.Fatalf("disburse: %v", err)
	}

	return loan
}

func TestRepaymentUseCase_AllocatePayment_PartialInstallment(t *testing.T) {
	f := newLedgerFixture(t, monthlyLoanConfig(), usecase.OverdueConfig{})
	loan := disburseFlatLoan(t, f, "DISB-R1")

	// 3000 settles installments 1 and 2 (1100 each) and leaves 800 on
	// installment 3: 100 interest first, then 700 principal.
	result, err := f.repayment.AllocatePayment(context.Background(), usecase.AllocatePaymentInput{
		LoanID:    loan.ID,
		Amount:    decimal.NewFromInt(3000),
		Reference: "PAY-001",
	})
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}

	if !result.InterestPaid.Equal(decimal.NewFromInt(300)) {
		t.Errorf("interest paid = %s, want 300", result.InterestPaid)
	}

	if !result.PrincipalPaid.Equal(decimal.NewFromInt(2700)) {
		t.Errorf("principal paid = %s, want 2700", result.PrincipalPaid)
	}

	if result.LoanClosed {
		t.Error("loan should not be closed")
	}

	// First payment moves the loan out of DISBURSED.
	if result.Loan.Status != domain.LoanActive {
		t.Errorf("status = %s, want ACTIVE", result.Loan.Status)
	}

	if !result.Loan.OutstandingPrincipal.Equal(decimal.NewFromInt(9300)) {
		t.Errorf("outstanding principal = %s, want 9300", result.Loan.OutstandingPrincipal)
	}

	if !result.Loan.OutstandingInterest.Equal(decimal.NewFromInt(900)) {
		t.Errorf("outstanding interest = %s, want 900", result.Loan.OutstandingInterest)
	}

	schedule, err := f.loans.GetSchedule(context.Background(), loan.ID)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}

	if schedule[0].Status != domain.InstallmentPaid || schedule[1].Status != domain.InstallmentPaid {
		t.Errorf("first two installments not settled: %s, %s", schedule[0].Status, schedule[1].Status)
	}

	if schedule[2].Status != domain.InstallmentPartiallyPaid {
		t.Errorf("installment 3 status = %s, want PARTIALLY_PAID", schedule[2].Status)
	}

	if !schedule[2].Paid.Equal(decimal.NewFromInt(800)) {
		t.Errorf("installment 3 paid = %s, want 800", schedule[2].Paid)
	}

	if schedule[3].Status != domain.InstallmentPending {
		t.Errorf("installment 4 status = %s, want PENDING", schedule[3].Status)
	}

	// The posting splits the credit side by category. Bank is the default
	// source account.
	if !f.balance(t, usecase.AccountBank).Equal(decimal.NewFromInt(3000)) {
		t.Errorf("bank = %s, want 3000", f.balance(t, usecase.AccountBank))
	}

	if !f.balance(t, usecase.AccountInterestIncome).Equal(decimal.NewFromInt(300)) {
		t.Errorf("interest income = %s, want 300", f.balance(t, usecase.AccountInterestIncome))
	}

	if !f.balance(t, usecase.AccountLoanReceivable).Equal(decimal.NewFromInt(9300)) {
		t.Errorf("receivable = %s, want 9300", f.balance(t, usecase.AccountLoanReceivable))
	}
}

func TestRepaymentUseCase_AllocatePayment_PenaltiesAndFeesFirst(t *testing.T) {
	f := newLedgerFixture(t, monthlyLoanConfig(), usecase.OverdueConfig{})
	loan := disburseFlatLoan(t, f, "DISB-R2")

	loan.OutstandingPenalties = decimal.NewFromInt(50)
	loan.OutstandingFees = decimal.NewFromInt(30)

	result, err := f.repayment.AllocatePayment(context.Background(), usecase.AllocatePaymentInput{
		LoanID:    loan.ID,
		Amount:    decimal.NewFromInt(180),
		Reference: "PAY-002",
	})
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}

	if !result.PenaltiesPaid.Equal(decimal.NewFromInt(50)) {
		t.Errorf("penalties paid = %s, want 50", result.PenaltiesPaid)
	}

	if !result.FeesPaid.Equal(decimal.NewFromInt(30)) {
		t.Errorf("fees paid = %s, want 30", result.FeesPaid)
	}

	if !result.InterestPaid.Equal(decimal.NewFromInt(100)) {
		t.Errorf("interest paid = %s, want 100", result.InterestPaid)
	}

	if !result.PrincipalPaid.IsZero() {
		t.Errorf("principal paid = %s, want 0", result.PrincipalPaid)
	}

	if !f.balance(t, usecase.AccountPenaltyIncome).Equal(decimal.NewFromInt(50)) {
		t.Errorf("penalty income = %s, want 50", f.balance(t, usecase.AccountPenaltyIncome))
	}

	if !f.balance(t, usecase.AccountProcessingFee).Equal(decimal.NewFromInt(30)) {
		t.Errorf("fee income = %s, want 30", f.balance(t, usecase.AccountProcessingFee))
	}
}

func TestRepaymentUseCase_AllocatePayment_ClosesLoan(t *testing.T) {
	f := newLedgerFixture(t, monthlyLoanConfig(), usecase.OverdueConfig{})
	loan := disburseFlatLoan(t, f, "DISB-R3")

	result, err := f.repayment.AllocatePayment(context.Background(), usecase.AllocatePaymentInput{
		LoanID:    loan.ID,
		Amount:    decimal.NewFromInt(13200),
		Reference: "PAY-003",
	})
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}

	if !result.LoanClosed {
		t.Error("expected loan to close")
	}

	if result.Loan.Status != domain.LoanClosed {
		t.Errorf("status = %s, want CLOSED", result.Loan.Status)
	}

	if result.Loan.ClosedAt == nil {
		t.Error("ClosedAt not set")
	}

	if !result.Loan.TotalOutstanding().IsZero() {
		t.Errorf("outstanding = %s, want 0", result.Loan.TotalOutstanding())
	}

	schedule, _ := f.scheduleRepo.ListByLoan(context.Background(), loan.ID)
	for _, inst := range schedule {
		if inst.Status != domain.InstallmentPaid {
			t.Errorf("installment %d status = %s, want PAID", inst.Number, inst.Status)
		}
	}

	// Everything still owed reconciles to zero on the books too.
	if !f.balance(t, usecase.AccountLoanReceivable).IsZero() {
		t.Errorf("receivable = %s, want 0", f.balance(t, usecase.AccountLoanReceivable))
	}

	// A closed loan rejects further payments.
	_, err = f.repayment.AllocatePayment(context.Background(), usecase.AllocatePaymentInput{
		LoanID:    loan.ID,
		Amount:    decimal.NewFromInt(100),
		Reference: "PAY-004",
	})
	if !errors.Is(err, domain.ErrLoanNotActive) {
		t.Errorf("expected ErrLoanNotActive, got %v", err)
	}
}

func TestRepaymentUseCase_AllocatePayment_Overpayment(t *testing.T) {
	f := newLedgerFixture(t, monthlyLoanConfig(), usecase.OverdueConfig{})
	loan := disburseFlatLoan(t, f, "DISB-R4")

	_, err := f.repayment.AllocatePayment(context.Background(), usecase.AllocatePaymentInput{
		LoanID:    loan.ID,
		Amount:    decimal.NewFromInt(13201),
		Reference: "PAY-005",
	})
	if !errors.Is(err, domain.ErrOverpayment) {
		t.Errorf("expected ErrOverpayment, got %v", err)
	}

	// The rejected payment must leave no trace.
	if !f.balance(t, usecase.AccountBank).IsZero() {
		t.Errorf("bank = %s, want 0", f.balance(t, usecase.AccountBank))
	}

	if loan.Status != domain.LoanDisbursed {
		t.Errorf("status = %s, want DISBURSED", loan.Status)
	}
}

func TestRepaymentUseCase_AllocatePayment_ConcurrentOverpayment(t *testing.T) {
	f := newLedgerFixture(t, monthlyLoanConfig(), usecase.OverdueConfig{})
	loan := disburseFlatLoan(t, f, "DISB-R10")

	// Outstanding is 13200. Two simultaneous 8000 payments together exceed
	// it; the per-loan lock serializes them so the second one sees the
	// reduced balance and is rejected.
	errs := make([]error, 2)

	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			_, errs[i] = f.repayment.AllocatePayment(context.Background(), usecase.AllocatePaymentInput{
				LoanID:    loan.ID,
				Amount:    decimal.NewFromInt(8000),
				Reference: fmt.Sprintf("PAY-C%d", i),
			})
		}(i)
	}
	wg.Wait()

	accepted, rejected := 0, 0

	for _, err := range errs {
		switch {
		case err == nil:
			accepted++
		case errors.Is(err, domain.ErrOverpayment):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if accepted != 1 || rejected != 1 {
		t.Fatalf("accepted=%d rejected=%d, want exactly one of each", accepted, rejected)
	}

	// Only the accepted payment moved money.
	if !f.balance(t, usecase.AccountBank).Equal(decimal.NewFromInt(8000)) {
		t.Errorf("bank = %s, want 8000", f.balance(t, usecase.AccountBank))
	}

	got, _ := f.loanRepo.GetByID(context.Background(), loan.ID)
	if !got.TotalOutstanding().Equal(decimal.NewFromInt(5200)) {
		t.Errorf("outstanding = %s, want 5200", got.TotalOutstanding())
	}

	records, err := f.repayment.ListRepayments(context.Background(), loan.ID, 0, 0)
	if err != nil {
		t.Fatalf("list repayments: %v", err)
	}

	if len(records) != 1 {
		t.Errorf("repayment records = %d, want 1", len(records))
	}
}

func TestRepaymentUseCase_AllocatePayment_ReplayAbsorbed(t *testing.T) {
	f := newLedgerFixture(t, monthlyLoanConfig(), usecase.OverdueConfig{})
	loan := disburseFlatLoan(t, f, "DISB-R5")

	input := usecase.AllocatePaymentInput{
		LoanID:    loan.ID,
		Amount:    decimal.NewFromInt(1100),
		Reference: "PAY-006",
	}

	first, err := f.repayment.AllocatePayment(context.Background(), input)
	if err != nil {
		t.Fatalf("first allocate: %v", err)
	}

	second, err := f.repayment.AllocatePayment(context.Background(), input)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}

	if !second.Absorbed {
		t.Error("replay should be absorbed")
	}

	if second.Record.ID != first.Record.ID {
		t.Error("replay created a new repayment record")
	}

	// Money moved exactly once.
	if !f.balance(t, usecase.AccountBank).Equal(decimal.NewFromInt(1100)) {
		t.Errorf("bank = %s, want 1100", f.balance(t, usecase.AccountBank))
	}

	if !second.Loan.OutstandingPrincipal.Equal(decimal.NewFromInt(11000)) {
		t.Errorf("outstanding principal = %s, want 11000", second.Loan.OutstandingPrincipal)
	}
}

func TestRepaymentUseCase_AllocatePayment_SourceAccountOverride(t *testing.T) {
	f := newLedgerFixture(t, monthlyLoanConfig(), usecase.OverdueConfig{})
	loan := disburseFlatLoan(t, f, "DISB-R6")

	cashBefore := f.balance(t, usecase.AccountCash)

	_, err := f.repayment.AllocatePayment(context.Background(), usecase.AllocatePaymentInput{
		LoanID:            loan.ID,
		Amount:            decimal.NewFromInt(1100),
		Reference:         "PAY-007",
		SourceAccountCode: usecase.AccountMobileMoney,
	})
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}

	if !f.balance(t, usecase.AccountMobileMoney).Equal(decimal.NewFromInt(1100)) {
		t.Errorf("mobile money = %s, want 1100", f.balance(t, usecase.AccountMobileMoney))
	}

	if !f.balance(t, usecase.AccountCash).Equal(cashBefore) {
		t.Errorf("cash moved: %s", f.balance(t, usecase.AccountCash))
	}
}

func TestRepaymentUseCase_AllocatePayment_Validation(t *testing.T) {
	f := newLedgerFixture(t, monthlyLoanConfig(), usecase.OverdueConfig{})
	loan := disburseFlatLoan(t, f, "DISB-R7")

	t.Run("missing reference", func(t *testing.T) {
		_, err := f.repayment.AllocatePayment(context.Background(), usecase.AllocatePaymentInput{
			LoanID: loan.ID,
			Amount: decimal.NewFromInt(100),
		})
		if !errors.Is(err, domain.ErrMissingReference) {
			t.Errorf("expected ErrMissingReference, got %v", err)
		}
	})

	t.Run("non-positive amount", func(t *testing.T) {
		_, err := f.repayment.AllocatePayment(context.Background(), usecase.AllocatePaymentInput{
			LoanID:    loan.ID,
			Amount:    decimal.Zero,
			Reference: "PAY-008",
		})
		if !errors.Is(err, domain.ErrInvalidAmount) {
			t.Errorf("expected ErrInvalidAmount, got %v", err)
		}
	})

	t.Run("unknown loan", func(t *testing.T) {
		_, err := f.repayment.AllocatePayment(context.Background(), usecase.AllocatePaymentInput{
			LoanID:    "missing",
			Amount:    decimal.NewFromInt(100),
			Reference: "PAY-009",
		})
		if !errors.Is(err, domain.ErrLoanNotFound) {
			t.Errorf("expected ErrLoanNotFound, got %v", err)
		}
	})
}

func TestRepaymentUseCase_ArrearsLoanReturnsToActive(t *testing.T) {
	f := newLedgerFixture(t, monthlyLoanConfig(), usecase.OverdueConfig{})
	loan := disburseFlatLoan(t, f, "DISB-R8")

	// Let the first installment go overdue, then sweep.
	f.clock.Advance(32 * 24 * time.Hour)
	if err := f.overdue.Sweep(context.Background(), f.clock.Now()); err != nil {
		t.Fatalf("sweep: %v", err)
	}

	swept, _ := f.loanRepo.GetByID(context.Background(), loan.ID)
	if swept.Status != domain.LoanInArrears {
		t.Fatalf("status after sweep = %s, want IN_ARREARS", swept.Status)
	}

	// Clearing the overdue installment brings the loan current again.
	result, err := f.repayment.AllocatePayment(context.Background(), usecase.AllocatePaymentInput{
		LoanID:    loan.ID,
		Amount:    decimal.NewFromInt(1100),
		Reference: "PAY-010",
	})
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}

	if result.Loan.Status != domain.LoanActive {
		t.Errorf("status = %s, want ACTIVE", result.Loan.Status)
	}
}
