package usecase_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.uber.org/mock/gomock"

	"github.com/jayrakel/sacco-ledger/internal/domain"
	"github.com/jayrakel/sacco-ledger/internal/usecase"
	"github.com/jayrakel/sacco-ledger/internal/usecase/mocks"
)

func newReconciliationFixture(t *testing.T) (*ledgerFixture, *mocks.MockCache, *usecase.ReconciliationUseCase) {
	t.Helper()

	f := newLedgerFixture(t, monthlyLoanConfig(), usecase.OverdueConfig{})

	ctrl := gomock.NewController(t)
	cache := mocks.NewMockCache(ctrl)

	uc := usecase.NewReconciliationUseCase(
		f.accountRepo, f.journalRepo, f.loanRepo, f.scheduleRepo, cache, zerolog.Nop(),
	)

	return f, cache, uc
}

func TestReconciliationUseCase_CheckConsistency(t *testing.T) {
	f, cache, uc := newReconciliationFixture(t)

	cache.EXPECT().Get(gomock.Any(), gomock.Any()).Return(nil, errors.New("miss")).AnyTimes()
	cache.EXPECT().Set(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	disburseFlatLoan(t, f, "DISB-C1")

	report, err := uc.CheckConsistency(context.Background())
	if err != nil {
		t.Fatalf("check: %v", err)
	}

	if !report.IsConsistent {
		t.Errorf("ledger inconsistent: debits %s, credits %s", report.TotalDebits, report.TotalCredits)
	}

	if !report.TotalDebits.Equal(decimal.NewFromInt(12000)) {
		t.Errorf("total debits = %s, want 12000", report.TotalDebits)
	}

	if !report.Difference.IsZero() {
		t.Errorf("difference = %s, want 0", report.Difference)
	}
}

func TestReconciliationUseCase_CheckConsistency_Cached(t *testing.T) {
	_, cache, uc := newReconciliationFixture(t)

	cached, _ := json.Marshal(&usecase.ConsistencyReport{
		TotalDebits:  decimal.NewFromInt(500),
		TotalCredits: decimal.NewFromInt(500),
		IsConsistent: true,
	})
	cache.EXPECT().Get(gomock.Any(), gomock.Any()).Return(cached, nil)

	report, err := uc.CheckConsistency(context.Background())
	if err != nil {
		t.Fatalf("check: %v", err)
	}

	if !report.TotalDebits.Equal(decimal.NewFromInt(500)) {
		t.Errorf("cached report ignored: total debits = %s", report.TotalDebits)
	}
}

func TestReconciliationUseCase_CheckConsistency_Unbalanced(t *testing.T) {
	f, cache, uc := newReconciliationFixture(t)

	cache.EXPECT().Get(gomock.Any(), gomock.Any()).Return(nil, errors.New("miss")).AnyTimes()
	cache.EXPECT().Set(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	f.journalRepo.CheckConsistencyFunc = func(ctx context.Context) (decimal.Decimal, decimal.Decimal, error) {
		return decimal.NewFromInt(1000), decimal.NewFromInt(999), nil
	}

	report, err := uc.CheckConsistency(context.Background())
	if err != nil {
		t.Fatalf("check: %v", err)
	}

	if report.IsConsistent {
		t.Error("expected inconsistent report")
	}

	if !report.Difference.Equal(decimal.NewFromInt(1)) {
		t.Errorf("difference = %s, want 1", report.Difference)
	}
}

func TestReconciliationUseCase_CheckAccount(t *testing.T) {
	f, _, uc := newReconciliationFixture(t)

	disburseFlatLoan(t, f, "DISB-C2")

	t.Run("asset account", func(t *testing.T) {
		report, err := uc.CheckAccount(context.Background(), usecase.AccountLoanReceivable)
		if err != nil {
			t.Fatalf("check: %v", err)
		}

		if !report.IsConsistent {
			t.Errorf("stored %s vs computed %s", report.StoredBalance, report.ComputedBalance)
		}

		if !report.ComputedBalance.Equal(decimal.NewFromInt(12000)) {
			t.Errorf("computed = %s, want 12000", report.ComputedBalance)
		}
	})

	t.Run("credit-normal account", func(t *testing.T) {
		// Cash went negative; an income account computes credits minus
		// debits instead.
		if _, err := f.posting.Post(context.Background(), usecase.PostInput{
			Reference:         "FEE-C2",
			DebitAccountCode:  usecase.AccountCash,
			CreditAccountCode: usecase.AccountRegistrationFee,
			Amount:            decimal.NewFromInt(300),
		}); err != nil {
			t.Fatalf("post: %v", err)
		}

		report, err := uc.CheckAccount(context.Background(), usecase.AccountRegistrationFee)
		if err != nil {
			t.Fatalf("check: %v", err)
		}

		if !report.IsConsistent {
			t.Errorf("stored %s vs computed %s", report.StoredBalance, report.ComputedBalance)
		}

		if !report.ComputedBalance.Equal(decimal.NewFromInt(300)) {
			t.Errorf("computed = %s, want 300", report.ComputedBalance)
		}
	})

	t.Run("drift detected", func(t *testing.T) {
		acc, _ := f.accountRepo.GetByCode(context.Background(), usecase.AccountCash)
		acc.Balance = acc.Balance.Add(decimal.NewFromInt(7))

		report, err := uc.CheckAccount(context.Background(), usecase.AccountCash)
		if err != nil {
			t.Fatalf("check: %v", err)
		}

		if report.IsConsistent {
			t.Error("expected drift to be reported")
		}

		if !report.Difference.Equal(decimal.NewFromInt(7)) {
			t.Errorf("difference = %s, want 7", report.Difference)
		}
	})

	t.Run("unknown account", func(t *testing.T) {
		_, err := uc.CheckAccount(context.Background(), "0000")
		if !errors.Is(err, domain.ErrUnknownAccount) {
			t.Errorf("expected ErrUnknownAccount, got %v", err)
		}
	})
}

func TestReconciliationUseCase_CheckLoan(t *testing.T) {
	f, _, uc := newReconciliationFixture(t)

	loan := disburseFlatLoan(t, f, "DISB-C3")

	t.Run("fresh loan reconciles", func(t *testing.T) {
		report, err := uc.CheckLoan(context.Background(), loan.ID)
		if err != nil {
			t.Fatalf("check: %v", err)
		}

		if !report.IsConsistent {
			t.Errorf("loan %s vs schedule %s", report.LoanOutstanding, report.ScheduleOutstanding)
		}
	})

	t.Run("still reconciles after a payment", func(t *testing.T) {
		if _, err := f.repayment.AllocatePayment(context.Background(), usecase.AllocatePaymentInput{
			LoanID:    loan.ID,
			Amount:    decimal.NewFromInt(2500),
			Reference: "PAY-C3",
		}); err != nil {
			t.Fatalf("allocate: %v", err)
		}

		report, err := uc.CheckLoan(context.Background(), loan.ID)
		if err != nil {
			t.Fatalf("check: %v", err)
		}

		if !report.IsConsistent {
			t.Errorf("loan %s vs schedule %s", report.LoanOutstanding, report.ScheduleOutstanding)
		}

		if !report.LoanOutstanding.Equal(decimal.NewFromInt(10700)) {
			t.Errorf("outstanding = %s, want 10700", report.LoanOutstanding)
		}
	})

	t.Run("drift detected", func(t *testing.T) {
		stored, _ := f.loanRepo.GetByID(context.Background(), loan.ID)
		stored.OutstandingPrincipal = stored.OutstandingPrincipal.Add(decimal.NewFromInt(10))

		report, err := uc.CheckLoan(context.Background(), loan.ID)
		if err != nil {
			t.Fatalf("check: %v", err)
		}

		if report.IsConsistent {
			t.Error("expected drift to be reported")
		}
	})

	t.Run("unknown loan", func(t *testing.T) {
		_, err := uc.CheckLoan(context.Background(), "missing")
		if !errors.Is(err, domain.ErrLoanNotFound) {
			t.Errorf("expected ErrLoanNotFound, got %v", err)
		}
	})
}
