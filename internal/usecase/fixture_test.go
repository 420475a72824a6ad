package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jayrakel/sacco-ledger/internal/usecase"
	"github.com/jayrakel/sacco-ledger/internal/usecase/mocks"
)

// ledgerFixture wires every engine against the in-memory mocks with the
// seeded chart of accounts, the way the server wires them at startup.
type ledgerFixture struct {
	accountRepo  *mocks.MockAccountRepository
	mappingRepo  *mocks.MockMappingRepository
	journalRepo  *mocks.MockJournalRepository
	loanRepo     *mocks.MockLoanRepository
	scheduleRepo *mocks.MockScheduleRepository
	repayRepo    *mocks.MockRepaymentRepository
	outboxRepo   *mocks.MockOutboxRepository
	auditRepo    *mocks.MockAuditRepository
	clock        *mocks.MockClock

	posting   *usecase.PostingUseCase
	loans     *usecase.LoanUseCase
	repayment *usecase.RepaymentUseCase
	overdue   *usecase.OverdueUseCase
}

func newLedgerFixture(t *testing.T, loanCfg usecase.LoanConfig, overdueCfg usecase.OverdueConfig) *ledgerFixture {
	t.Helper()

	f := &ledgerFixture{
		accountRepo:  mocks.NewMockAccountRepository(),
		mappingRepo:  mocks.NewMockMappingRepository(),
		journalRepo:  mocks.NewMockJournalRepository(),
		loanRepo:     mocks.NewMockLoanRepository(),
		scheduleRepo: mocks.NewMockScheduleRepository(),
		repayRepo:    mocks.NewMockRepaymentRepository(),
		outboxRepo:   mocks.NewMockOutboxRepository(),
		auditRepo:    mocks.NewMockAuditRepository(),
		clock:        mocks.NewMockClock(time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC)),
	}

	txManager := mocks.NewMockTransactionManager()
	refGen := mocks.NewMockRefGenerator()
	retrier := mocks.NewMockRetrier()
	logger := zerolog.Nop()

	f.posting = usecase.NewPostingUseCase(
		txManager, f.accountRepo, f.mappingRepo, f.journalRepo, f.outboxRepo, f.auditRepo,
		refGen, f.clock, retrier, nil, logger,
	)
	f.loans = usecase.NewLoanUseCase(
		txManager, f.loanRepo, f.scheduleRepo, f.outboxRepo, f.auditRepo, f.posting,
		refGen, f.clock, loanCfg, nil, logger,
	)
	f.repayment = usecase.NewRepaymentUseCase(
		txManager, f.loanRepo, f.scheduleRepo, f.repayRepo, f.outboxRepo, f.auditRepo,
		f.posting, refGen, f.clock, retrier, nil, logger,
	)
	f.overdue = usecase.NewOverdueUseCase(
		txManager, f.loanRepo, f.scheduleRepo, f.outboxRepo, refGen, f.clock,
		overdueCfg, nil, logger,
	)

	bootstrap := usecase.NewBootstrapUseCase(f.accountRepo, f.mappingRepo, f.clock, logger)
	if err := bootstrap.Seed(context.Background()); err != nil {
		t.Fatalf("seed: %v", err)
	}

	return f
}

func (f *ledgerFixture) balance(t *testing.T, code string) decimal.Decimal {
	t.Helper()

	acc, err := f.accountRepo.GetByCode(context.Background(), code)
	if err != nil {
		t.Fatalf("get account %s: %v", code, err)
	}

	return acc.Balance
}
