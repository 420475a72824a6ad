package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	consistencyCacheKey = "reconciliation:consistency"
	consistencyCacheTTL = 30 * time.Second
)

// ReconciliationUseCase cross-checks derived state against the journal. It
// never mutates anything; a discrepancy is an alarm, not something to fix in
// place.
type ReconciliationUseCase struct {
	accountRepo  AccountRepository
	journalRepo  JournalRepository
	loanRepo     LoanRepository
	scheduleRepo ScheduleRepository
	cache        Cache
	logger       zerolog.Logger
}

// NewReconciliationUseCase creates a new ReconciliationUseCase.
func NewReconciliationUseCase(
	accountRepo AccountRepository,
	journalRepo JournalRepository,
	loanRepo LoanRepository,
	scheduleRepo ScheduleRepository,
	cache Cache,
	logger zerolog.Logger,
) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		accountRepo:  accountRepo,
		journalRepo:  journalRepo,
		loanRepo:     loanRepo,
		scheduleRepo: scheduleRepo,
		cache:        cache,
		logger:       logger.With().Str("component", "reconciliation").Logger(),
	}
}

// ConsistencyReport is the ledger-wide invariant check.
type ConsistencyReport struct {
	TotalDebits  decimal.Decimal `json:"total_debits"`
	TotalCredits decimal.Decimal `json:"total_credits"`
	Difference   decimal.Decimal `json:"difference"`
	IsConsistent bool            `json:"is_consistent"`
	CheckedAt    time.Time       `json:"checked_at"`
}

// AccountReport compares one account's stored balance with its line sums.
type AccountReport struct {
	AccountCode     string          `json:"account_code"`
	StoredBalance   decimal.Decimal `json:"stored_balance"`
	ComputedBalance decimal.Decimal `json:"computed_balance"`
	Difference      decimal.Decimal `json:"difference"`
	IsConsistent    bool            `json:"is_consistent"`
}

// LoanReport compares a loan's outstanding totals with its schedule.
type LoanReport struct {
	LoanID              string          `json:"loan_id"`
	LoanOutstanding     decimal.Decimal `json:"loan_outstanding"`
	ScheduleOutstanding decimal.Decimal `json:"schedule_outstanding"`
	Difference          decimal.Decimal `json:"difference"`
	IsConsistent        bool            `json:"is_consistent"`
}

// CheckConsistency verifies that total debits equal total credits across the
// whole journal. The report is cached briefly since it scans every line.
func (uc *ReconciliationUseCase) CheckConsistency(ctx context.Context) (*ConsistencyReport, error) {
	if cached, err := uc.cache.Get(ctx, consistencyCacheKey); err == nil && cached != nil {
		var report ConsistencyReport
		if err := json.Unmarshal(cached, &report); err == nil {
			return &report, nil
		}
	}

	debits, credits, err := uc.journalRepo.CheckConsistency(ctx)
	if err != nil {
		return nil, err
	}

	report := &ConsistencyReport{
		TotalDebits:  debits,
		TotalCredits: credits,
		Difference:   debits.Sub(credits),
		IsConsistent: debits.Equal(credits),
		CheckedAt:    time.Now().UTC(),
	}

	if !report.IsConsistent {
		uc.logger.Error().
			Str("difference", report.Difference.StringFixed(2)).
			Msg("ledger out of balance")
	}

	if data, err := json.Marshal(report); err == nil {
		if err := uc.cache.Set(ctx, consistencyCacheKey, data, consistencyCacheTTL); err != nil {
			uc.logger.Warn().Err(err).Msg("consistency report cache write failed")
		}
	}

	return report, nil
}

// CheckAccount verifies one account's stored balance against the signed sum
// of its journal lines under the normal-balance convention.
func (uc *ReconciliationUseCase) CheckAccount(ctx context.Context, code string) (*AccountReport, error) {
	account, err := uc.accountRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	debits, credits, err := uc.journalRepo.SumByAccount(ctx, code)
	if err != nil {
		return nil, err
	}

	computed := debits.Sub(credits)
	if !account.Type.DebitIncreases() {
		computed = credits.Sub(debits)
	}

	report := &AccountReport{
		AccountCode:     code,
		StoredBalance:   account.Balance,
		ComputedBalance: computed,
		Difference:      account.Balance.Sub(computed),
		IsConsistent:    account.Balance.Equal(computed),
	}

	if !report.IsConsistent {
		uc.logger.Error().
			Str("account", code).
			Str("difference", report.Difference.StringFixed(2)).
			Msg("account balance drift")
	}

	return report, nil
}

// CheckLoan verifies a loan's outstanding principal and interest against the
// unpaid remainder of its schedule.
func (uc *ReconciliationUseCase) CheckLoan(ctx context.Context, loanID string) (*LoanReport, error) {
	loan, err := uc.loanRepo.GetByID(ctx, loanID)
	if err != nil {
		return nil, err
	}

	installments, err := uc.scheduleRepo.ListByLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}

	scheduleOutstanding := decimal.Zero
	for _, inst := range installments {
		scheduleOutstanding = scheduleOutstanding.Add(inst.Outstanding())
	}

	loanOutstanding := loan.OutstandingPrincipal.Add(loan.OutstandingInterest)

	report := &LoanReport{
		LoanID:              loanID,
		LoanOutstanding:     loanOutstanding,
		ScheduleOutstanding: scheduleOutstanding,
		Difference:          loanOutstanding.Sub(scheduleOutstanding),
		IsConsistent:        loanOutstanding.Equal(scheduleOutstanding),
	}

	if !report.IsConsistent {
		uc.logger.Error().
			Str("loan_id", loanID).
			Str("difference", report.Difference.StringFixed(2)).
			Msg("loan outstanding drift")
	}

	return report, nil
}
