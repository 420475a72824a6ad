package usecase

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/jayrakel/sacco-ledger/internal/domain"
)

// BootstrapUseCase seeds the chart of accounts and the event mapping table.
// Seeding is idempotent: existing codes and event names are left untouched,
// so it runs on every startup.
type BootstrapUseCase struct {
	accountRepo AccountRepository
	mappingRepo MappingRepository
	clock       Clock
	logger      zerolog.Logger
}

// NewBootstrapUseCase creates a new BootstrapUseCase.
func NewBootstrapUseCase(
	accountRepo AccountRepository,
	mappingRepo MappingRepository,
	clock Clock,
	logger zerolog.Logger,
) *BootstrapUseCase {
	return &BootstrapUseCase{
		accountRepo: accountRepo,
		mappingRepo: mappingRepo,
		clock:       clock,
		logger:      logger.With().Str("component", "bootstrap").Logger(),
	}
}

type seedAccount struct {
	code string
	name string
	typ  domain.AccountType
}

type seedMapping struct {
	event       string
	debit       string
	credit      string
	description string
}

var seedAccounts = []seedAccount{
	{AccountCash, "Cash", domain.AccountTypeAsset},
	{AccountBank, "Bank", domain.AccountTypeAsset},
	{AccountMobileMoney, "Mobile Money", domain.AccountTypeAsset},
	{AccountLoanReceivable, "Loans Receivable", domain.AccountTypeAsset},
	{AccountMemberSavings, "Member Savings", domain.AccountTypeLiability},
	{AccountDividendPayable, "Dividends Payable", domain.AccountTypeLiability},
	{AccountShareCapital, "Share Capital", domain.AccountTypeEquity},
	{AccountRegistrationFee, "Registration Fees", domain.AccountTypeIncome},
	{AccountInterestIncome, "Loan Interest", domain.AccountTypeIncome},
	{AccountPenaltyIncome, "Fines & Penalties", domain.AccountTypeIncome},
	{AccountProcessingFee, "Loan Processing Fees", domain.AccountTypeIncome},
	{AccountOperatingExp, "Operating Expenses", domain.AccountTypeExpense},
	{AccountLoanWriteOff, "Loan Write-offs", domain.AccountTypeExpense},
}

var seedMappings = []seedMapping{
	{domain.EventSavingsDeposit, AccountCash, AccountMemberSavings, "Member savings deposit"},
	{domain.EventSavingsWithdrawal, AccountMemberSavings, AccountCash, "Member savings withdrawal"},
	{domain.EventLoanDisbursement, AccountLoanReceivable, AccountCash, "Loan disbursement"},
	{domain.EventLoanRepaymentPrinc, AccountCash, AccountLoanReceivable, "Loan principal repayment"},
	{domain.EventLoanRepaymentInt, AccountCash, AccountInterestIncome, "Loan interest repayment"},
	{domain.EventRegistrationFee, AccountCash, AccountRegistrationFee, "Member registration fee"},
	{domain.EventLoanProcessingFee, AccountCash, AccountProcessingFee, "Loan processing fee"},
	{domain.EventShareCapitalPurchase, AccountCash, AccountShareCapital, "Share capital purchase"},
	{domain.EventDividendPayment, AccountDividendPayable, AccountCash, "Dividend payment"},
	{domain.EventFinePayment, AccountCash, AccountPenaltyIncome, "Fine payment"},
}

// Seed creates any missing seed accounts and mappings.
func (uc *BootstrapUseCase) Seed(ctx context.Context) error {
	now := uc.clock.Now()

	created := 0

	for _, s := range seedAccounts {
		account := &domain.Account{
			Code:      s.code,
			Name:      s.name,
			Type:      s.typ,
			Active:    true,
			CreatedAt: now,
			UpdatedAt: now,
		}

		err := uc.accountRepo.Create(ctx, account)
		if err != nil {
			if errors.Is(err, domain.ErrAccountExists) {
				continue
			}

			return err
		}

		created++
	}

	for _, s := range seedMappings {
		mapping := &domain.EventMapping{
			EventName:         s.event,
			DebitAccountCode:  s.debit,
			CreditAccountCode: s.credit,
			Description:       s.description,
			CreatedAt:         now,
		}

		err := uc.mappingRepo.Create(ctx, mapping)
		if err != nil {
			if errors.Is(err, domain.ErrMappingExists) {
				continue
			}

			return err
		}

		created++
	}

	uc.logger.Info().Int("created", created).Msg("bootstrap seed complete")

	return nil
}
