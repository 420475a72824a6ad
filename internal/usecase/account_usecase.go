package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/jayrakel/sacco-ledger/internal/domain"
	"github.com/jayrakel/sacco-ledger/internal/infrastructure/metrics"
)

// AccountUseCase handles chart-of-accounts business logic.
type AccountUseCase struct {
	accountRepo AccountRepository
	auditRepo   AuditRepository
	refGen      RefGenerator
	clock       Clock
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(
	accountRepo AccountRepository,
	auditRepo AuditRepository,
	refGen RefGenerator,
	clock Clock,
	metrics *metrics.Metrics,
	logger zerolog.Logger,
) *AccountUseCase {
	return &AccountUseCase{
		accountRepo: accountRepo,
		auditRepo:   auditRepo,
		refGen:      refGen,
		clock:       clock,
		metrics:     metrics,
		logger:      logger.With().Str("component", "accounts").Logger(),
	}
}

// CreateAccountInput represents input for creating an account.
type CreateAccountInput struct {
	Code string
	Name string
	Type domain.AccountType
}

// CreateAccount adds an account to the chart. Codes are unique forever; a
// taken code fails even if the holder was deactivated.
func (uc *AccountUseCase) CreateAccount(ctx context.Context, input CreateAccountInput) (*domain.Account, error) {
	if err := domain.ValidateAccountCode(input.Code); err != nil {
		return nil, err
	}

	if err := domain.ValidateAccountName(input.Name); err != nil {
		return nil, err
	}

	if !input.Type.Valid() {
		return nil, domain.ErrInvalidAccountCode
	}

	now := uc.clock.Now()

	account := &domain.Account{
		Code:      input.Code,
		Name:      input.Name,
		Type:      input.Type,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := uc.accountRepo.Create(ctx, account); err != nil {
		return nil, err
	}

	uc.audit(ctx, domain.AuditActionAccountCreate, account.Code, account)

	if uc.metrics != nil {
		uc.metrics.AccountsCreated.Inc()
	}

	uc.logger.Info().
		Str("code", account.Code).
		Str("type", string(account.Type)).
		Msg("account created")

	return account, nil
}

// GetAccount retrieves an active account by code. Inactive accounts behave
// like unknown ones.
func (uc *AccountUseCase) GetAccount(ctx context.Context, code string) (*domain.Account, error) {
	account, err := uc.accountRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if !account.Active {
		return nil, domain.ErrUnknownAccount
	}

	return account, nil
}

// ListAccounts lists accounts, active and inactive.
func (uc *AccountUseCase) ListAccounts(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	limit, offset = domain.ValidatePagination(limit, offset)

	return uc.accountRepo.List(ctx, limit, offset)
}

// DeactivateAccount retires an account from posting. History is kept; the
// account is never deleted.
func (uc *AccountUseCase) DeactivateAccount(ctx context.Context, code string) error {
	account, err := uc.accountRepo.GetByCode(ctx, code)
	if err != nil {
		return err
	}

	if !account.Active {
		return nil
	}

	if err := uc.accountRepo.SetActive(ctx, code, false, uc.clock.Now()); err != nil {
		return err
	}

	uc.audit(ctx, domain.AuditActionAccountDeactivate, code, nil)

	uc.logger.Info().Str("code", code).Msg("account deactivated")

	return nil
}

func (uc *AccountUseCase) audit(ctx context.Context, action domain.AuditAction, resourceID string, after any) {
	log := &domain.AuditLog{
		ID:           uc.refGen.Generate(),
		Action:       string(action),
		ResourceType: domain.AggregateTypeAccount,
		ResourceID:   resourceID,
		AfterState:   domain.MarshalState(after),
		Status:       string(domain.AuditStatusSuccess),
		CreatedAt:    uc.clock.Now(),
	}

	if err := uc.auditRepo.Create(ctx, log); err != nil {
		uc.logger.Warn().Err(err).Str("action", string(action)).Msg("audit write failed")
	}
}
