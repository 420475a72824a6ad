package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/jayrakel/sacco-ledger/internal/domain"
)

// MappingUseCase manages event-to-account mappings.
type MappingUseCase struct {
	mappingRepo MappingRepository
	accountRepo AccountRepository
	clock       Clock
	logger      zerolog.Logger
}

// NewMappingUseCase creates a new MappingUseCase.
func NewMappingUseCase(
	mappingRepo MappingRepository,
	accountRepo AccountRepository,
	clock Clock,
	logger zerolog.Logger,
) *MappingUseCase {
	return &MappingUseCase{
		mappingRepo: mappingRepo,
		accountRepo: accountRepo,
		clock:       clock,
		logger:      logger.With().Str("component", "mappings").Logger(),
	}
}

// CreateMappingInput represents input for creating an event mapping.
type CreateMappingInput struct {
	EventName         string
	DebitAccountCode  string
	CreditAccountCode string
	Description       string
}

// CreateMapping registers the debit/credit account pair for a business event.
// Both accounts must already exist and be active.
func (uc *MappingUseCase) CreateMapping(ctx context.Context, input CreateMappingInput) (*domain.EventMapping, error) {
	if input.EventName == "" {
		return nil, domain.ErrUnmappedEvent
	}

	for _, code := range []string{input.DebitAccountCode, input.CreditAccountCode} {
		account, err := uc.accountRepo.GetByCode(ctx, code)
		if err != nil {
			return nil, err
		}

		if !account.Active {
			return nil, domain.ErrUnknownAccount
		}
	}

	mapping := &domain.EventMapping{
		EventName:         input.EventName,
		DebitAccountCode:  input.DebitAccountCode,
		CreditAccountCode: input.CreditAccountCode,
		Description:       input.Description,
		CreatedAt:         uc.clock.Now(),
	}

	if err := uc.mappingRepo.Create(ctx, mapping); err != nil {
		return nil, err
	}

	uc.logger.Info().
		Str("event", mapping.EventName).
		Str("debit", mapping.DebitAccountCode).
		Str("credit", mapping.CreditAccountCode).
		Msg("event mapping created")

	return mapping, nil
}

// GetMapping retrieves the mapping for an event name.
func (uc *MappingUseCase) GetMapping(ctx context.Context, eventName string) (*domain.EventMapping, error) {
	return uc.mappingRepo.GetByEvent(ctx, eventName)
}

// ListMappings lists all configured mappings.
func (uc *MappingUseCase) ListMappings(ctx context.Context) ([]*domain.EventMapping, error) {
	return uc.mappingRepo.List(ctx)
}
