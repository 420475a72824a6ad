package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/jayrakel/sacco-ledger/internal/domain"
	"github.com/jayrakel/sacco-ledger/internal/usecase"
	"github.com/jayrakel/sacco-ledger/internal/usecase/mocks"
)

func TestBootstrapUseCase_Seed(t *testing.T) {
	accountRepo := mocks.NewMockAccountRepository()
	mappingRepo := mocks.NewMockMappingRepository()
	clock := mocks.NewMockClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	uc := usecase.NewBootstrapUseCase(accountRepo, mappingRepo, clock, zerolog.Nop())

	if err := uc.Seed(context.Background()); err != nil {
		t.Fatalf("seed: %v", err)
	}

	accounts, err := accountRepo.List(context.Background(), 100, 0)
	if err != nil {
		t.Fatalf("list accounts: %v", err)
	}

	if len(accounts) != 13 {
		t.Errorf("expected 13 seed accounts, got %d", len(accounts))
	}

	mappings, err := mappingRepo.List(context.Background())
	if err != nil {
		t.Fatalf("list mappings: %v", err)
	}

	if len(mappings) != 10 {
		t.Errorf("expected 10 seed mappings, got %d", len(mappings))
	}

	// The core accounts the engines post against must all be present.
	for _, code := range []string{
		usecase.AccountCash,
		usecase.AccountBank,
		usecase.AccountLoanReceivable,
		usecase.AccountInterestIncome,
		usecase.AccountPenaltyIncome,
		usecase.AccountProcessingFee,
		usecase.AccountLoanWriteOff,
	} {
		if _, err := accountRepo.GetByCode(context.Background(), code); err != nil {
			t.Errorf("seed account %s missing: %v", code, err)
		}
	}

	if _, err := mappingRepo.GetByEvent(context.Background(), domain.EventLoanDisbursement); err != nil {
		t.Errorf("disbursement mapping missing: %v", err)
	}
}

func TestBootstrapUseCase_Seed_Idempotent(t *testing.T) {
	accountRepo := mocks.NewMockAccountRepository()
	mappingRepo := mocks.NewMockMappingRepository()
	clock := mocks.NewMockClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	uc := usecase.NewBootstrapUseCase(accountRepo, mappingRepo, clock, zerolog.Nop())

	if err := uc.Seed(context.Background()); err != nil {
		t.Fatalf("first seed: %v", err)
	}

	// Rename an account, then reseed: existing rows stay untouched.
	cash, _ := accountRepo.GetByCode(context.Background(), usecase.AccountCash)
	cash.Name = "Till"

	if err := uc.Seed(context.Background()); err != nil {
		t.Fatalf("second seed: %v", err)
	}

	accounts, _ := accountRepo.List(context.Background(), 100, 0)
	if len(accounts) != 13 {
		t.Errorf("reseed changed account count to %d", len(accounts))
	}

	cash, _ = accountRepo.GetByCode(context.Background(), usecase.AccountCash)
	if cash.Name != "Till" {
		t.Errorf("reseed overwrote existing account: %s", cash.Name)
	}
}
