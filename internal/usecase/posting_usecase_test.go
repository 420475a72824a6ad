package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jayrakel/sacco-ledger/internal/domain"
	"github.com/jayrakel/sacco-ledger/internal/usecase"
	"github.com/jayrakel/sacco-ledger/internal/usecase/mocks"
)

type postingFixture struct {
	accountRepo *mocks.MockAccountRepository
	mappingRepo *mocks.MockMappingRepository
	journalRepo *mocks.MockJournalRepository
	outboxRepo  *mocks.MockOutboxRepository
	auditRepo   *mocks.MockAuditRepository
	clock       *mocks.MockClock
	uc          *usecase.PostingUseCase
}

func newPostingFixture() *postingFixture {
	f := &postingFixture{
		accountRepo: mocks.NewMockAccountRepository(),
		mappingRepo: mocks.NewMockMappingRepository(),
		journalRepo: mocks.NewMockJournalRepository(),
		outboxRepo:  mocks.NewMockOutboxRepository(),
		auditRepo:   mocks.NewMockAuditRepository(),
		clock:       mocks.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)),
	}

	f.uc = usecase.NewPostingUseCase(
		mocks.NewMockTransactionManager(),
		f.accountRepo,
		f.mappingRepo,
		f.journalRepo,
		f.outboxRepo,
		f.auditRepo,
		mocks.NewMockRefGenerator(),
		f.clock,
		mocks.NewMockRetrier(),
		nil,
		zerolog.Nop(),
	)

	return f
}

func (f *postingFixture) seedAccount(t *testing.T, code string, typ domain.AccountType) {
	t.Helper()

	err := f.accountRepo.Create(context.Background(), &domain.Account{
		Code:    code,
		Name:    "Account " + code,
		Type:    typ,
		Balance: decimal.Zero,
		Active:  true,
	})
	if err != nil {
		t.Fatalf("seed account %s: %v", code, err)
	}
}

func (f *postingFixture) balance(t *testing.T, code string) decimal.Decimal {
	t.Helper()

	acc, err := f.accountRepo.GetByCode(context.Background(), code)
	if err != nil {
		t.Fatalf("get account %s: %v", code, err)
	}

	return acc.Balance
}

func TestPostingUseCase_Post(t *testing.T) {
	f := newPostingFixture()
	f.seedAccount(t, "1001", domain.AccountTypeAsset)
	f.seedAccount(t, "2001", domain.AccountTypeLiability)

	entry, err := f.uc.Post(context.Background(), usecase.PostInput{
		Reference:         "DEP-001",
		Description:       "Savings deposit",
		DebitAccountCode:  "1001",
		CreditAccountCode: "2001",
		Amount:            decimal.NewFromInt(5000),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if entry.Reference != "DEP-001" {
		t.Errorf("reference = %s, want DEP-001", entry.Reference)
	}

	if len(entry.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(entry.Lines))
	}

	// Cash is an asset, so the debit increases it; savings is a liability,
	// so the credit increases it too.
	if !f.balance(t, "1001").Equal(decimal.NewFromInt(5000)) {
		t.Errorf("cash balance = %s, want 5000", f.balance(t, "1001"))
	}

	if !f.balance(t, "2001").Equal(decimal.NewFromInt(5000)) {
		t.Errorf("savings balance = %s, want 5000", f.balance(t, "2001"))
	}

	if len(f.outboxRepo.Events()) != 1 {
		t.Errorf("expected 1 outbox event, got %d", len(f.outboxRepo.Events()))
	}
}

func TestPostingUseCase_PostEvent(t *testing.T) {
	f := newPostingFixture()
	f.seedAccount(t, "1001", domain.AccountTypeAsset)
	f.seedAccount(t, "1002", domain.AccountTypeAsset)
	f.seedAccount(t, "1201", domain.AccountTypeAsset)

	err := f.mappingRepo.Create(context.Background(), &domain.EventMapping{
		EventName:         domain.EventLoanDisbursement,
		DebitAccountCode:  "1201",
		CreditAccountCode: "1001",
		Description:       "Loan disbursement",
	})
	if err != nil {
		t.Fatalf("seed mapping: %v", err)
	}

	t.Run("posts against mapped accounts", func(t *testing.T) {
		_, err := f.uc.PostEvent(context.Background(), usecase.PostEventInput{
			EventName: domain.EventLoanDisbursement,
			Amount:    decimal.NewFromInt(50000),
			Reference: "DISB-100",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		// Both accounts are assets: the receivable rises, cash falls.
		if !f.balance(t, "1201").Equal(decimal.NewFromInt(50000)) {
			t.Errorf("receivable = %s, want 50000", f.balance(t, "1201"))
		}

		if !f.balance(t, "1001").Equal(decimal.NewFromInt(-50000)) {
			t.Errorf("cash = %s, want -50000", f.balance(t, "1001"))
		}
	})

	t.Run("debit override settles from another account", func(t *testing.T) {
		_, err := f.uc.PostEvent(context.Background(), usecase.PostEventInput{
			EventName:            domain.EventLoanDisbursement,
			Amount:               decimal.NewFromInt(1000),
			Reference:            "DISB-101",
			DebitAccountOverride: "1002",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !f.balance(t, "1002").Equal(decimal.NewFromInt(1000)) {
			t.Errorf("bank = %s, want 1000", f.balance(t, "1002"))
		}
	})

	t.Run("unmapped event rejected", func(t *testing.T) {
		_, err := f.uc.PostEvent(context.Background(), usecase.PostEventInput{
			EventName: "UNKNOWN_EVENT",
			Amount:    decimal.NewFromInt(100),
			Reference: "EVT-1",
		})
		if !errors.Is(err, domain.ErrUnmappedEvent) {
			t.Errorf("expected ErrUnmappedEvent, got %v", err)
		}
	})

	t.Run("non-positive amount rejected", func(t *testing.T) {
		_, err := f.uc.PostEvent(context.Background(), usecase.PostEventInput{
			EventName: domain.EventLoanDisbursement,
			Amount:    decimal.Zero,
			Reference: "EVT-2",
		})
		if !errors.Is(err, domain.ErrInvalidAmount) {
			t.Errorf("expected ErrInvalidAmount, got %v", err)
		}
	})
}

func TestPostingUseCase_IdempotentReference(t *testing.T) {
	f := newPostingFixture()
	f.seedAccount(t, "1001", domain.AccountTypeAsset)
	f.seedAccount(t, "2001", domain.AccountTypeLiability)

	input := usecase.PostInput{
		Reference:         "DEP-042",
		DebitAccountCode:  "1001",
		CreditAccountCode: "2001",
		Amount:            decimal.NewFromInt(750),
	}

	first, err := f.uc.Post(context.Background(), input)
	if err != nil {
		t.Fatalf("first post: %v", err)
	}

	second, err := f.uc.Post(context.Background(), input)
	if err != nil {
		t.Fatalf("second post: %v", err)
	}

	if second.ID != first.ID {
		t.Errorf("second post created a new entry: %s != %s", second.ID, first.ID)
	}

	// Balances move exactly once.
	if !f.balance(t, "1001").Equal(decimal.NewFromInt(750)) {
		t.Errorf("cash balance = %s, want 750", f.balance(t, "1001"))
	}
}

func TestPostingUseCase_DuplicateReferenceRace(t *testing.T) {
	f := newPostingFixture()
	f.seedAccount(t, "1001", domain.AccountTypeAsset)
	f.seedAccount(t, "2001", domain.AccountTypeLiability)

	winner := &domain.JournalEntry{ID: "entry-winner", Reference: "DEP-RACE"}

	// The pre-insert read sees nothing, the insert then hits the unique
	// reference constraint. The loser must return the winner's entry.
	f.journalRepo.GetByReferenceTxFunc = func(ctx context.Context, tx usecase.Transaction, reference string) (*domain.JournalEntry, error) {
		return nil, domain.ErrEntryNotFound
	}
	f.journalRepo.CreateEntryFunc = func(ctx context.Context, tx usecase.Transaction, entry *domain.JournalEntry) error {
		return domain.ErrDuplicateReference
	}
	f.journalRepo.GetByReferenceFunc = func(ctx context.Context, reference string) (*domain.JournalEntry, error) {
		return winner, nil
	}

	entry, err := f.uc.Post(context.Background(), usecase.PostInput{
		Reference:         "DEP-RACE",
		DebitAccountCode:  "1001",
		CreditAccountCode: "2001",
		Amount:            decimal.NewFromInt(100),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if entry.ID != "entry-winner" {
		t.Errorf("expected winner entry, got %s", entry.ID)
	}
}

func TestPostingUseCase_PostLinesValidation(t *testing.T) {
	f := newPostingFixture()
	f.seedAccount(t, "1001", domain.AccountTypeAsset)
	f.seedAccount(t, "2001", domain.AccountTypeLiability)

	inactive := &domain.Account{Code: "9999", Name: "Old", Type: domain.AccountTypeAsset, Active: false}
	if err := f.accountRepo.Create(context.Background(), inactive); err != nil {
		t.Fatalf("seed inactive account: %v", err)
	}

	tests := []struct {
		name    string
		input   usecase.PostLinesInput
		wantErr error
	}{
		{
			name: "missing reference",
			input: usecase.PostLinesInput{
				Lines: []usecase.LineInput{
					{AccountCode: "1001", Debit: decimal.NewFromInt(100)},
					{AccountCode: "2001", Credit: decimal.NewFromInt(100)},
				},
			},
			wantErr: domain.ErrMissingReference,
		},
		{
			name: "unbalanced entry",
			input: usecase.PostLinesInput{
				Reference: "TXN-UNBAL",
				Lines: []usecase.LineInput{
					{AccountCode: "1001", Debit: decimal.NewFromInt(100)},
					{AccountCode: "2001", Credit: decimal.NewFromInt(90)},
				},
			},
			wantErr: domain.ErrUnbalancedEntry,
		},
		{
			name: "unknown account",
			input: usecase.PostLinesInput{
				Reference: "TXN-NOACC",
				Lines: []usecase.LineInput{
					{AccountCode: "1001", Debit: decimal.NewFromInt(100)},
					{AccountCode: "8888", Credit: decimal.NewFromInt(100)},
				},
			},
			wantErr: domain.ErrUnknownAccount,
		},
		{
			name: "inactive account",
			input: usecase.PostLinesInput{
				Reference: "TXN-INACT",
				Lines: []usecase.LineInput{
					{AccountCode: "1001", Debit: decimal.NewFromInt(100)},
					{AccountCode: "9999", Credit: decimal.NewFromInt(100)},
				},
			},
			wantErr: domain.ErrUnknownAccount,
		},
		{
			name: "line with both sides",
			input: usecase.PostLinesInput{
				Reference: "TXN-BOTH",
				Lines: []usecase.LineInput{
					{AccountCode: "1001", Debit: decimal.NewFromInt(100), Credit: decimal.NewFromInt(100)},
					{AccountCode: "2001", Credit: decimal.NewFromInt(100)},
				},
			},
			wantErr: domain.ErrInvalidLine,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.uc.PostLines(context.Background(), tt.input)

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("PostLines() = %v, want %v", err, tt.wantErr)
			}
		})
	}

	// None of the rejected postings may touch a balance.
	if !f.balance(t, "1001").IsZero() {
		t.Errorf("cash balance mutated by rejected postings: %s", f.balance(t, "1001"))
	}
}

func TestPostingUseCase_Reverse(t *testing.T) {
	f := newPostingFixture()
	f.seedAccount(t, "1001", domain.AccountTypeAsset)
	f.seedAccount(t, "4001", domain.AccountTypeIncome)

	_, err := f.uc.Post(context.Background(), usecase.PostInput{
		Reference:         "FEE-007",
		Description:       "Registration fee",
		DebitAccountCode:  "1001",
		CreditAccountCode: "4001",
		Amount:            decimal.NewFromInt(300),
	})
	if err != nil {
		t.Fatalf("post: %v", err)
	}

	reversal, err := f.uc.Reverse(context.Background(), usecase.ReverseInput{Reference: "FEE-007"})
	if err != nil {
		t.Fatalf("reverse: %v", err)
	}

	if reversal.Reference != "FEE-007-REV" {
		t.Errorf("reversal reference = %s, want FEE-007-REV", reversal.Reference)
	}

	// Balances are restored; the original entry still exists untouched.
	if !f.balance(t, "1001").IsZero() {
		t.Errorf("cash balance = %s, want 0", f.balance(t, "1001"))
	}

	if !f.balance(t, "4001").IsZero() {
		t.Errorf("income balance = %s, want 0", f.balance(t, "4001"))
	}

	original, err := f.uc.GetEntry(context.Background(), "FEE-007")
	if err != nil {
		t.Fatalf("original entry lost after reversal: %v", err)
	}

	if !original.TotalDebit().Equal(decimal.NewFromInt(300)) {
		t.Errorf("original entry mutated: total debit %s", original.TotalDebit())
	}

	// Reversing again under the same derived reference is absorbed.
	again, err := f.uc.Reverse(context.Background(), usecase.ReverseInput{Reference: "FEE-007"})
	if err != nil {
		t.Fatalf("second reverse: %v", err)
	}

	if again.ID != reversal.ID {
		t.Errorf("second reversal created a new entry")
	}

	if !f.balance(t, "1001").IsZero() {
		t.Errorf("cash balance moved on replayed reversal: %s", f.balance(t, "1001"))
	}
}

func TestPostingUseCase_ReverseUnknownReference(t *testing.T) {
	f := newPostingFixture()

	_, err := f.uc.Reverse(context.Background(), usecase.ReverseInput{Reference: "NOPE"})
	if !errors.Is(err, domain.ErrEntryNotFound) {
		t.Errorf("expected ErrEntryNotFound, got %v", err)
	}
}
