package usecase

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jayrakel/sacco-ledger/internal/domain"
	"github.com/jayrakel/sacco-ledger/internal/infrastructure/metrics"
)

// PostingUseCase is the journal posting engine. Every entry it creates is
// balanced, immutable and keyed by a unique transaction reference; posting
// the same reference twice returns the original entry instead of failing.
type PostingUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	mappingRepo MappingRepository
	journalRepo JournalRepository
	outboxRepo  OutboxRepository
	auditRepo   AuditRepository
	refGen      RefGenerator
	clock       Clock
	retrier     Retrier
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

// NewPostingUseCase creates a new PostingUseCase.
func NewPostingUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	mappingRepo MappingRepository,
	journalRepo JournalRepository,
	outboxRepo OutboxRepository,
	auditRepo AuditRepository,
	refGen RefGenerator,
	clock Clock,
	retrier Retrier,
	metrics *metrics.Metrics,
	logger zerolog.Logger,
) *PostingUseCase {
	return &PostingUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		mappingRepo: mappingRepo,
		journalRepo: journalRepo,
		outboxRepo:  outboxRepo,
		auditRepo:   auditRepo,
		refGen:      refGen,
		clock:       clock,
		retrier:     retrier,
		metrics:     metrics,
		logger:      logger.With().Str("component", "posting").Logger(),
	}
}

// LineInput is one leg of a posting. Exactly one of Debit or Credit must be
// positive.
type LineInput struct {
	AccountCode string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
}

// PostLinesInput represents input for posting an arbitrary balanced entry.
type PostLinesInput struct {
	Reference       string
	Description     string
	TransactionDate *time.Time
	Lines           []LineInput
}

// PostEventInput represents input for posting a mapped business event.
type PostEventInput struct {
	EventName   string
	Amount      decimal.Decimal
	Reference   string
	Description string
	// DebitAccountOverride replaces the mapping's debit account, so the same
	// event can be settled from cash, bank or mobile money.
	DebitAccountOverride string
}

// ReverseInput represents input for reversing a posted entry.
type ReverseInput struct {
	// Reference identifies the entry being reversed.
	Reference string
	// ReversalReference keys the reversing entry. Defaults to the original
	// reference with a "-REV" suffix, which makes reversal idempotent too.
	ReversalReference string
	Description       string
}

// PostInput represents input for a simple two-line posting.
type PostInput struct {
	Reference         string
	Description       string
	DebitAccountCode  string
	CreditAccountCode string
	Amount            decimal.Decimal
}

// Post posts a plain debit/credit pair.
func (uc *PostingUseCase) Post(ctx context.Context, input PostInput) (*domain.JournalEntry, error) {
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}

	amount := domain.RoundMoney(input.Amount)

	return uc.PostLines(ctx, PostLinesInput{
		Reference:   input.Reference,
		Description: input.Description,
		Lines: []LineInput{
			{AccountCode: input.DebitAccountCode, Debit: amount},
			{AccountCode: input.CreditAccountCode, Credit: amount},
		},
	})
}

// PostEvent posts a two-line entry for a configured business event.
func (uc *PostingUseCase) PostEvent(ctx context.Context, input PostEventInput) (*domain.JournalEntry, error) {
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}

	mapping, err := uc.mappingRepo.GetByEvent(ctx, input.EventName)
	if err != nil {
		return nil, err
	}

	debitCode := mapping.DebitAccountCode
	if input.DebitAccountOverride != "" {
		debitCode = input.DebitAccountOverride
	}

	description := input.Description
	if description == "" {
		description = mapping.Description
	}

	amount := domain.RoundMoney(input.Amount)

	return uc.PostLines(ctx, PostLinesInput{
		Reference:   input.Reference,
		Description: description,
		Lines: []LineInput{
			{AccountCode: debitCode, Debit: amount},
			{AccountCode: mapping.CreditAccountCode, Credit: amount},
		},
	})
}

// PostLines posts a balanced entry with any number of lines in its own
// transaction. A duplicate reference is absorbed: the existing entry is
// returned and no new postings happen.
func (uc *PostingUseCase) PostLines(ctx context.Context, input PostLinesInput) (*domain.JournalEntry, error) {
	var entry *domain.JournalEntry

	err := uc.retrier.Retry(ctx, func() error {
		tx, err := uc.txManager.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		entry, err = uc.postLinesTx(ctx, tx, input)
		if err != nil {
			return err
		}

		return tx.Commit(ctx)
	})
	if err != nil {
		// Lost a race on the unique reference: the winner's entry is the
		// result the caller wants.
		if errors.Is(err, domain.ErrDuplicateReference) {
			return uc.journalRepo.GetByReference(ctx, input.Reference)
		}

		if uc.metrics != nil {
			uc.metrics.PostingErrors.WithLabelValues(errorLabel(err)).Inc()
		}

		return nil, err
	}

	return entry, nil
}

// GetEntry retrieves an entry by its transaction reference.
func (uc *PostingUseCase) GetEntry(ctx context.Context, reference string) (*domain.JournalEntry, error) {
	return uc.journalRepo.GetByReference(ctx, reference)
}

// ListByAccount lists entries touching an account, newest first.
func (uc *PostingUseCase) ListByAccount(ctx context.Context, accountCode string, limit, offset int) ([]*domain.JournalEntry, error) {
	limit, offset = domain.ValidatePagination(limit, offset)

	return uc.journalRepo.ListByAccount(ctx, accountCode, limit, offset)
}

// Reverse posts a new entry with the original's lines swapped. The original
// entry is never mutated.
func (uc *PostingUseCase) Reverse(ctx context.Context, input ReverseInput) (*domain.JournalEntry, error) {
	original, err := uc.journalRepo.GetByReference(ctx, input.Reference)
	if err != nil {
		return nil, err
	}

	reversalRef := input.ReversalReference
	if reversalRef == "" {
		reversalRef = original.Reference + "-REV"
	}

	description := input.Description
	if description == "" {
		description = "Reversal of " + original.Reference
	}

	lines := make([]LineInput, 0, len(original.Lines))
	for _, l := range original.ReversalLines() {
		lines = append(lines, LineInput{
			AccountCode: l.AccountCode,
			Debit:       l.Debit,
			Credit:      l.Credit,
		})
	}

	entry, err := uc.PostLines(ctx, PostLinesInput{
		Reference:   reversalRef,
		Description: description,
		Lines:       lines,
	})
	if err != nil {
		return nil, err
	}

	uc.appendOutboxStandalone(ctx, entry, domain.EventTypeEntryReversed)

	if uc.metrics != nil {
		uc.metrics.EntriesReversed.Inc()
	}

	return entry, nil
}

// postLinesTx posts an entry inside an existing transaction. Other use cases
// in this package call it to make a posting atomic with their own writes.
func (uc *PostingUseCase) postLinesTx(ctx context.Context, tx Transaction, input PostLinesInput) (*domain.JournalEntry, error) {
	now := uc.clock.Now()

	txDate := now
	if input.TransactionDate != nil {
		txDate = *input.TransactionDate
	}

	entry := &domain.JournalEntry{
		ID:              uc.refGen.Generate(),
		Reference:       input.Reference,
		Description:     input.Description,
		TransactionDate: txDate,
		CreatedAt:       now,
	}

	for _, li := range input.Lines {
		entry.Lines = append(entry.Lines, &domain.JournalLine{
			ID:          uc.refGen.Generate(),
			EntryID:     entry.ID,
			AccountCode: li.AccountCode,
			Debit:       domain.RoundMoney(li.Debit),
			Credit:      domain.RoundMoney(li.Credit),
		})
	}

	if err := entry.Validate(); err != nil {
		return nil, err
	}

	// Duplicate reference means the transaction was already posted. Absorb it
	// and return the original entry.
	existing, err := uc.journalRepo.GetByReferenceTx(ctx, tx, entry.Reference)
	if err != nil && !errors.Is(err, domain.ErrEntryNotFound) {
		return nil, err
	}

	if existing != nil {
		uc.logger.Info().
			Str("reference", entry.Reference).
			Msg("duplicate reference absorbed")

		if uc.metrics != nil {
			uc.metrics.DuplicatesAbsorbed.Inc()
		}

		return existing, nil
	}

	// Lock accounts in sorted code order to prevent deadlocks between
	// concurrent postings.
	codes := uc.collectAccountCodes(entry.Lines)
	sort.Strings(codes)

	accounts, err := uc.accountRepo.GetByCodesForUpdate(ctx, tx, codes)
	if err != nil {
		return nil, err
	}

	if len(accounts) != len(codes) {
		return nil, domain.ErrUnknownAccount
	}

	accountMap := make(map[string]*domain.Account, len(accounts))
	for _, a := range accounts {
		if !a.Active {
			return nil, domain.ErrUnknownAccount
		}

		accountMap[a.Code] = a
	}

	if err := uc.journalRepo.CreateEntry(ctx, tx, entry); err != nil {
		return nil, err
	}

	for _, line := range entry.Lines {
		account := accountMap[line.AccountCode]

		var newBalance decimal.Decimal
		if line.IsDebit() {
			newBalance = account.ApplyDebit(line.Debit)
		} else {
			newBalance = account.ApplyCredit(line.Credit)
		}

		if err := uc.accountRepo.UpdateBalance(ctx, tx, account.Code, newBalance, now); err != nil {
			return nil, err
		}

		account.Balance = newBalance

		if uc.metrics != nil {
			uc.metrics.AccountBalance.
				WithLabelValues(account.Code, string(account.Type)).
				Set(newBalance.InexactFloat64())
		}
	}

	if err := uc.appendOutboxTx(ctx, tx, entry, domain.EventTypeEntryPosted); err != nil {
		return nil, err
	}

	audit := &domain.AuditLog{
		ID:           uc.refGen.Generate(),
		Action:       string(domain.AuditActionJournalPost),
		ResourceType: domain.AggregateTypeJournalEntry,
		ResourceID:   entry.ID,
		AfterState:   domain.MarshalState(entry),
		Status:       string(domain.AuditStatusSuccess),
		CreatedAt:    now,
	}
	if err := uc.auditRepo.CreateTx(ctx, tx, audit); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.EntriesPosted.Inc()
		uc.metrics.PostingDuration.Observe(time.Since(now).Seconds())
	}

	uc.logger.Info().
		Str("entry_id", entry.ID).
		Str("reference", entry.Reference).
		Int("lines", len(entry.Lines)).
		Str("total", entry.TotalDebit().StringFixed(2)).
		Msg("journal entry posted")

	return entry, nil
}

func (uc *PostingUseCase) appendOutboxTx(ctx context.Context, tx Transaction, entry *domain.JournalEntry, eventType string) error {
	event := &domain.OutboxEvent{
		ID:            uc.refGen.Generate(),
		AggregateID:   entry.ID,
		AggregateType: domain.AggregateTypeJournalEntry,
		EventType:     eventType,
		Payload: domain.MarshalState(domain.EntryPostedEvent{
			EntryID:     entry.ID,
			Reference:   entry.Reference,
			Description: entry.Description,
			TotalDebit:  entry.TotalDebit().StringFixed(2),
			LineCount:   len(entry.Lines),
		}),
		CreatedAt: uc.clock.Now(),
	}

	return uc.outboxRepo.Create(ctx, tx, event)
}

// appendOutboxStandalone records a follow-up event outside the posting
// transaction. Failure is logged, never surfaced.
func (uc *PostingUseCase) appendOutboxStandalone(ctx context.Context, entry *domain.JournalEntry, eventType string) {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		uc.logger.Warn().Err(err).Msg("outbox append skipped")

		return
	}
	defer tx.Rollback(ctx)

	if err := uc.appendOutboxTx(ctx, tx, entry, eventType); err != nil {
		uc.logger.Warn().Err(err).Msg("outbox append skipped")

		return
	}

	if err := tx.Commit(ctx); err != nil {
		uc.logger.Warn().Err(err).Msg("outbox append skipped")
	}
}

func errorLabel(err error) string {
	switch {
	case errors.Is(err, domain.ErrUnknownAccount):
		return "unknown_account"
	case errors.Is(err, domain.ErrUnbalancedEntry):
		return "unbalanced"
	case errors.Is(err, domain.ErrInvalidLine):
		return "invalid_line"
	case errors.Is(err, domain.ErrMissingReference):
		return "missing_reference"
	case errors.Is(err, domain.ErrInvalidAmount):
		return "invalid_amount"
	default:
		return "other"
	}
}

func (uc *PostingUseCase) collectAccountCodes(lines []*domain.JournalLine) []string {
	seen := make(map[string]bool)

	var codes []string
	for _, l := range lines {
		if !seen[l.AccountCode] {
			seen[l.AccountCode] = true
			codes = append(codes, l.AccountCode)
		}
	}

	return codes
}
