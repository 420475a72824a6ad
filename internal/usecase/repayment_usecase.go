package usecase

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jayrakel/sacco-ledger/internal/domain"
	"github.com/jayrakel/sacco-ledger/internal/infrastructure/metrics"
)

// RepaymentUseCase allocates incoming payments across what a loan owes and
// posts the matching journal entry. Allocation order is fixed: penalties,
// then fees, then each unsettled installment in due-date order with interest
// before principal.
type RepaymentUseCase struct {
	txManager    TransactionManager
	loanRepo     LoanRepository
	scheduleRepo ScheduleRepository
	repayRepo    RepaymentRepository
	outboxRepo   OutboxRepository
	auditRepo    AuditRepository
	posting      *PostingUseCase
	refGen       RefGenerator
	clock        Clock
	retrier      Retrier
	metrics      *metrics.Metrics
	logger       zerolog.Logger

	// loanLocks serializes payments per loan within this process; the row
	// lock on the loan does the same across processes.
	loanLocks sync.Map
}

// NewRepaymentUseCase creates a new RepaymentUseCase.
func NewRepaymentUseCase(
	txManager TransactionManager,
	loanRepo LoanRepository,
	scheduleRepo ScheduleRepository,
	repayRepo RepaymentRepository,
	outboxRepo OutboxRepository,
	auditRepo AuditRepository,
	posting *PostingUseCase,
	refGen RefGenerator,
	clock Clock,
	retrier Retrier,
	metrics *metrics.Metrics,
	logger zerolog.Logger,
) *RepaymentUseCase {
	return &RepaymentUseCase{
		txManager:    txManager,
		loanRepo:     loanRepo,
		scheduleRepo: scheduleRepo,
		repayRepo:    repayRepo,
		outboxRepo:   outboxRepo,
		auditRepo:    auditRepo,
		posting:      posting,
		refGen:       refGen,
		clock:        clock,
		retrier:      retrier,
		metrics:      metrics,
		logger:       logger.With().Str("component", "repayments").Logger(),
	}
}

// AllocatePaymentInput represents input for allocating a loan payment.
type AllocatePaymentInput struct {
	LoanID string
	Amount decimal.Decimal
	// Reference is the idempotency key for the payment. Replaying the same
	// reference returns the original allocation without moving money again.
	Reference string
	// SourceAccountCode is the asset account the money arrived in. Defaults
	// to the bank account.
	SourceAccountCode string
}

// AllocationResult describes how one payment was split.
type AllocationResult struct {
	Loan          *domain.Loan
	Record        *domain.RepaymentRecord
	PrincipalPaid decimal.Decimal
	InterestPaid  decimal.Decimal
	FeesPaid      decimal.Decimal
	PenaltiesPaid decimal.Decimal
	LoanClosed    bool
	// Absorbed is true when the reference had already been allocated and the
	// stored result was returned instead.
	Absorbed bool
}

// AllocatePayment applies a payment to a loan. The schedule updates, loan
// totals, journal entry and repayment record commit atomically; any failure
// rolls everything back.
func (uc *RepaymentUseCase) AllocatePayment(ctx context.Context, input AllocatePaymentInput) (*AllocationResult, error) {
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}

	if input.Reference == "" {
		return nil, domain.ErrMissingReference
	}

	source := input.SourceAccountCode
	if source == "" {
		source = AccountBank
	}

	unlock := uc.lockLoan(input.LoanID)
	defer unlock()

	var result *AllocationResult

	err := uc.retrier.Retry(ctx, func() error {
		var err error
		result, err = uc.allocate(ctx, input.LoanID, domain.RoundMoney(input.Amount), input.Reference, source)

		return err
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// ListRepayments lists a loan's repayment records, newest first.
func (uc *RepaymentUseCase) ListRepayments(ctx context.Context, loanID string, limit, offset int) ([]*domain.RepaymentRecord, error) {
	limit, offset = domain.ValidatePagination(limit, offset)

	return uc.repayRepo.ListByLoan(ctx, loanID, limit, offset)
}

func (uc *RepaymentUseCase) allocate(ctx context.Context, loanID string, amount decimal.Decimal, reference, source string) (*AllocationResult, error) {
	now := uc.clock.Now()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	loan, err := uc.loanRepo.GetByIDForUpdate(ctx, tx, loanID)
	if err != nil {
		return nil, err
	}

	// Replay of an already-allocated reference: return the stored outcome.
	existing, err := uc.posting.journalRepo.GetByReferenceTx(ctx, tx, reference)
	if err != nil && !errors.Is(err, domain.ErrEntryNotFound) {
		return nil, err
	}

	if existing != nil {
		record, err := uc.repayRepo.GetByJournalEntry(ctx, tx, existing.ID)
		if err != nil {
			return nil, err
		}

		return &AllocationResult{
			Loan:          loan,
			Record:        record,
			PrincipalPaid: record.PrincipalPaid,
			InterestPaid:  record.InterestPaid,
			FeesPaid:      record.FeesPaid,
			PenaltiesPaid: record.PenaltiesPaid,
			LoanClosed:    loan.Status == domain.LoanClosed,
			Absorbed:      true,
		}, nil
	}

	if !loan.Status.Repayable() {
		return nil, domain.ErrLoanNotActive
	}

	if amount.GreaterThan(loan.TotalOutstanding()) {
		return nil, domain.ErrOverpayment
	}

	installments, err := uc.scheduleRepo.ListByLoanForUpdate(ctx, tx, loanID)
	if err != nil {
		return nil, err
	}

	sort.Slice(installments, func(i, j int) bool {
		return installments[i].Number < installments[j].Number
	})

	split, touched := allocateWaterfall(loan, installments, amount, now)

	for _, inst := range touched {
		if err := uc.scheduleRepo.Update(ctx, tx, inst); err != nil {
			return nil, err
		}
	}

	loan.OutstandingPenalties = loan.OutstandingPenalties.Sub(split.penalties)
	loan.OutstandingFees = loan.OutstandingFees.Sub(split.fees)
	loan.OutstandingInterest = loan.OutstandingInterest.Sub(split.interest)
	loan.OutstandingPrincipal = loan.OutstandingPrincipal.Sub(split.principal)
	loan.UpdatedAt = now

	closed := false

	switch {
	case loan.TotalOutstanding().IsZero():
		if err := loan.TransitionTo(domain.LoanClosed); err != nil {
			return nil, err
		}

		loan.ClosedAt = &now
		closed = true
	case loan.Status == domain.LoanDisbursed:
		if err := loan.TransitionTo(domain.LoanActive); err != nil {
			return nil, err
		}
	case loan.Status == domain.LoanInArrears && nonePastDue(installments, now):
		if err := loan.TransitionTo(domain.LoanActive); err != nil {
			return nil, err
		}
	}

	if err := uc.loanRepo.Update(ctx, tx, loan); err != nil {
		return nil, err
	}

	entry, err := uc.posting.postLinesTx(ctx, tx, PostLinesInput{
		Reference:   reference,
		Description: "Loan repayment " + loan.LoanNumber,
		Lines:       repaymentLines(source, amount, split),
	})
	if err != nil {
		return nil, err
	}

	record := &domain.RepaymentRecord{
		ID:             uc.refGen.Generate(),
		LoanID:         loan.ID,
		JournalEntryID: entry.ID,
		Amount:         amount,
		PrincipalPaid:  split.principal,
		InterestPaid:   split.interest,
		FeesPaid:       split.fees,
		PenaltiesPaid:  split.penalties,
		PaidAt:         now,
		CreatedAt:      now,
	}
	if err := uc.repayRepo.Create(ctx, tx, record); err != nil {
		return nil, err
	}

	event := &domain.OutboxEvent{
		ID:            uc.refGen.Generate(),
		AggregateID:   loan.ID,
		AggregateType: domain.AggregateTypeLoan,
		EventType:     domain.EventTypePaymentAllocated,
		Payload: domain.MarshalState(domain.PaymentAllocatedEvent{
			LoanID:         loan.ID,
			JournalEntryID: entry.ID,
			Amount:         amount.StringFixed(2),
			PrincipalPaid:  split.principal.StringFixed(2),
			InterestPaid:   split.interest.StringFixed(2),
			FeesPaid:       split.fees.StringFixed(2),
			PenaltiesPaid:  split.penalties.StringFixed(2),
		}),
		CreatedAt: now,
	}
	if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
		return nil, err
	}

	if closed {
		closedEvent := &domain.OutboxEvent{
			ID:            uc.refGen.Generate(),
			AggregateID:   loan.ID,
			AggregateType: domain.AggregateTypeLoan,
			EventType:     domain.EventTypeLoanClosed,
			Payload: domain.MarshalState(domain.LoanClosedEvent{
				LoanID:     loan.ID,
				LoanNumber: loan.LoanNumber,
			}),
			CreatedAt: now,
		}
		if err := uc.outboxRepo.Create(ctx, tx, closedEvent); err != nil {
			return nil, err
		}
	}

	audit := &domain.AuditLog{
		ID:           uc.refGen.Generate(),
		Action:       string(domain.AuditActionLoanRepay),
		ResourceType: domain.AggregateTypeLoan,
		ResourceID:   loan.ID,
		AfterState:   domain.MarshalState(record),
		Status:       string(domain.AuditStatusSuccess),
		CreatedAt:    now,
	}
	if err := uc.auditRepo.CreateTx(ctx, tx, audit); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.PaymentsAllocated.Inc()
		uc.metrics.PaymentAmount.Observe(amount.InexactFloat64())

		if closed {
			uc.metrics.LoansClosed.Inc()
		}
	}

	uc.logger.Info().
		Str("loan_id", loan.ID).
		Str("reference", reference).
		Str("amount", amount.StringFixed(2)).
		Str("principal", split.principal.StringFixed(2)).
		Str("interest", split.interest.StringFixed(2)).
		Bool("closed", closed).
		Msg("payment allocated")

	return &AllocationResult{
		Loan:          loan,
		Record:        record,
		PrincipalPaid: split.principal,
		InterestPaid:  split.interest,
		FeesPaid:      split.fees,
		PenaltiesPaid: split.penalties,
		LoanClosed:    closed,
	}, nil
}

type paymentSplit struct {
	penalties decimal.Decimal
	fees      decimal.Decimal
	interest  decimal.Decimal
	principal decimal.Decimal
}

// allocateWaterfall distributes amount over the loan's obligations in fixed
// order and mutates the touched installments. The caller has already rejected
// anything above the total outstanding, so nothing is ever left over.
func allocateWaterfall(loan *domain.Loan, installments []*domain.Installment, amount decimal.Decimal, now time.Time) (paymentSplit, []*domain.Installment) {
	var split paymentSplit

	remaining := amount

	split.penalties = decimal.Min(remaining, loan.OutstandingPenalties)
	remaining = remaining.Sub(split.penalties)

	split.fees = decimal.Min(remaining, loan.OutstandingFees)
	remaining = remaining.Sub(split.fees)

	split.interest = decimal.Zero
	split.principal = decimal.Zero

	var touched []*domain.Installment

	for _, inst := range installments {
		if remaining.IsZero() {
			break
		}

		if inst.Settled() {
			continue
		}

		pay := decimal.Min(remaining, inst.Outstanding())
		if !pay.IsPositive() {
			continue
		}

		interestPart := decimal.Min(pay, inst.InterestOutstanding())
		principalPart := pay.Sub(interestPart)

		// Paid never exceeds TotalDue here, pay is capped at Outstanding.
		_ = inst.ApplyPayment(pay, now)

		split.interest = split.interest.Add(interestPart)
		split.principal = split.principal.Add(principalPart)
		remaining = remaining.Sub(pay)

		touched = append(touched, inst)
	}

	return split, touched
}

func nonePastDue(installments []*domain.Installment, asOf time.Time) bool {
	for _, inst := range installments {
		if inst.PastDue(asOf) {
			return false
		}
	}

	return true
}

func repaymentLines(source string, amount decimal.Decimal, split paymentSplit) []LineInput {
	lines := []LineInput{{AccountCode: source, Debit: amount}}

	if split.principal.IsPositive() {
		lines = append(lines, LineInput{AccountCode: AccountLoanReceivable, Credit: split.principal})
	}

	if split.interest.IsPositive() {
		lines = append(lines, LineInput{AccountCode: AccountInterestIncome, Credit: split.interest})
	}

	if split.fees.IsPositive() {
		lines = append(lines, LineInput{AccountCode: AccountProcessingFee, Credit: split.fees})
	}

	if split.penalties.IsPositive() {
		lines = append(lines, LineInput{AccountCode: AccountPenaltyIncome, Credit: split.penalties})
	}

	return lines
}

func (uc *RepaymentUseCase) lockLoan(loanID string) func() {
	v, _ := uc.loanLocks.LoadOrStore(loanID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()

	return mu.Unlock
}
