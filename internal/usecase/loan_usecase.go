package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jayrakel/sacco-ledger/internal/amortization"
	"github.com/jayrakel/sacco-ledger/internal/domain"
	"github.com/jayrakel/sacco-ledger/internal/infrastructure/metrics"
)

// LoanConfig carries loan product tunables.
type LoanConfig struct {
	PeriodsPerYear int
	GracePeriods   int
	// ProcessingFeeRate is a percent of principal charged at disbursement.
	// Zero disables the fee.
	ProcessingFeeRate decimal.Decimal
}

// LoanUseCase handles loan disbursement and lifecycle.
type LoanUseCase struct {
	txManager    TransactionManager
	loanRepo     LoanRepository
	scheduleRepo ScheduleRepository
	outboxRepo   OutboxRepository
	auditRepo    AuditRepository
	posting      *PostingUseCase
	refGen       RefGenerator
	clock        Clock
	cfg          LoanConfig
	metrics      *metrics.Metrics
	logger       zerolog.Logger
}

// NewLoanUseCase creates a new LoanUseCase.
func NewLoanUseCase(
	txManager TransactionManager,
	loanRepo LoanRepository,
	scheduleRepo ScheduleRepository,
	outboxRepo OutboxRepository,
	auditRepo AuditRepository,
	posting *PostingUseCase,
	refGen RefGenerator,
	clock Clock,
	cfg LoanConfig,
	metrics *metrics.Metrics,
	logger zerolog.Logger,
) *LoanUseCase {
	return &LoanUseCase{
		txManager:    txManager,
		loanRepo:     loanRepo,
		scheduleRepo: scheduleRepo,
		outboxRepo:   outboxRepo,
		auditRepo:    auditRepo,
		posting:      posting,
		refGen:       refGen,
		clock:        clock,
		cfg:          cfg,
		metrics:      metrics,
		logger:       logger.With().Str("component", "loans").Logger(),
	}
}

// DisburseInput represents input for disbursing a loan.
type DisburseInput struct {
	MemberID          string
	Principal         decimal.Decimal
	AnnualRatePercent decimal.Decimal
	TermPeriods       int
	Method            domain.InterestMethod
	// Reference keys the disbursement posting. Defaults to "DISB-" plus the
	// loan number, so retried requests must pass their own reference to be
	// absorbed as duplicates.
	Reference string
}

// Disburse creates the loan, generates its full repayment schedule and posts
// the disbursement entry, all in one transaction.
func (uc *LoanUseCase) Disburse(ctx context.Context, input DisburseInput) (*domain.Loan, error) {
	if err := domain.ValidateAmount(input.Principal); err != nil {
		return nil, err
	}

	now := uc.clock.Now()
	principal := domain.RoundMoney(input.Principal)

	schedule, err := amortization.Generate(
		amortization.Config{
			PeriodsPerYear: uc.cfg.PeriodsPerYear,
			GracePeriods:   uc.cfg.GracePeriods,
		},
		amortization.Input{
			Principal:         principal,
			AnnualRatePercent: input.AnnualRatePercent,
			TermPeriods:       input.TermPeriods,
			Method:            input.Method,
			DisbursedAt:       now,
		},
	)
	if err != nil {
		return nil, err
	}

	loan := &domain.Loan{
		ID:                   uc.refGen.Generate(),
		LoanNumber:           "LN-" + uc.refGen.Generate(),
		MemberID:             input.MemberID,
		Principal:            principal,
		AnnualRatePercent:    domain.RoundRate(input.AnnualRatePercent),
		TermPeriods:          input.TermPeriods,
		Method:               input.Method,
		Status:               domain.LoanDisbursed,
		OutstandingPrincipal: principal,
		OutstandingInterest:  amortization.TotalInterest(schedule),
		OutstandingFees:      decimal.Zero,
		OutstandingPenalties: decimal.Zero,
		DisbursedAt:          now,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	for _, inst := range schedule {
		inst.ID = uc.refGen.Generate()
		inst.LoanID = loan.ID
		inst.UpdatedAt = now
	}

	reference := input.Reference
	if reference == "" {
		reference = "DISB-" + loan.LoanNumber
	}

	mapping, err := uc.posting.mappingRepo.GetByEvent(ctx, domain.EventLoanDisbursement)
	if err != nil {
		return nil, err
	}

	feeMapping, feeAmount, err := uc.processingFee(ctx, principal)
	if err != nil {
		return nil, err
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := uc.loanRepo.Create(ctx, tx, loan); err != nil {
		return nil, err
	}

	if err := uc.scheduleRepo.CreateBatch(ctx, tx, schedule); err != nil {
		return nil, err
	}

	_, err = uc.posting.postLinesTx(ctx, tx, PostLinesInput{
		Reference:   reference,
		Description: "Loan disbursement " + loan.LoanNumber,
		Lines: []LineInput{
			{AccountCode: mapping.DebitAccountCode, Debit: principal},
			{AccountCode: mapping.CreditAccountCode, Credit: principal},
		},
	})
	if err != nil {
		return nil, err
	}

	if feeAmount.IsPositive() {
		_, err = uc.posting.postLinesTx(ctx, tx, PostLinesInput{
			Reference:   reference + "-FEE",
			Description: "Processing fee " + loan.LoanNumber,
			Lines: []LineInput{
				{AccountCode: feeMapping.DebitAccountCode, Debit: feeAmount},
				{AccountCode: feeMapping.CreditAccountCode, Credit: feeAmount},
			},
		})
		if err != nil {
			return nil, err
		}
	}

	event := &domain.OutboxEvent{
		ID:            uc.refGen.Generate(),
		AggregateID:   loan.ID,
		AggregateType: domain.AggregateTypeLoan,
		EventType:     domain.EventTypeLoanDisbursed,
		Payload: domain.MarshalState(domain.LoanDisbursedEvent{
			LoanID:     loan.ID,
			LoanNumber: loan.LoanNumber,
			MemberID:   loan.MemberID,
			Principal:  principal.StringFixed(2),
			Term:       loan.TermPeriods,
			Method:     string(loan.Method),
		}),
		CreatedAt: now,
	}
	if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
		return nil, err
	}

	audit := &domain.AuditLog{
		ID:           uc.refGen.Generate(),
		Action:       string(domain.AuditActionLoanDisburse),
		ResourceType: domain.AggregateTypeLoan,
		ResourceID:   loan.ID,
		AfterState:   domain.MarshalState(loan),
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
		uc.metrics.LoansDisbursed.Inc()
	}

	uc.logger.Info().
		Str("loan_id", loan.ID).
		Str("loan_number", loan.LoanNumber).
		Str("principal", principal.StringFixed(2)).
		Int("term", loan.TermPeriods).
		Str("method", string(loan.Method)).
		Msg("loan disbursed")

	return loan, nil
}

func (uc *LoanUseCase) processingFee(ctx context.Context, principal decimal.Decimal) (*domain.EventMapping, decimal.Decimal, error) {
	if !uc.cfg.ProcessingFeeRate.IsPositive() {
		return nil, decimal.Zero, nil
	}

	mapping, err := uc.posting.mappingRepo.GetByEvent(ctx, domain.EventLoanProcessingFee)
	if err != nil {
		return nil, decimal.Zero, err
	}

	fee := domain.RoundMoney(principal.Mul(uc.cfg.ProcessingFeeRate).Div(decimal.NewFromInt(100)))

	return mapping, fee, nil
}

// GetLoan retrieves a loan by id.
func (uc *LoanUseCase) GetLoan(ctx context.Context, id string) (*domain.Loan, error) {
	return uc.loanRepo.GetByID(ctx, id)
}

// GetSchedule retrieves a loan's full repayment schedule in order.
func (uc *LoanUseCase) GetSchedule(ctx context.Context, loanID string) ([]*domain.Installment, error) {
	if _, err := uc.loanRepo.GetByID(ctx, loanID); err != nil {
		return nil, err
	}

	return uc.scheduleRepo.ListByLoan(ctx, loanID)
}

// ListLoansByStatus lists loans in a given lifecycle status.
func (uc *LoanUseCase) ListLoansByStatus(ctx context.Context, status domain.LoanStatus, limit, offset int) ([]*domain.Loan, error) {
	limit, offset = domain.ValidatePagination(limit, offset)

	return uc.loanRepo.ListByStatus(ctx, status, limit, offset)
}

// WriteOff writes off the loan's remaining principal as an expense and moves
// the loan to its terminal WRITTEN_OFF status.
func (uc *LoanUseCase) WriteOff(ctx context.Context, loanID, reference string) (*domain.Loan, error) {
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

	if err := loan.TransitionTo(domain.LoanWrittenOff); err != nil {
		return nil, err
	}

	if reference == "" {
		reference = "WO-" + loan.LoanNumber
	}

	if loan.OutstandingPrincipal.IsPositive() {
		_, err = uc.posting.postLinesTx(ctx, tx, PostLinesInput{
			Reference:   reference,
			Description: "Write-off " + loan.LoanNumber,
			Lines: []LineInput{
				{AccountCode: AccountLoanWriteOff, Debit: loan.OutstandingPrincipal},
				{AccountCode: AccountLoanReceivable, Credit: loan.OutstandingPrincipal},
			},
		})
		if err != nil {
			return nil, err
		}
	}

	// Unaccrued interest, fees and penalties are forgiven, not expensed.
	loan.OutstandingPrincipal = decimal.Zero
	loan.OutstandingInterest = decimal.Zero
	loan.OutstandingFees = decimal.Zero
	loan.OutstandingPenalties = decimal.Zero
	loan.ClosedAt = &now
	loan.UpdatedAt = now

	if err := uc.loanRepo.Update(ctx, tx, loan); err != nil {
		return nil, err
	}

	event := &domain.OutboxEvent{
		ID:            uc.refGen.Generate(),
		AggregateID:   loan.ID,
		AggregateType: domain.AggregateTypeLoan,
		EventType:     domain.EventTypeLoanWrittenOff,
		Payload: domain.MarshalState(domain.LoanClosedEvent{
			LoanID:     loan.ID,
			LoanNumber: loan.LoanNumber,
		}),
		CreatedAt: now,
	}
	if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
		return nil, err
	}

	audit := &domain.AuditLog{
		ID:           uc.refGen.Generate(),
		Action:       string(domain.AuditActionLoanWriteOff),
		ResourceType: domain.AggregateTypeLoan,
		ResourceID:   loan.ID,
		AfterState:   domain.MarshalState(loan),
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
		uc.metrics.LoansWrittenOff.Inc()
	}

	uc.logger.Warn().
		Str("loan_id", loan.ID).
		Str("loan_number", loan.LoanNumber).
		Msg("loan written off")

	return loan, nil
}

// PreviewSchedule generates a schedule without persisting anything. Used by
// the API and CLI to show terms before disbursement.
func (uc *LoanUseCase) PreviewSchedule(ctx context.Context, input DisburseInput, from time.Time) ([]*domain.Installment, error) {
	return amortization.Generate(
		amortization.Config{
			PeriodsPerYear: uc.cfg.PeriodsPerYear,
			GracePeriods:   uc.cfg.GracePeriods,
		},
		amortization.Input{
			Principal:         domain.RoundMoney(input.Principal),
			AnnualRatePercent: input.AnnualRatePercent,
			TermPeriods:       input.TermPeriods,
			Method:            input.Method,
			DisbursedAt:       from,
		},
	)
}
