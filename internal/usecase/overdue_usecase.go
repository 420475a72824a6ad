package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/jayrakel/sacco-ledger/internal/domain"
	"github.com/jayrakel/sacco-ledger/internal/infrastructure/metrics"
)

// OverdueConfig carries the arrears tunables.
type OverdueConfig struct {
	// SweepInterval is how often the background sweep runs.
	SweepInterval time.Duration
	// DefaultAfterOverdue is the number of overdue installments after which
	// a loan moves to DEFAULTED. Zero disables automatic default.
	DefaultAfterOverdue int
}

// OverdueUseCase marks past-due installments OVERDUE and moves their loans
// into arrears. It runs as a periodic background worker.
type OverdueUseCase struct {
	txManager    TransactionManager
	loanRepo     LoanRepository
	scheduleRepo ScheduleRepository
	outboxRepo   OutboxRepository
	refGen       RefGenerator
	clock        Clock
	cfg          OverdueConfig
	metrics      *metrics.Metrics
	logger       zerolog.Logger
}

// NewOverdueUseCase creates a new OverdueUseCase.
func NewOverdueUseCase(
	txManager TransactionManager,
	loanRepo LoanRepository,
	scheduleRepo ScheduleRepository,
	outboxRepo OutboxRepository,
	refGen RefGenerator,
	clock Clock,
	cfg OverdueConfig,
	metrics *metrics.Metrics,
	logger zerolog.Logger,
) *OverdueUseCase {
	return &OverdueUseCase{
		txManager:    txManager,
		loanRepo:     loanRepo,
		scheduleRepo: scheduleRepo,
		outboxRepo:   outboxRepo,
		refGen:       refGen,
		clock:        clock,
		cfg:          cfg,
		metrics:      metrics,
		logger:       logger.With().Str("component", "overdue").Logger(),
	}
}

// Start runs the sweep on a ticker until the context is cancelled.
func (uc *OverdueUseCase) Start(ctx context.Context) {
	interval := uc.cfg.SweepInterval
	if interval <= 0 {
		interval = time.Hour
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	uc.logger.Info().Dur("interval", interval).Msg("overdue sweep started")

	for {
		select {
		case <-ctx.Done():
			uc.logger.Info().Msg("overdue sweep stopped")

			return
		case <-ticker.C:
			if err := uc.Sweep(ctx, uc.clock.Now()); err != nil {
				uc.logger.Error().Err(err).Msg("overdue sweep failed")
			}
		}
	}
}

// Sweep moves DISBURSED loans whose first due date has arrived to ACTIVE,
// marks every unsettled installment past its due date OVERDUE, moves affected
// loans to IN_ARREARS, and defaults loans past the configured overdue
// threshold. The sweep is idempotent.
func (uc *OverdueUseCase) Sweep(ctx context.Context, asOf time.Time) error {
	if err := uc.activateMaturedLoans(ctx, asOf); err != nil {
		return err
	}

	pastDue, err := uc.scheduleRepo.ListUnpaidDueBefore(ctx, asOf)
	if err != nil {
		return err
	}

	if len(pastDue) == 0 {
		return nil
	}

	byLoan := make(map[string][]*domain.Installment)
	for _, inst := range pastDue {
		byLoan[inst.LoanID] = append(byLoan[inst.LoanID], inst)
	}

	for loanID, installments := range byLoan {
		if err := uc.sweepLoan(ctx, loanID, installments, asOf); err != nil {
			uc.logger.Error().Err(err).Str("loan_id", loanID).Msg("loan sweep failed")
		}
	}

	return nil
}

// activateMaturedLoans moves DISBURSED loans to ACTIVE once their first
// installment's due date has been reached. Repayment activates a loan too;
// this covers loans that see no payment before the due date.
func (uc *OverdueUseCase) activateMaturedLoans(ctx context.Context, asOf time.Time) error {
	const batchSize = 100

	for offset := 0; ; offset += batchSize {
		loans, err := uc.loanRepo.ListByStatus(ctx, domain.LoanDisbursed, batchSize, offset)
		if err != nil {
			return err
		}

		for _, loan := range loans {
			if err := uc.activateLoan(ctx, loan.ID, asOf); err != nil {
				uc.logger.Error().Err(err).Str("loan_id", loan.ID).Msg("loan activation failed")
			}
		}

		if len(loans) < batchSize {
			return nil
		}
	}
}

func (uc *OverdueUseCase) activateLoan(ctx context.Context, loanID string, asOf time.Time) error {
	installments, err := uc.scheduleRepo.ListByLoan(ctx, loanID)
	if err != nil {
		return err
	}

	matured := false

	for _, inst := range installments {
		if !inst.DueDate.After(asOf) {
			matured = true

			break
		}
	}

	if !matured {
		return nil
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	loan, err := uc.loanRepo.GetByIDForUpdate(ctx, tx, loanID)
	if err != nil {
		return err
	}

	// A payment may have moved the loan on since the listing.
	if loan.Status != domain.LoanDisbursed {
		return tx.Commit(ctx)
	}

	if err := loan.TransitionTo(domain.LoanActive); err != nil {
		return err
	}

	loan.UpdatedAt = asOf

	if err := uc.loanRepo.Update(ctx, tx, loan); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	uc.logger.Info().
		Str("loan_id", loan.ID).
		Str("loan_number", loan.LoanNumber).
		Msg("loan activated on first due date")

	return nil
}

func (uc *OverdueUseCase) sweepLoan(ctx context.Context, loanID string, pastDue []*domain.Installment, asOf time.Time) error {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	loan, err := uc.loanRepo.GetByIDForUpdate(ctx, tx, loanID)
	if err != nil {
		return err
	}

	if loan.Status.Terminal() {
		return tx.Commit(ctx)
	}

	newlyOverdue := 0

	for _, inst := range pastDue {
		if inst.Status == domain.InstallmentOverdue {
			continue
		}

		inst.Status = domain.InstallmentOverdue
		inst.UpdatedAt = asOf

		if err := uc.scheduleRepo.Update(ctx, tx, inst); err != nil {
			return err
		}

		event := &domain.OutboxEvent{
			ID:            uc.refGen.Generate(),
			AggregateID:   loan.ID,
			AggregateType: domain.AggregateTypeLoan,
			EventType:     domain.EventTypeInstallmentOverdue,
			Payload: domain.MarshalState(domain.InstallmentOverdueEvent{
				LoanID:      loan.ID,
				Installment: inst.Number,
				DueDate:     inst.DueDate.Format(time.RFC3339),
				Outstanding: inst.Outstanding().StringFixed(2),
			}),
			CreatedAt: asOf,
		}
		if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
			return err
		}

		newlyOverdue++
	}

	target := uc.targetStatus(loan, len(pastDue))

	if target != "" && target != loan.Status && loan.Status.CanTransitionTo(target) {
		if err := loan.TransitionTo(target); err != nil {
			return err
		}

		loan.UpdatedAt = asOf

		if err := uc.loanRepo.Update(ctx, tx, loan); err != nil {
			return err
		}

		uc.logger.Warn().
			Str("loan_id", loan.ID).
			Str("status", string(loan.Status)).
			Int("overdue", len(pastDue)).
			Msg("loan moved into arrears")
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	if newlyOverdue > 0 {
		if uc.metrics != nil {
			uc.metrics.OverdueMarked.Add(float64(newlyOverdue))
		}

		uc.logger.Info().
			Str("loan_id", loan.ID).
			Int("newly_overdue", newlyOverdue).
			Msg("installments marked overdue")
	}

	return nil
}

func (uc *OverdueUseCase) targetStatus(loan *domain.Loan, overdueCount int) domain.LoanStatus {
	if uc.cfg.DefaultAfterOverdue > 0 && overdueCount >= uc.cfg.DefaultAfterOverdue {
		if loan.Status == domain.LoanInArrears {
			return domain.LoanDefaulted
		}
	}

	return domain.LoanInArrears
}
