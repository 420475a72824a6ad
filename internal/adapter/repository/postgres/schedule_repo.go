package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jayrakel/sacco-ledger/internal/domain"
	"github.com/jayrakel/sacco-ledger/internal/usecase"
)

// ScheduleRepository implements usecase.ScheduleRepository.
type ScheduleRepository struct {
	pool *pgxpool.Pool
}

// NewScheduleRepository creates a new ScheduleRepository.
func NewScheduleRepository(pool *pgxpool.Pool) *ScheduleRepository {
	return &ScheduleRepository{pool: pool}
}

const installmentColumns = `id, loan_id, number, due_date, principal_due, interest_due,
	total_due, paid, status, updated_at`

// CreateBatch inserts a loan's whole schedule.
func (r *ScheduleRepository) CreateBatch(ctx context.Context, tx usecase.Transaction, installments []*domain.Installment) error {
	q := txQuerier(tx)

	for _, inst := range installments {
		_, err := q.Exec(ctx, `
			INSERT INTO installments (
				id, loan_id, number, due_date, principal_due, interest_due,
				total_due, paid, status, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			inst.ID,
			inst.LoanID,
			inst.Number,
			timeToPgTimestamptz(inst.DueDate),
			decimalToNumeric(inst.PrincipalDue),
			decimalToNumeric(inst.InterestDue),
			decimalToNumeric(inst.TotalDue),
			decimalToNumeric(inst.Paid),
			string(inst.Status),
			timeToPgTimestamptz(inst.UpdatedAt),
		)
		if err != nil {
			return err
		}
	}

	return nil
}

// ListByLoan lists a loan's installments in number order.
func (r *ScheduleRepository) ListByLoan(ctx context.Context, loanID string) ([]*domain.Installment, error) {
	return r.listByLoan(ctx, r.pool, loanID, false)
}

// ListByLoanForUpdate lists and locks a loan's installments.
func (r *ScheduleRepository) ListByLoanForUpdate(ctx context.Context, tx usecase.Transaction, loanID string) ([]*domain.Installment, error) {
	return r.listByLoan(ctx, txQuerier(tx), loanID, true)
}

func (r *ScheduleRepository) listByLoan(ctx context.Context, q querier, loanID string, forUpdate bool) ([]*domain.Installment, error) {
	query := `
		SELECT ` + installmentColumns + `
		FROM installments
		WHERE loan_id = $1
		ORDER BY number`

	if forUpdate {
		query += `
		FOR UPDATE`
	}

	rows, err := q.Query(ctx, query, loanID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanInstallments(rows)
}

// Update persists an installment's paid amount and status.
func (r *ScheduleRepository) Update(ctx context.Context, tx usecase.Transaction, installment *domain.Installment) error {
	_, err := txQuerier(tx).Exec(ctx, `
		UPDATE installments
		SET paid = $2, status = $3, updated_at = $4
		WHERE id = $1`,
		installment.ID,
		decimalToNumeric(installment.Paid),
		string(installment.Status),
		timeToPgTimestamptz(installment.UpdatedAt),
	)

	return err
}

// ListUnpaidDueBefore returns unsettled installments past due as of asOf,
// across all loans.
func (r *ScheduleRepository) ListUnpaidDueBefore(ctx context.Context, asOf time.Time) ([]*domain.Installment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+installmentColumns+`
		FROM installments
		WHERE status <> 'PAID' AND due_date < $1
		ORDER BY loan_id, number`,
		timeToPgTimestamptz(asOf),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanInstallments(rows)
}

func scanInstallments(rows pgx.Rows) ([]*domain.Installment, error) {
	var installments []*domain.Installment

	for rows.Next() {
		var (
			inst         domain.Installment
			dueDate      pgtype.Timestamptz
			principalDue pgtype.Numeric
			interestDue  pgtype.Numeric
			totalDue     pgtype.Numeric
			paid         pgtype.Numeric
			status       string
			updatedAt    pgtype.Timestamptz
		)

		err := rows.Scan(
			&inst.ID,
			&inst.LoanID,
			&inst.Number,
			&dueDate,
			&principalDue,
			&interestDue,
			&totalDue,
			&paid,
			&status,
			&updatedAt,
		)
		if err != nil {
			return nil, err
		}

		inst.DueDate = dueDate.Time
		inst.PrincipalDue = numericToDecimal(principalDue)
		inst.InterestDue = numericToDecimal(interestDue)
		inst.TotalDue = numericToDecimal(totalDue)
		inst.Paid = numericToDecimal(paid)
		inst.Status = domain.InstallmentStatus(status)
		inst.UpdatedAt = updatedAt.Time

		installments = append(installments, &inst)
	}

	return installments, rows.Err()
}
