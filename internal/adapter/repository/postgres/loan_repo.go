package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jayrakel/sacco-ledger/internal/domain"
	"github.com/jayrakel/sacco-ledger/internal/usecase"
)

// LoanRepository implements usecase.LoanRepository.
type LoanRepository struct {
	pool *pgxpool.Pool
}

// NewLoanRepository creates a new LoanRepository.
func NewLoanRepository(pool *pgxpool.Pool) *LoanRepository {
	return &LoanRepository{pool: pool}
}

const loanColumns = `id, loan_number, member_id, principal, annual_rate_percent, term_periods,
	method, status, outstanding_principal, outstanding_interest, outstanding_fees,
	outstanding_penalties, disbursed_at, closed_at, created_at, updated_at`

// Create creates a new loan.
func (r *LoanRepository) Create(ctx context.Context, tx usecase.Transaction, loan *domain.Loan) error {
	_, err := txQuerier(tx).Exec(ctx, `
		INSERT INTO loans (
			id, loan_number, member_id, principal, annual_rate_percent, term_periods,
			method, status, outstanding_principal, outstanding_interest, outstanding_fees,
			outstanding_penalties, disbursed_at, closed_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		loan.ID,
		loan.LoanNumber,
		loan.MemberID,
		decimalToNumeric(loan.Principal),
		decimalToNumeric(loan.AnnualRatePercent),
		loan.TermPeriods,
		string(loan.Method),
		string(loan.Status),
		decimalToNumeric(loan.OutstandingPrincipal),
		decimalToNumeric(loan.OutstandingInterest),
		decimalToNumeric(loan.OutstandingFees),
		decimalToNumeric(loan.OutstandingPenalties),
		timeToPgTimestamptz(loan.DisbursedAt),
		timePtrToPgTimestamptz(loan.ClosedAt),
		timeToPgTimestamptz(loan.CreatedAt),
		timeToPgTimestamptz(loan.UpdatedAt),
	)

	return err
}

// GetByID retrieves a loan by id.
func (r *LoanRepository) GetByID(ctx context.Context, id string) (*domain.Loan, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+loanColumns+`
		FROM loans
		WHERE id = $1`,
		id,
	)

	return scanLoan(row)
}

// GetByIDForUpdate retrieves a loan with a FOR UPDATE lock. Serializes
// concurrent payments against the same loan across processes.
func (r *LoanRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Loan, error) {
	row := txQuerier(tx).QueryRow(ctx, `
		SELECT `+loanColumns+`
		FROM loans
		WHERE id = $1
		FOR UPDATE`,
		id,
	)

	return scanLoan(row)
}

// Update persists a loan's mutable fields.
func (r *LoanRepository) Update(ctx context.Context, tx usecase.Transaction, loan *domain.Loan) error {
	_, err := txQuerier(tx).Exec(ctx, `
		UPDATE loans
		SET status = $2,
			outstanding_principal = $3,
			outstanding_interest = $4,
			outstanding_fees = $5,
			outstanding_penalties = $6,
			closed_at = $7,
			updated_at = $8
		WHERE id = $1`,
		loan.ID,
		string(loan.Status),
		decimalToNumeric(loan.OutstandingPrincipal),
		decimalToNumeric(loan.OutstandingInterest),
		decimalToNumeric(loan.OutstandingFees),
		decimalToNumeric(loan.OutstandingPenalties),
		timePtrToPgTimestamptz(loan.ClosedAt),
		timeToPgTimestamptz(loan.UpdatedAt),
	)

	return err
}

// ListByStatus lists loans in a lifecycle status, newest first.
func (r *LoanRepository) ListByStatus(ctx context.Context, status domain.LoanStatus, limit, offset int) ([]*domain.Loan, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+loanColumns+`
		FROM loans
		WHERE status = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`,
		string(status),
		limit,
		offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var loans []*domain.Loan

	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}

		loans = append(loans, loan)
	}

	return loans, rows.Err()
}

func scanLoan(row pgx.Row) (*domain.Loan, error) {
	var (
		loan        domain.Loan
		principal   pgtype.Numeric
		rate        pgtype.Numeric
		method      string
		status      string
		outPrinc    pgtype.Numeric
		outInt      pgtype.Numeric
		outFees     pgtype.Numeric
		outPen      pgtype.Numeric
		disbursedAt pgtype.Timestamptz
		closedAt    pgtype.Timestamptz
		createdAt   pgtype.Timestamptz
		updatedAt   pgtype.Timestamptz
	)

	err := row.Scan(
		&loan.ID,
		&loan.LoanNumber,
		&loan.MemberID,
		&principal,
		&rate,
		&loan.TermPeriods,
		&method,
		&status,
		&outPrinc,
		&outInt,
		&outFees,
		&outPen,
		&disbursedAt,
		&closedAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrLoanNotFound
		}

		return nil, err
	}

	loan.Principal = numericToDecimal(principal)
	loan.AnnualRatePercent = numericToDecimal(rate)
	loan.Method = domain.InterestMethod(method)
	loan.Status = domain.LoanStatus(status)
	loan.OutstandingPrincipal = numericToDecimal(outPrinc)
	loan.OutstandingInterest = numericToDecimal(outInt)
	loan.OutstandingFees = numericToDecimal(outFees)
	loan.OutstandingPenalties = numericToDecimal(outPen)
	loan.DisbursedAt = disbursedAt.Time
	loan.ClosedAt = pgTimestamptzToTimePtr(closedAt)
	loan.CreatedAt = createdAt.Time
	loan.UpdatedAt = updatedAt.Time

	return &loan, nil
}
