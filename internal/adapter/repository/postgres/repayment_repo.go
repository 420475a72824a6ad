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

// RepaymentRepository implements usecase.RepaymentRepository.
type RepaymentRepository struct {
	pool *pgxpool.Pool
}

// NewRepaymentRepository creates a new RepaymentRepository.
func NewRepaymentRepository(pool *pgxpool.Pool) *RepaymentRepository {
	return &RepaymentRepository{pool: pool}
}

const repaymentColumns = `id, loan_id, journal_entry_id, amount, principal_paid,
	interest_paid, fees_paid, penalties_paid, paid_at, created_at`

// Create persists a repayment record.
func (r *RepaymentRepository) Create(ctx context.Context, tx usecase.Transaction, record *domain.RepaymentRecord) error {
	_, err := txQuerier(tx).Exec(ctx, `
		INSERT INTO repayment_records (
			id, loan_id, journal_entry_id, amount, principal_paid,
			interest_paid, fees_paid, penalties_paid, paid_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		record.ID,
		record.LoanID,
		record.JournalEntryID,
		decimalToNumeric(record.Amount),
		decimalToNumeric(record.PrincipalPaid),
		decimalToNumeric(record.InterestPaid),
		decimalToNumeric(record.FeesPaid),
		decimalToNumeric(record.PenaltiesPaid),
		timeToPgTimestamptz(record.PaidAt),
		timeToPgTimestamptz(record.CreatedAt),
	)

	return err
}

// GetByJournalEntry retrieves the record created alongside a journal entry.
// Used to rebuild the allocation result when a payment reference replays.
func (r *RepaymentRepository) GetByJournalEntry(ctx context.Context, tx usecase.Transaction, entryID string) (*domain.RepaymentRecord, error) {
	row := txQuerier(tx).QueryRow(ctx, `
		SELECT `+repaymentColumns+`
		FROM repayment_records
		WHERE journal_entry_id = $1`,
		entryID,
	)

	record, err := scanRepayment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEntryNotFound
		}

		return nil, err
	}

	return record, nil
}

// ListByLoan lists a loan's repayment records, newest first.
func (r *RepaymentRepository) ListByLoan(ctx context.Context, loanID string, limit, offset int) ([]*domain.RepaymentRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+repaymentColumns+`
		FROM repayment_records
		WHERE loan_id = $1
		ORDER BY paid_at DESC, id DESC
		LIMIT $2 OFFSET $3`,
		loanID,
		limit,
		offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*domain.RepaymentRecord

	for rows.Next() {
		record, err := scanRepayment(rows)
		if err != nil {
			return nil, err
		}

		records = append(records, record)
	}

	return records, rows.Err()
}

func scanRepayment(row pgx.Row) (*domain.RepaymentRecord, error) {
	var (
		record    domain.RepaymentRecord
		amount    pgtype.Numeric
		principal pgtype.Numeric
		interest  pgtype.Numeric
		fees      pgtype.Numeric
		penalties pgtype.Numeric
		paidAt    pgtype.Timestamptz
		createdAt pgtype.Timestamptz
	)

	err := row.Scan(
		&record.ID,
		&record.LoanID,
		&record.JournalEntryID,
		&amount,
		&principal,
		&interest,
		&fees,
		&penalties,
		&paidAt,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	record.Amount = numericToDecimal(amount)
	record.PrincipalPaid = numericToDecimal(principal)
	record.InterestPaid = numericToDecimal(interest)
	record.FeesPaid = numericToDecimal(fees)
	record.PenaltiesPaid = numericToDecimal(penalties)
	record.PaidAt = paidAt.Time
	record.CreatedAt = createdAt.Time

	return &record, nil
}
