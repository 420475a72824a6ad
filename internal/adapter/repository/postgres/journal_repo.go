package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/jayrakel/sacco-ledger/internal/domain"
	"github.com/jayrakel/sacco-ledger/internal/usecase"
)

// JournalRepository implements usecase.JournalRepository. Entries and their
// lines are append-only; nothing here updates or deletes.
type JournalRepository struct {
	pool *pgxpool.Pool
}

// NewJournalRepository creates a new JournalRepository.
func NewJournalRepository(pool *pgxpool.Pool) *JournalRepository {
	return &JournalRepository{pool: pool}
}

// CreateEntry persists an entry with all its lines. The unique index on
// reference turns a double post into domain.ErrDuplicateReference.
func (r *JournalRepository) CreateEntry(ctx context.Context, tx usecase.Transaction, entry *domain.JournalEntry) error {
	q := txQuerier(tx)

	_, err := q.Exec(ctx, `
		INSERT INTO journal_entries (id, reference, description, transaction_date, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		entry.ID,
		entry.Reference,
		entry.Description,
		timeToPgTimestamptz(entry.TransactionDate),
		timeToPgTimestamptz(entry.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err, "journal_entries_reference_key") {
			return domain.ErrDuplicateReference
		}

		return err
	}

	for _, line := range entry.Lines {
		_, err := q.Exec(ctx, `
			INSERT INTO journal_lines (id, entry_id, account_code, debit, credit)
			VALUES ($1, $2, $3, $4, $5)`,
			line.ID,
			line.EntryID,
			line.AccountCode,
			decimalToNumeric(line.Debit),
			decimalToNumeric(line.Credit),
		)
		if err != nil {
			return err
		}
	}

	return nil
}

// GetByReference retrieves an entry and its lines by transaction reference.
func (r *JournalRepository) GetByReference(ctx context.Context, reference string) (*domain.JournalEntry, error) {
	return getEntryByReference(ctx, r.pool, reference)
}

// GetByReferenceTx is GetByReference inside an open transaction, so the
// posting engine sees uncommitted entries from its own transaction.
func (r *JournalRepository) GetByReferenceTx(ctx context.Context, tx usecase.Transaction, reference string) (*domain.JournalEntry, error) {
	return getEntryByReference(ctx, txQuerier(tx), reference)
}

// ListByAccount lists entries touching an account, newest first.
func (r *JournalRepository) ListByAccount(ctx context.Context, accountCode string, limit, offset int) ([]*domain.JournalEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT e.id, e.reference, e.description, e.transaction_date, e.created_at
		FROM journal_entries e
		JOIN journal_lines l ON l.entry_id = e.id
		WHERE l.account_code = $1
		ORDER BY e.created_at DESC, e.id DESC
		LIMIT $2 OFFSET $3`,
		accountCode,
		limit,
		offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.JournalEntry

	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, entry := range entries {
		lines, err := loadLines(ctx, r.pool, entry.ID)
		if err != nil {
			return nil, err
		}

		entry.Lines = lines
	}

	return entries, nil
}

// SumByAccount returns total debits and credits ever posted to an account.
func (r *JournalRepository) SumByAccount(ctx context.Context, accountCode string) (decimal.Decimal, decimal.Decimal, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(debit), 0), COALESCE(SUM(credit), 0)
		FROM journal_lines
		WHERE account_code = $1`,
		accountCode,
	)

	var debits, credits pgtype.Numeric
	if err := row.Scan(&debits, &credits); err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	return numericToDecimal(debits), numericToDecimal(credits), nil
}

// CheckConsistency returns ledger-wide debit and credit totals.
func (r *JournalRepository) CheckConsistency(ctx context.Context) (decimal.Decimal, decimal.Decimal, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(debit), 0), COALESCE(SUM(credit), 0)
		FROM journal_lines`,
	)

	var debits, credits pgtype.Numeric
	if err := row.Scan(&debits, &credits); err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	return numericToDecimal(debits), numericToDecimal(credits), nil
}

func getEntryByReference(ctx context.Context, q querier, reference string) (*domain.JournalEntry, error) {
	row := q.QueryRow(ctx, `
		SELECT id, reference, description, transaction_date, created_at
		FROM journal_entries
		WHERE reference = $1`,
		reference,
	)

	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEntryNotFound
		}

		return nil, err
	}

	lines, err := loadLines(ctx, q, entry.ID)
	if err != nil {
		return nil, err
	}

	entry.Lines = lines

	return entry, nil
}

func loadLines(ctx context.Context, q querier, entryID string) ([]*domain.JournalLine, error) {
	rows, err := q.Query(ctx, `
		SELECT id, entry_id, account_code, debit, credit
		FROM journal_lines
		WHERE entry_id = $1
		ORDER BY id`,
		entryID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []*domain.JournalLine

	for rows.Next() {
		var (
			line   domain.JournalLine
			debit  pgtype.Numeric
			credit pgtype.Numeric
		)

		err := rows.Scan(&line.ID, &line.EntryID, &line.AccountCode, &debit, &credit)
		if err != nil {
			return nil, err
		}

		line.Debit = numericToDecimal(debit)
		line.Credit = numericToDecimal(credit)
		lines = append(lines, &line)
	}

	return lines, rows.Err()
}

func scanEntry(row pgx.Row) (*domain.JournalEntry, error) {
	var (
		entry           domain.JournalEntry
		transactionDate pgtype.Timestamptz
		createdAt       pgtype.Timestamptz
	)

	err := row.Scan(
		&entry.ID,
		&entry.Reference,
		&entry.Description,
		&transactionDate,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	entry.TransactionDate = transactionDate.Time
	entry.CreatedAt = createdAt.Time

	return &entry, nil
}
