package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/jayrakel/sacco-ledger/internal/domain"
	"github.com/jayrakel/sacco-ledger/internal/usecase"
)

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

const accountColumns = `code, name, type, balance, active, created_at, updated_at`

// Create creates a new account.
func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO accounts (code, name, type, balance, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		account.Code,
		account.Name,
		string(account.Type),
		decimalToNumeric(account.Balance),
		account.Active,
		timeToPgTimestamptz(account.CreatedAt),
		timeToPgTimestamptz(account.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err, "accounts_pkey") {
			return domain.ErrAccountExists
		}

		return err
	}

	return nil
}

// GetByCode retrieves an account by code.
func (r *AccountRepository) GetByCode(ctx context.Context, code string) (*domain.Account, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE code = $1`,
		code,
	)

	return scanAccount(row)
}

// GetByCodesForUpdate locks accounts with SELECT ... FOR UPDATE. Callers pass
// codes sorted so concurrent postings lock in the same order.
func (r *AccountRepository) GetByCodesForUpdate(ctx context.Context, tx usecase.Transaction, codes []string) ([]*domain.Account, error) {
	rows, err := txQuerier(tx).Query(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE code = ANY($1)
		ORDER BY code
		FOR UPDATE`,
		codes,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []*domain.Account

	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}

		accounts = append(accounts, account)
	}

	return accounts, rows.Err()
}

// UpdateBalance updates an account's running balance.
func (r *AccountRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, code string, balance decimal.Decimal, updatedAt time.Time) error {
	_, err := txQuerier(tx).Exec(ctx, `
		UPDATE accounts
		SET balance = $2, updated_at = $3
		WHERE code = $1`,
		code,
		decimalToNumeric(balance),
		timeToPgTimestamptz(updatedAt),
	)

	return err
}

// SetActive flips an account's active flag.
func (r *AccountRepository) SetActive(ctx context.Context, code string, active bool, updatedAt time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE accounts
		SET active = $2, updated_at = $3
		WHERE code = $1`,
		code,
		active,
		timeToPgTimestamptz(updatedAt),
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrUnknownAccount
	}

	return nil
}

// List lists accounts ordered by code.
func (r *AccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		ORDER BY code
		LIMIT $1 OFFSET $2`,
		limit,
		offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []*domain.Account

	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}

		accounts = append(accounts, account)
	}

	return accounts, rows.Err()
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		account   domain.Account
		typ       string
		balance   pgtype.Numeric
		createdAt pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
	)

	err := row.Scan(
		&account.Code,
		&account.Name,
		&typ,
		&balance,
		&account.Active,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUnknownAccount
		}

		return nil, err
	}

	account.Type = domain.AccountType(typ)
	account.Balance = numericToDecimal(balance)
	account.CreatedAt = createdAt.Time
	account.UpdatedAt = updatedAt.Time

	return &account, nil
}
