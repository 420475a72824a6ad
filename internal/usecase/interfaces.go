package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jayrakel/sacco-ledger/internal/domain"
)

// AccountRepository defines data access for chart-of-accounts entries.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByCode(ctx context.Context, code string) (*domain.Account, error)
	GetByCodesForUpdate(ctx context.Context, tx Transaction, codes []string) ([]*domain.Account, error)
	UpdateBalance(ctx context.Context, tx Transaction, code string, balance decimal.Decimal, updatedAt time.Time) error
	SetActive(ctx context.Context, code string, active bool, updatedAt time.Time) error
	List(ctx context.Context, limit, offset int) ([]*domain.Account, error)
}

// MappingRepository defines data access for event-to-account mappings.
type MappingRepository interface {
	Create(ctx context.Context, mapping *domain.EventMapping) error
	GetByEvent(ctx context.Context, eventName string) (*domain.EventMapping, error)
	List(ctx context.Context) ([]*domain.EventMapping, error)
}

// JournalRepository defines data access for journal entries and their lines.
type JournalRepository interface {
	// CreateEntry persists an entry with all its lines. It returns
	// domain.ErrDuplicateReference when the reference is already taken.
	CreateEntry(ctx context.Context, tx Transaction, entry *domain.JournalEntry) error
	GetByReference(ctx context.Context, reference string) (*domain.JournalEntry, error)
	GetByReferenceTx(ctx context.Context, tx Transaction, reference string) (*domain.JournalEntry, error)
	ListByAccount(ctx context.Context, accountCode string, limit, offset int) ([]*domain.JournalEntry, error)
	// SumByAccount returns the total debits and credits ever posted
	// against one account.
	SumByAccount(ctx context.Context, accountCode string) (debits, credits decimal.Decimal, err error)
	// CheckConsistency returns the ledger-wide debit and credit totals.
	CheckConsistency(ctx context.Context) (totalDebits, totalCredits decimal.Decimal, err error)
}

// LoanRepository defines data access for loans.
type LoanRepository interface {
	Create(ctx context.Context, tx Transaction, loan *domain.Loan) error
	GetByID(ctx context.Context, id string) (*domain.Loan, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Loan, error)
	Update(ctx context.Context, tx Transaction, loan *domain.Loan) error
	ListByStatus(ctx context.Context, status domain.LoanStatus, limit, offset int) ([]*domain.Loan, error)
}

// ScheduleRepository defines data access for repayment schedule installments.
type ScheduleRepository interface {
	CreateBatch(ctx context.Context, tx Transaction, installments []*domain.Installment) error
	ListByLoan(ctx context.Context, loanID string) ([]*domain.Installment, error)
	ListByLoanForUpdate(ctx context.Context, tx Transaction, loanID string) ([]*domain.Installment, error)
	Update(ctx context.Context, tx Transaction, installment *domain.Installment) error
	// ListUnpaidDueBefore returns unsettled installments whose due date is
	// strictly before asOf, across all loans, ordered by loan and number.
	ListUnpaidDueBefore(ctx context.Context, asOf time.Time) ([]*domain.Installment, error)
}

// RepaymentRepository defines data access for repayment records.
type RepaymentRepository interface {
	Create(ctx context.Context, tx Transaction, record *domain.RepaymentRecord) error
	GetByJournalEntry(ctx context.Context, tx Transaction, entryID string) (*domain.RepaymentRecord, error)
	ListByLoan(ctx context.Context, loanID string, limit, offset int) ([]*domain.RepaymentRecord, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) error
}

// AuditRepository defines data access for audit logs.
type AuditRepository interface {
	Create(ctx context.Context, log *domain.AuditLog) error
	CreateTx(ctx context.Context, tx Transaction, log *domain.AuditLog) error
	List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// RefGenerator generates unique ids and transaction references.
type RefGenerator interface {
	Generate() string
}

// Clock supplies the current time; injectable for tests.
type Clock interface {
	Now() time.Time
}

// Retrier retries an operation on transient storage errors.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage for the HTTP surface.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}
