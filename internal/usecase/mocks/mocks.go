package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jayrakel/sacco-ledger/internal/domain"
	"github.com/jayrakel/sacco-ledger/internal/usecase"
)

// MockAccountRepository is a mock implementation of AccountRepository.
type MockAccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account

	CreateFunc              func(ctx context.Context, account *domain.Account) error
	GetByCodeFunc           func(ctx context.Context, code string) (*domain.Account, error)
	GetByCodesForUpdateFunc func(ctx context.Context, tx usecase.Transaction, codes []string) ([]*domain.Account, error)
	UpdateBalanceFunc       func(ctx context.Context, tx usecase.Transaction, code string, balance decimal.Decimal, updatedAt time.Time) error
	SetActiveFunc           func(ctx context.Context, code string, active bool, updatedAt time.Time) error
	ListFunc                func(ctx context.Context, limit, offset int) ([]*domain.Account, error)
}

func NewMockAccountRepository() *MockAccountRepository {
	return &MockAccountRepository{
		accounts: make(map[string]*domain.Account),
	}
}

func (m *MockAccountRepository) Create(ctx context.Context, account *domain.Account) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, account)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[account.Code]; ok {
		return domain.ErrAccountExists
	}
	m.accounts[account.Code] = account
	return nil
}

func (m *MockAccountRepository) GetByCode(ctx context.Context, code string) (*domain.Account, error) {
	if m.GetByCodeFunc != nil {
		return m.GetByCodeFunc(ctx, code)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if acc, ok := m.accounts[code]; ok {
		return acc, nil
	}
	return nil, domain.ErrUnknownAccount
}

func (m *MockAccountRepository) GetByCodesForUpdate(ctx context.Context, tx usecase.Transaction, codes []string) ([]*domain.Account, error) {
	if m.GetByCodesForUpdateFunc != nil {
		return m.GetByCodesForUpdateFunc(ctx, tx, codes)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var accounts []*domain.Account
	for _, code := range codes {
		if acc, ok := m.accounts[code]; ok {
			accounts = append(accounts, acc)
		}
	}
	return accounts, nil
}

func (m *MockAccountRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, code string, balance decimal.Decimal, updatedAt time.Time) error {
	if m.UpdateBalanceFunc != nil {
		return m.UpdateBalanceFunc(ctx, tx, code, balance, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if acc, ok := m.accounts[code]; ok {
		acc.Balance = balance
		acc.UpdatedAt = updatedAt
	}
	return nil
}

func (m *MockAccountRepository) SetActive(ctx context.Context, code string, active bool, updatedAt time.Time) error {
	if m.SetActiveFunc != nil {
		return m.SetActiveFunc(ctx, code, active, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if acc, ok := m.accounts[code]; ok {
		acc.Active = active
		acc.UpdatedAt = updatedAt
	}
	return nil
}

func (m *MockAccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var accounts []*domain.Account
	for _, acc := range m.accounts {
		accounts = append(accounts, acc)
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Code < accounts[j].Code })
	return accounts, nil
}

// MockMappingRepository is a mock implementation of MappingRepository.
type MockMappingRepository struct {
	mu       sync.RWMutex
	mappings map[string]*domain.EventMapping

	CreateFunc     func(ctx context.Context, mapping *domain.EventMapping) error
	GetByEventFunc func(ctx context.Context, eventName string) (*domain.EventMapping, error)
	ListFunc       func(ctx context.Context) ([]*domain.EventMapping, error)
}

func NewMockMappingRepository() *MockMappingRepository {
	return &MockMappingRepository{
		mappings: make(map[string]*domain.EventMapping),
	}
}

func (m *MockMappingRepository) Create(ctx context.Context, mapping *domain.EventMapping) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, mapping)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.mappings[mapping.EventName]; ok {
		return domain.ErrMappingExists
	}
	m.mappings[mapping.EventName] = mapping
	return nil
}

func (m *MockMappingRepository) GetByEvent(ctx context.Context, eventName string) (*domain.EventMapping, error) {
	if m.GetByEventFunc != nil {
		return m.GetByEventFunc(ctx, eventName)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if mapping, ok := m.mappings[eventName]; ok {
		return mapping, nil
	}
	return nil, domain.ErrUnmappedEvent
}

func (m *MockMappingRepository) List(ctx context.Context) ([]*domain.EventMapping, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var mappings []*domain.EventMapping
	for _, mapping := range m.mappings {
		mappings = append(mappings, mapping)
	}
	return mappings, nil
}

// MockJournalRepository is a mock implementation of JournalRepository. The
// in-memory default enforces the unique reference constraint the way the
// database does.
type MockJournalRepository struct {
	mu      sync.RWMutex
	entries map[string]*domain.JournalEntry

	CreateEntryFunc      func(ctx context.Context, tx usecase.Transaction, entry *domain.JournalEntry) error
	GetByReferenceFunc   func(ctx context.Context, reference string) (*domain.JournalEntry, error)
	GetByReferenceTxFunc func(ctx context.Context, tx usecase.Transaction, reference string) (*domain.JournalEntry, error)
	ListByAccountFunc    func(ctx context.Context, accountCode string, limit, offset int) ([]*domain.JournalEntry, error)
	SumByAccountFunc     func(ctx context.Context, accountCode string) (decimal.Decimal, decimal.Decimal, error)
	CheckConsistencyFunc func(ctx context.Context) (decimal.Decimal, decimal.Decimal, error)
}

func NewMockJournalRepository() *MockJournalRepository {
	return &MockJournalRepository{
		entries: make(map[string]*domain.JournalEntry),
	}
}

func (m *MockJournalRepository) CreateEntry(ctx context.Context, tx usecase.Transaction, entry *domain.JournalEntry) error {
	if m.CreateEntryFunc != nil {
		return m.CreateEntryFunc(ctx, tx, entry)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[entry.Reference]; ok {
		return domain.ErrDuplicateReference
	}
	m.entries[entry.Reference] = entry
	return nil
}

func (m *MockJournalRepository) GetByReference(ctx context.Context, reference string) (*domain.JournalEntry, error) {
	if m.GetByReferenceFunc != nil {
		return m.GetByReferenceFunc(ctx, reference)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if entry, ok := m.entries[reference]; ok {
		return entry, nil
	}
	return nil, domain.ErrEntryNotFound
}

func (m *MockJournalRepository) GetByReferenceTx(ctx context.Context, tx usecase.Transaction, reference string) (*domain.JournalEntry, error) {
	if m.GetByReferenceTxFunc != nil {
		return m.GetByReferenceTxFunc(ctx, tx, reference)
	}
	return m.GetByReference(ctx, reference)
}

func (m *MockJournalRepository) ListByAccount(ctx context.Context, accountCode string, limit, offset int) ([]*domain.JournalEntry, error) {
	if m.ListByAccountFunc != nil {
		return m.ListByAccountFunc(ctx, accountCode, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var entries []*domain.JournalEntry
	for _, entry := range m.entries {
		for _, line := range entry.Lines {
			if line.AccountCode == accountCode {
				entries = append(entries, entry)
				break
			}
		}
	}
	return entries, nil
}

func (m *MockJournalRepository) SumByAccount(ctx context.Context, accountCode string) (decimal.Decimal, decimal.Decimal, error) {
	if m.SumByAccountFunc != nil {
		return m.SumByAccountFunc(ctx, accountCode)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	debits, credits := decimal.Zero, decimal.Zero
	for _, entry := range m.entries {
		for _, line := range entry.Lines {
			if line.AccountCode == accountCode {
				debits = debits.Add(line.Debit)
				credits = credits.Add(line.Credit)
			}
		}
	}
	return debits, credits, nil
}

func (m *MockJournalRepository) CheckConsistency(ctx context.Context) (decimal.Decimal, decimal.Decimal, error) {
	if m.CheckConsistencyFunc != nil {
		return m.CheckConsistencyFunc(ctx)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	debits, credits := decimal.Zero, decimal.Zero
	for _, entry := range m.entries {
		debits = debits.Add(entry.TotalDebit())
		credits = credits.Add(entry.TotalCredit())
	}
	return debits, credits, nil
}

// MockLoanRepository is a mock implementation of LoanRepository.
type MockLoanRepository struct {
	mu    sync.RWMutex
	loans map[string]*domain.Loan

	CreateFunc           func(ctx context.Context, tx usecase.Transaction, loan *domain.Loan) error
	GetByIDFunc          func(ctx context.Context, id string) (*domain.Loan, error)
	GetByIDForUpdateFunc func(ctx context.Context, tx usecase.Transaction, id string) (*domain.Loan, error)
	UpdateFunc           func(ctx context.Context, tx usecase.Transaction, loan *domain.Loan) error
	ListByStatusFunc     func(ctx context.Context, status domain.LoanStatus, limit, offset int) ([]*domain.Loan, error)
}

func NewMockLoanRepository() *MockLoanRepository {
	return &MockLoanRepository{
		loans: make(map[string]*domain.Loan),
	}
}

func (m *MockLoanRepository) Create(ctx context.Context, tx usecase.Transaction, loan *domain.Loan) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, loan)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loans[loan.ID] = loan
	return nil
}

func (m *MockLoanRepository) GetByID(ctx context.Context, id string) (*domain.Loan, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if loan, ok := m.loans[id]; ok {
		return loan, nil
	}
	return nil, domain.ErrLoanNotFound
}

func (m *MockLoanRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Loan, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, tx, id)
	}
	return m.GetByID(ctx, id)
}

func (m *MockLoanRepository) Update(ctx context.Context, tx usecase.Transaction, loan *domain.Loan) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, tx, loan)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loans[loan.ID] = loan
	return nil
}

func (m *MockLoanRepository) ListByStatus(ctx context.Context, status domain.LoanStatus, limit, offset int) ([]*domain.Loan, error) {
	if m.ListByStatusFunc != nil {
		return m.ListByStatusFunc(ctx, status, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var loans []*domain.Loan
	for _, loan := range m.loans {
		if loan.Status == status {
			loans = append(loans, loan)
		}
	}
	return loans, nil
}

// MockScheduleRepository is a mock implementation of ScheduleRepository.
type MockScheduleRepository struct {
	mu           sync.RWMutex
	installments map[string][]*domain.Installment

	CreateBatchFunc         func(ctx context.Context, tx usecase.Transaction, installments []*domain.Installment) error
	ListByLoanFunc          func(ctx context.Context, loanID string) ([]*domain.Installment, error)
	ListByLoanForUpdateFunc func(ctx context.Context, tx usecase.Transaction, loanID string) ([]*domain.Installment, error)
	UpdateFunc              func(ctx context.Context, tx usecase.Transaction, installment *domain.Installment) error
	ListUnpaidDueBeforeFunc func(ctx context.Context, asOf time.Time) ([]*domain.Installment, error)
}

func NewMockScheduleRepository() *MockScheduleRepository {
	return &MockScheduleRepository{
		installments: make(map[string][]*domain.Installment),
	}
}

func (m *MockScheduleRepository) CreateBatch(ctx context.Context, tx usecase.Transaction, installments []*domain.Installment) error {
	if m.CreateBatchFunc != nil {
		return m.CreateBatchFunc(ctx, tx, installments)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, inst := range installments {
		m.installments[inst.LoanID] = append(m.installments[inst.LoanID], inst)
	}
	return nil
}

func (m *MockScheduleRepository) ListByLoan(ctx context.Context, loanID string) ([]*domain.Installment, error) {
	if m.ListByLoanFunc != nil {
		return m.ListByLoanFunc(ctx, loanID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	installments := append([]*domain.Installment(nil), m.installments[loanID]...)
	sort.Slice(installments, func(i, j int) bool { return installments[i].Number < installments[j].Number })
	return installments, nil
}

func (m *MockScheduleRepository) ListByLoanForUpdate(ctx context.Context, tx usecase.Transaction, loanID string) ([]*domain.Installment, error) {
	if m.ListByLoanForUpdateFunc != nil {
		return m.ListByLoanForUpdateFunc(ctx, tx, loanID)
	}
	return m.ListByLoan(ctx, loanID)
}

func (m *MockScheduleRepository) Update(ctx context.Context, tx usecase.Transaction, installment *domain.Installment) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, tx, installment)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, inst := range m.installments[installment.LoanID] {
		if inst.ID == installment.ID {
			m.installments[installment.LoanID][i] = installment
		}
	}
	return nil
}

func (m *MockScheduleRepository) ListUnpaidDueBefore(ctx context.Context, asOf time.Time) ([]*domain.Installment, error) {
	if m.ListUnpaidDueBeforeFunc != nil {
		return m.ListUnpaidDueBeforeFunc(ctx, asOf)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Installment
	for _, installments := range m.installments {
		for _, inst := range installments {
			if inst.PastDue(asOf) {
				result = append(result, inst)
			}
		}
	}
	return result, nil
}

// MockRepaymentRepository is a mock implementation of RepaymentRepository.
type MockRepaymentRepository struct {
	mu      sync.RWMutex
	records map[string]*domain.RepaymentRecord

	CreateFunc            func(ctx context.Context, tx usecase.Transaction, record *domain.RepaymentRecord) error
	GetByJournalEntryFunc func(ctx context.Context, tx usecase.Transaction, entryID string) (*domain.RepaymentRecord, error)
	ListByLoanFunc        func(ctx context.Context, loanID string, limit, offset int) ([]*domain.RepaymentRecord, error)
}

func NewMockRepaymentRepository() *MockRepaymentRepository {
	return &MockRepaymentRepository{
		records: make(map[string]*domain.RepaymentRecord),
	}
}

func (m *MockRepaymentRepository) Create(ctx context.Context, tx usecase.Transaction, record *domain.RepaymentRecord) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, record)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[record.ID] = record
	return nil
}

func (m *MockRepaymentRepository) GetByJournalEntry(ctx context.Context, tx usecase.Transaction, entryID string) (*domain.RepaymentRecord, error) {
	if m.GetByJournalEntryFunc != nil {
		return m.GetByJournalEntryFunc(ctx, tx, entryID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, record := range m.records {
		if record.JournalEntryID == entryID {
			return record, nil
		}
	}
	return nil, domain.ErrEntryNotFound
}

func (m *MockRepaymentRepository) ListByLoan(ctx context.Context, loanID string, limit, offset int) ([]*domain.RepaymentRecord, error) {
	if m.ListByLoanFunc != nil {
		return m.ListByLoanFunc(ctx, loanID, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var records []*domain.RepaymentRecord
	for _, record := range m.records {
		if record.LoanID == loanID {
			records = append(records, record)
		}
	}
	return records, nil
}

// MockOutboxRepository is a mock implementation of OutboxRepository.
type MockOutboxRepository struct {
	mu     sync.RWMutex
	events []*domain.OutboxEvent

	CreateFunc          func(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error
	GetUnpublishedFunc  func(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublishedFunc   func(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublishedFunc func(ctx context.Context, before time.Time) error
}

func NewMockOutboxRepository() *MockOutboxRepository {
	return &MockOutboxRepository{}
}

func (m *MockOutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, event)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

// Events returns everything appended so far.
func (m *MockOutboxRepository) Events() []*domain.OutboxEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*domain.OutboxEvent(nil), m.events...)
}

func (m *MockOutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	if m.GetUnpublishedFunc != nil {
		return m.GetUnpublishedFunc(ctx, limit)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var events []*domain.OutboxEvent
	for _, event := range m.events {
		if !event.Published {
			events = append(events, event)
		}
		if len(events) == limit {
			break
		}
	}
	return events, nil
}

func (m *MockOutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	if m.MarkPublishedFunc != nil {
		return m.MarkPublishedFunc(ctx, id, publishedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, event := range m.events {
		if event.ID == id {
			event.Published = true
			event.PublishedAt = &publishedAt
		}
	}
	return nil
}

func (m *MockOutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	if m.DeletePublishedFunc != nil {
		return m.DeletePublishedFunc(ctx, before)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var kept []*domain.OutboxEvent
	for _, event := range m.events {
		if !event.Published || event.PublishedAt == nil || !event.PublishedAt.Before(before) {
			kept = append(kept, event)
		}
	}
	m.events = kept
	return nil
}

// MockAuditRepository is a mock implementation of AuditRepository.
type MockAuditRepository struct {
	mu   sync.RWMutex
	logs []*domain.AuditLog

	CreateFunc   func(ctx context.Context, log *domain.AuditLog) error
	CreateTxFunc func(ctx context.Context, tx usecase.Transaction, log *domain.AuditLog) error
	ListFunc     func(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error)
}

func NewMockAuditRepository() *MockAuditRepository {
	return &MockAuditRepository{}
}

func (m *MockAuditRepository) Create(ctx context.Context, log *domain.AuditLog) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, log)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, log)
	return nil
}

func (m *MockAuditRepository) CreateTx(ctx context.Context, tx usecase.Transaction, log *domain.AuditLog) error {
	if m.CreateTxFunc != nil {
		return m.CreateTxFunc(ctx, tx, log)
	}
	return m.Create(ctx, log)
}

func (m *MockAuditRepository) List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*domain.AuditLog(nil), m.logs...), nil
}

// MockTransactionManager is a mock implementation of TransactionManager.
type MockTransactionManager struct {
	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	return &MockTransaction{}, nil
}

// MockTransaction is a mock implementation of Transaction.
type MockTransaction struct {
	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error
}

func (m *MockTransaction) Commit(ctx context.Context) error {
	if m.CommitFunc != nil {
		return m.CommitFunc(ctx)
	}
	return nil
}

func (m *MockTransaction) Rollback(ctx context.Context) error {
	if m.RollbackFunc != nil {
		return m.RollbackFunc(ctx)
	}
	return nil
}

// MockRefGenerator is a mock implementation of RefGenerator.
type MockRefGenerator struct {
	GenerateFunc func() string
	counter      int
	mu           sync.Mutex
}

func NewMockRefGenerator() *MockRefGenerator {
	return &MockRefGenerator{}
}

func (m *MockRefGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return fmt.Sprintf("mock-id-%04d", m.counter)
}

// MockClock is a mock implementation of Clock with a settable time.
type MockClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewMockClock(now time.Time) *MockClock {
	return &MockClock{now: now}
}

func (m *MockClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance moves the clock forward.
func (m *MockClock) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}

// Set pins the clock to t.
func (m *MockClock) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = t
}

// MockRetrier is a mock implementation of Retrier that runs the operation
// exactly once.
type MockRetrier struct {
	RetryFunc func(ctx context.Context, operation func() error) error
}

func NewMockRetrier() *MockRetrier {
	return &MockRetrier{}
}

func (m *MockRetrier) Retry(ctx context.Context, operation func() error) error {
	if m.RetryFunc != nil {
		return m.RetryFunc(ctx, operation)
	}
	return operation()
}
