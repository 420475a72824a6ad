package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType classifies a ledger account. The type determines the account's
// normal balance: debits increase ASSET and EXPENSE accounts, credits
// increase LIABILITY, EQUITY and INCOME accounts.
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeIncome    AccountType = "INCOME"
	AccountTypeExpense   AccountType = "EXPENSE"
)

// Valid reports whether t is a known account type.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeIncome, AccountTypeExpense:
		return true
	}

	return false
}

// DebitIncreases reports whether a debit increases the balance of an account
// of this type.
func (t AccountType) DebitIncreases() bool {
	return t == AccountTypeAsset || t == AccountTypeExpense
}

// Account is a ledger account in the chart of accounts. It is keyed by its
// business code, not a surrogate id. The running balance is mutated only by
// the posting engine; accounts are deactivated, never deleted.
type Account struct {
	Code      string
	Name      string
	Type      AccountType
	Balance   decimal.Decimal
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ApplyDebit returns the balance after a debit of amount, following the
// normal-balance convention.
func (a *Account) ApplyDebit(amount decimal.Decimal) decimal.Decimal {
	if a.Type.DebitIncreases() {
		return a.Balance.Add(amount)
	}

	return a.Balance.Sub(amount)
}

// ApplyCredit returns the balance after a credit of amount.
func (a *Account) ApplyCredit(amount decimal.Decimal) decimal.Decimal {
	if a.Type.DebitIncreases() {
		return a.Balance.Sub(amount)
	}

	return a.Balance.Add(amount)
}
