package domain

import "errors"

var (
	// Account errors
	ErrUnknownAccount = errors.New("account is unknown or inactive")
	ErrAccountExists  = errors.New("account code already exists")

	// Mapping errors
	ErrUnmappedEvent = errors.New("no account mapping for event")
	ErrMappingExists = errors.New("event mapping already exists")

	// Journal errors
	ErrInvalidAmount      = errors.New("amount must be positive")
	ErrUnbalancedEntry    = errors.New("journal entry debits do not equal credits")
	ErrInvalidLine        = errors.New("journal line must be either a debit or a credit")
	ErrMissingReference   = errors.New("transaction reference is required")
	ErrEntryNotFound      = errors.New("journal entry not found")
	ErrDuplicateReference = errors.New("journal entry reference already exists")

	// Schedule errors
	ErrInvalidTerm      = errors.New("term must be at least one period")
	ErrInvalidRate      = errors.New("interest rate must not be negative")
	ErrInvalidPrincipal = errors.New("principal must be positive")
	ErrPaidExceedsDue   = errors.New("paid amount cannot exceed total due")

	// Loan errors
	ErrLoanNotFound      = errors.New("loan not found")
	ErrLoanNotActive     = errors.New("loan is not in a repayable status")
	ErrOverpayment       = errors.New("payment exceeds total outstanding")
	ErrInvalidTransition = errors.New("invalid loan status transition")
)
