package domain

import "time"

// Business event names with a configured account mapping.
const (
	EventSavingsDeposit       = "SAVINGS_DEPOSIT"
	EventSavingsWithdrawal    = "SAVINGS_WITHDRAWAL"
	EventLoanDisbursement     = "LOAN_DISBURSEMENT"
	EventLoanRepaymentPrinc   = "LOAN_REPAYMENT_PRINCIPAL"
	EventLoanRepaymentInt     = "LOAN_REPAYMENT_INTEREST"
	EventRegistrationFee      = "REGISTRATION_FEE"
	EventLoanProcessingFee    = "LOAN_PROCESSING_FEE"
	EventShareCapitalPurchase = "SHARE_CAPITAL_PURCHASE"
	EventDividendPayment      = "DIVIDEND_PAYMENT"
	EventFinePayment          = "FINE_PAYMENT"
)

// EventMapping maps a business event name to the debit/credit account pair
// used when the event is posted with a plain amount. Mappings are seeded at
// bootstrap and read-only at runtime.
type EventMapping struct {
	EventName         string
	DebitAccountCode  string
	CreditAccountCode string
	Description       string
	CreatedAt         time.Time
}
