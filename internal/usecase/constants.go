package usecase

// Account codes used by the engines when building postings. These match the
// bootstrap chart of accounts.
const (
	AccountCash            = "1001"
	AccountBank            = "1002"
	AccountMobileMoney     = "1003"
	AccountLoanReceivable  = "1201"
	AccountMemberSavings   = "2001"
	AccountDividendPayable = "2003"
	AccountShareCapital    = "3001"
	AccountRegistrationFee = "4001"
	AccountInterestIncome  = "4002"
	AccountPenaltyIncome   = "4004"
	AccountProcessingFee   = "4005"
	AccountOperatingExp    = "5001"
	AccountLoanWriteOff    = "5002"
)
