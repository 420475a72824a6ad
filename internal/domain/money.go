package domain

import "github.com/shopspring/decimal"

// MoneyScale is the number of fractional digits kept on every monetary amount.
const MoneyScale = 2

// RateScale is the precision used for intermediate periodic-rate arithmetic
// before the final money rounding.
const RateScale = 8

// RoundMoney rounds an amount to the ledger's monetary scale, half away
// from zero.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyScale)
}

// RoundRate rounds an interest rate for intermediate calculations.
func RoundRate(d decimal.Decimal) decimal.Decimal {
	return d.Round(RateScale)
}
