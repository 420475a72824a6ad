// Package amortization generates loan repayment schedules. The generator is
// pure: it never touches storage, so the same inputs always produce the same
// schedule and callers persist the result themselves.
package amortization

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jayrakel/sacco-ledger/internal/domain"
)

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// Config carries the calendar tunables for schedule generation. It is passed
// in explicitly at call time so tests can pin values.
type Config struct {
	// PeriodsPerYear is 12 for monthly installments, 52 for weekly.
	PeriodsPerYear int
	// GracePeriods shifts the first due date without adding installments.
	GracePeriods int
}

func (c Config) periodsPerYear() int {
	if c.PeriodsPerYear <= 0 {
		return 12
	}

	return c.PeriodsPerYear
}

// Input describes the loan to amortize.
type Input struct {
	Principal         decimal.Decimal
	AnnualRatePercent decimal.Decimal
	TermPeriods       int
	Method            domain.InterestMethod
	DisbursedAt       time.Time
}

// Generate produces the ordered installment schedule for a loan. The final
// installment absorbs all rounding remainders so that the principal columns
// sum to the principal exactly, by construction.
func Generate(cfg Config, in Input) ([]*domain.Installment, error) {
	if in.TermPeriods <= 0 {
		return nil, domain.ErrInvalidTerm
	}

	if in.AnnualRatePercent.IsNegative() {
		return nil, domain.ErrInvalidRate
	}

	if in.Principal.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidPrincipal
	}

	switch in.Method {
	case domain.MethodFlat:
		return generateFlat(cfg, in), nil
	case domain.MethodReducingBalance:
		return generateReducingBalance(cfg, in), nil
	default:
		return nil, domain.ErrInvalidTerm
	}
}

// TotalInterest sums the interest column of a schedule.
func TotalInterest(installments []*domain.Installment) decimal.Decimal {
	total := decimal.Zero
	for _, inst := range installments {
		total = total.Add(inst.InterestDue)
	}

	return total
}

func generateFlat(cfg Config, in Input) []*domain.Installment {
	term := decimal.NewFromInt(int64(in.TermPeriods))
	rate := in.AnnualRatePercent.Div(hundred)

	totalInterest := domain.RoundMoney(in.Principal.
		Mul(rate).
		Mul(term).
		Div(decimal.NewFromInt(int64(cfg.periodsPerYear()))))

	perPrincipal := domain.RoundMoney(in.Principal.Div(term))
	perInterest := domain.RoundMoney(totalInterest.Div(term))

	installments := make([]*domain.Installment, 0, in.TermPeriods)
	for i := 1; i <= in.TermPeriods; i++ {
		principal := perPrincipal
		interest := perInterest

		if i == in.TermPeriods {
			// Final installment absorbs the rounding remainders.
			periods := decimal.NewFromInt(int64(in.TermPeriods - 1))
			principal = in.Principal.Sub(perPrincipal.Mul(periods))
			interest = totalInterest.Sub(perInterest.Mul(periods))
		}

		installments = append(installments, newInstallment(cfg, in, i, principal, interest))
	}

	return installments
}

func generateReducingBalance(cfg Config, in Input) []*domain.Installment {
	periodic := domain.RoundRate(in.AnnualRatePercent.
		Div(hundred).
		Div(decimal.NewFromInt(int64(cfg.periodsPerYear()))))

	if periodic.IsZero() {
		// A zero rate degenerates to even principal with no interest.
		zero := in
		zero.AnnualRatePercent = decimal.Zero

		return generateFlat(cfg, zero)
	}

	// Level payment: P * r * (1+r)^n / ((1+r)^n - 1)
	pow := one.Add(periodic).Pow(decimal.NewFromInt(int64(in.TermPeriods)))
	payment := domain.RoundMoney(in.Principal.
		Mul(periodic).
		Mul(pow).
		Div(pow.Sub(one)))

	installments := make([]*domain.Installment, 0, in.TermPeriods)
	balance := in.Principal

	for i := 1; i <= in.TermPeriods; i++ {
		interest := domain.RoundMoney(balance.Mul(periodic))
		principal := payment.Sub(interest)

		if i == in.TermPeriods || principal.GreaterThan(balance) {
			// Final installment clears the balance exactly.
			principal = balance
		}

		installments = append(installments, newInstallment(cfg, in, i, principal, interest))

		balance = balance.Sub(principal)
	}

	return installments
}

func newInstallment(cfg Config, in Input, number int, principal, interest decimal.Decimal) *domain.Installment {
	return &domain.Installment{
		Number:       number,
		DueDate:      dueDate(cfg, in.DisbursedAt, number),
		PrincipalDue: principal,
		InterestDue:  interest,
		TotalDue:     principal.Add(interest),
		Paid:         decimal.Zero,
		Status:       domain.InstallmentPending,
	}
}

func dueDate(cfg Config, disbursedAt time.Time, number int) time.Time {
	offset := 0
	if cfg.GracePeriods > 0 {
		offset = cfg.GracePeriods - 1
	}

	periods := number + offset

	if cfg.periodsPerYear() == 12 {
		return disbursedAt.AddDate(0, periods, 0)
	}

	days := 365 / cfg.periodsPerYear()

	return disbursedAt.AddDate(0, 0, periods*days)
}
