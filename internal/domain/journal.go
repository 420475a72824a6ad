package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// JournalEntry is an immutable, balanced double-entry record. The reference
// is one-to-one with the business transaction that caused the entry and is
// the idempotency key for posting: posting the same reference twice returns
// the original entry instead of double-posting. Reversal is a new entry with
// debit and credit swapped, never a mutation of the original.
type JournalEntry struct {
	ID              string
	Reference       string
	Description     string
	TransactionDate time.Time
	CreatedAt       time.Time
	Lines           []*JournalLine
}

// JournalLine belongs to exactly one entry and references exactly one
// account. Exactly one of Debit or Credit is nonzero.
type JournalLine struct {
	ID          string
	EntryID     string
	AccountCode string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
}

// IsDebit reports whether the line is a debit line.
func (l *JournalLine) IsDebit() bool {
	return l.Debit.IsPositive()
}

// Amount returns the nonzero side of the line.
func (l *JournalLine) Amount() decimal.Decimal {
	if l.IsDebit() {
		return l.Debit
	}

	return l.Credit
}

// Validate checks the one-sided line invariant.
func (l *JournalLine) Validate() error {
	if l.AccountCode == "" {
		return ErrUnknownAccount
	}

	debitSet := l.Debit.IsPositive()
	creditSet := l.Credit.IsPositive()

	if l.Debit.IsNegative() || l.Credit.IsNegative() {
		return ErrInvalidAmount
	}

	if debitSet == creditSet {
		return ErrInvalidLine
	}

	return nil
}

// TotalDebit sums the debit side of the entry.
func (e *JournalEntry) TotalDebit() decimal.Decimal {
	total := decimal.Zero
	for _, l := range e.Lines {
		total = total.Add(l.Debit)
	}

	return total
}

// TotalCredit sums the credit side of the entry.
func (e *JournalEntry) TotalCredit() decimal.Decimal {
	total := decimal.Zero
	for _, l := range e.Lines {
		total = total.Add(l.Credit)
	}

	return total
}

// Validate enforces the entry invariants: a reference, at least two lines,
// every line one-sided, and sum(debit) == sum(credit).
func (e *JournalEntry) Validate() error {
	if e.Reference == "" {
		return ErrMissingReference
	}

	if len(e.Lines) < 2 {
		return ErrUnbalancedEntry
	}

	for _, l := range e.Lines {
		if err := l.Validate(); err != nil {
			return err
		}
	}

	if !e.TotalDebit().Equal(e.TotalCredit()) {
		return ErrUnbalancedEntry
	}

	return nil
}

// ReversalLines returns the entry's lines with debit and credit swapped,
// for posting a reversing entry under a new reference.
func (e *JournalEntry) ReversalLines() []*JournalLine {
	lines := make([]*JournalLine, 0, len(e.Lines))
	for _, l := range e.Lines {
		lines = append(lines, &JournalLine{
			AccountCode: l.AccountCode,
			Debit:       l.Credit,
			Credit:      l.Debit,
		})
	}

	return lines
}
