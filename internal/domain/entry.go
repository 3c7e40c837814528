package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Entry is one side of a posted transfer. Amount is negative on the side
// that was debited. Balances are snapshots of the account around the
// posting, so a loan account carrying principal shows negative values.
type Entry struct {
	ID                     string
	AccountID              string
	TransferID             string
	Amount                 decimal.Decimal
	AccountPreviousBalance decimal.Decimal
	AccountCurrentBalance  decimal.Decimal
	AccountVersion         int64
	CreatedAt              time.Time
}

// Entry sides.
const (
	EntrySideDebit  = "debit"
	EntrySideCredit = "credit"
)

// Side reports whether the entry debited or credited its account.
func (e *Entry) Side() string {
	if e.Amount.IsNegative() {
		return EntrySideDebit
	}
	return EntrySideCredit
}

// Balanced reports whether the entries of one transfer net to zero.
func Balanced(entries []*Entry) bool {
	if len(entries) == 0 {
		return false
	}
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.Amount)
	}
	return total.IsZero()
}
