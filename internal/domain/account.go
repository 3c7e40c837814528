package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType identifies the portfolio product an account belongs to.
type AccountType string

const (
	AccountTypeLoan    AccountType = "LOAN"
	AccountTypeSavings AccountType = "SAVINGS"
)

// IsValid reports whether t is a known account type.
func (t AccountType) IsValid() bool {
	return t == AccountTypeLoan || t == AccountTypeSavings
}

// Account represents a portfolio account that can hold a balance.
//
// Savings accounts hold a non-negative balance. Loan accounts carry the
// outstanding principal as a negative balance, so a repayment credits the
// account towards zero and an overpayment would make it positive.
type Account struct {
	ID                   string
	Type                 AccountType
	Name                 string
	Currency             string
	Balance              decimal.Decimal
	Version              int64
	AllowNegativeBalance bool
	AllowPositiveBalance bool
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// ValidateDebit checks if account can be debited by amount.
func (a *Account) ValidateDebit(amount decimal.Decimal) error {
	newBalance := a.Balance.Sub(amount)
	if !a.AllowNegativeBalance && newBalance.IsNegative() {
		return ErrNegativeBalanceNotAllowed
	}
	return nil
}

// ValidateCredit checks if account can be credited by amount.
func (a *Account) ValidateCredit(amount decimal.Decimal) error {
	newBalance := a.Balance.Add(amount)
	if !a.AllowPositiveBalance && newBalance.IsPositive() {
		return ErrPositiveBalanceNotAllowed
	}
	return nil
}

// ApplyDebit returns new balance after debit.
func (a *Account) ApplyDebit(amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Sub(amount)
}

// ApplyCredit returns new balance after credit.
func (a *Account) ApplyCredit(amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Add(amount)
}

// AccountRef points at a portfolio account from an instruction.
type AccountRef struct {
	Type AccountType
	ID   string
}
