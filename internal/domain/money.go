package domain

import "github.com/shopspring/decimal"

// Currency carries the rounding rules of a monetary amount.
type Currency struct {
	Code          string
	DecimalPlaces int32
	// InMultiplesOf rounds amounts to a multiple of this many units
	// (e.g. 100 for a currency traded in hundreds). Zero disables it.
	InMultiplesOf int64
}

// Round applies banker's rounding to the currency precision and then to the
// configured multiple.
func (c Currency) Round(amount decimal.Decimal) decimal.Decimal {
	rounded := amount.RoundBank(c.DecimalPlaces)
	if c.InMultiplesOf > 0 {
		multiple := decimal.NewFromInt(c.InMultiplesOf)
		rounded = rounded.Div(multiple).Round(0).Mul(multiple)
	}
	return rounded
}

// Money is an amount that stays rounded to its currency.
type Money struct {
	currency Currency
	amount   decimal.Decimal
}

// ZeroMoney returns zero in currency c.
func ZeroMoney(c Currency) Money {
	return Money{currency: c, amount: c.Round(decimal.Zero)}
}

// MoneyOf returns amount rounded to currency c.
func MoneyOf(c Currency, amount decimal.Decimal) Money {
	return Money{currency: c, amount: c.Round(amount)}
}

// Plus adds amount and re-rounds the sum.
func (m Money) Plus(amount decimal.Decimal) Money {
	return MoneyOf(m.currency, m.amount.Add(amount))
}

// Amount returns the rounded amount.
func (m Money) Amount() decimal.Decimal {
	return m.amount
}

// Currency returns the money's currency.
func (m Money) Currency() Currency {
	return m.currency
}
