package domain

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// Validation errors
var (
	ErrInvalidInstructionName = errors.New("invalid standing instruction name")
	ErrInvalidCurrency        = errors.New("invalid currency code")
	ErrAmountTooLarge         = errors.New("amount exceeds maximum allowed")
	ErrAmountTooSmall         = errors.New("amount below minimum allowed")
)

const (
	MaxInstructionNameLength = 50
	MaxTransferAmount        = "1000000000000"
	MinTransferAmount        = "0.01"
)

var (
	maxTransferAmount = decimal.RequireFromString(MaxTransferAmount)
	minTransferAmount = decimal.RequireFromString(MinTransferAmount)
)

// Currencies the portfolio books accounts in (ISO 4217).
var validCurrencies = map[string]bool{
	"USD": true, "EUR": true, "GBP": true, "JPY": true,
	"CHF": true, "CAD": true, "AUD": true, "INR": true,
	"KES": true, "UGX": true, "TZS": true, "RWF": true,
	"NGN": true, "GHS": true, "ZAR": true, "XOF": true,
	"XAF": true, "MWK": true, "ZMW": true, "ETB": true,
	"PHP": true, "IDR": true, "MXN": true, "BRL": true,
}

// ValidateInstructionName checks the display name of a standing instruction.
// Names end up in the transfer description, so control characters are rejected.
func ValidateInstructionName(name string) error {
	name = strings.TrimSpace(name)

	if name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidInstructionName)
	}

	if len([]rune(name)) > MaxInstructionNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidInstructionName, MaxInstructionNameLength)
	}

	if strings.IndexFunc(name, unicode.IsControl) >= 0 {
		return fmt.Errorf("%w: contains control characters", ErrInvalidInstructionName)
	}

	return nil
}

// ValidateCurrency validates currency code
func ValidateCurrency(currency string) error {
	currency = strings.ToUpper(strings.TrimSpace(currency))

	if !validCurrencies[currency] {
		return fmt.Errorf("%w: %s is not a supported currency code", ErrInvalidCurrency, currency)
	}

	return nil
}

// ValidateAmount validates a fixed instruction amount.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}

	if amount.LessThan(minTransferAmount) {
		return fmt.Errorf("%w: minimum amount is %s", ErrAmountTooSmall, MinTransferAmount)
	}

	if amount.GreaterThan(maxTransferAmount) {
		return fmt.Errorf("%w: maximum amount is %s", ErrAmountTooLarge, MaxTransferAmount)
	}

	return nil
}
