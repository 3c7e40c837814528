package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OutcomeStatus is the recorded result of a scheduled transfer attempt.
type OutcomeStatus string

const (
	OutcomeSuccess OutcomeStatus = "success"
	OutcomeFailed  OutcomeStatus = "failed"
)

// TransferOutcome is one append-only history row per execution attempt.
type TransferOutcome struct {
	ID            string
	InstructionID string
	Status        OutcomeStatus
	Amount        decimal.Decimal
	ExecutedAt    time.Time
	ErrorLog      string
}

// Error log prefixes per failure category.
const (
	errorLogValidation          = "Validation exception while transferring funds "
	errorLogInsufficientBalance = "InsufficientAccountBalance Exception "
	errorLogServiceUnavailable  = "Platform exception while transferring funds "
	errorLogUnhandled           = "Exception while transferring funds "
)

// OutcomeFromResult converts an executor result into a history row status and
// error log. Successful results have an empty log.
func OutcomeFromResult(r TransferResult) (OutcomeStatus, string) {
	switch r.Kind {
	case TransferSucceeded:
		return OutcomeSuccess, ""
	case TransferValidationFailed:
		return OutcomeFailed, errorLogValidation + r.Message
	case TransferInsufficientBalance:
		return OutcomeFailed, errorLogInsufficientBalance
	case TransferServiceUnavailable:
		return OutcomeFailed, errorLogServiceUnavailable + r.Message
	default:
		return OutcomeFailed, errorLogUnhandled + r.Message
	}
}
