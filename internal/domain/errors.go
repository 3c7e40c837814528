package domain

import "errors"

var (
	// Account errors
	ErrNegativeBalanceNotAllowed = errors.New("account does not allow negative balance")
	ErrPositiveBalanceNotAllowed = errors.New("account does not allow positive balance")
	ErrAccountNotFound           = errors.New("account not found")
	ErrAccountTypeMismatch       = errors.New("account type does not match instruction")

	// Transfer errors
	ErrSameAccount      = errors.New("cannot transfer to same account")
	ErrInvalidAmount    = errors.New("amount must be positive")
	ErrCurrencyMismatch = errors.New("cannot transfer between different currencies")
	ErrTransferNotFound = errors.New("transfer not found")

	// Standing instruction errors
	ErrStandingInstructionNotFound = errors.New("standing instruction not found")
	ErrDuplicateInstructionName    = errors.New("standing instruction with this name already exists")
	ErrAmountRequired              = errors.New("amount is required for fixed amount instructions")
	ErrInvalidRecurrence           = errors.New("invalid recurrence settings")
	ErrUnsupportedTransfer         = errors.New("unsupported account type combination")
	ErrInstructionNotActive        = errors.New("standing instruction is not active")
	ErrRunAlreadyTaken             = errors.New("standing instructions already ran or are running for this date")

	// Loan errors
	ErrLoanNotFound = errors.New("loan not found")

	// Infrastructure errors
	ErrServiceUnavailable = errors.New("service temporarily unavailable")
)
