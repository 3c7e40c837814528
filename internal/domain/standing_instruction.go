package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// InstructionStatus is the lifecycle state of a standing instruction.
type InstructionStatus string

const (
	InstructionStatusActive  InstructionStatus = "ACTIVE"
	InstructionStatusDeleted InstructionStatus = "DELETED"
)

// RecurrenceType decides what drives a standing instruction.
type RecurrenceType string

const (
	// RecurrencePeriodic runs on a fixed calendar cadence.
	RecurrencePeriodic RecurrenceType = "PERIODIC"
	// RecurrenceDues runs on the due date of the target loan.
	RecurrenceDues RecurrenceType = "DUES"
)

// InstructionType decides how the transfer amount is computed.
type InstructionType string

const (
	InstructionFixedAmount InstructionType = "FIXED_AMOUNT"
	InstructionDuesAmount  InstructionType = "DUES_AMOUNT"
)

// TransferType classifies the money movement for the receiving product.
type TransferType string

const (
	TransferTypeAccountTransfer TransferType = "ACCOUNT_TRANSFER"
	TransferTypeLoanRepayment   TransferType = "LOAN_REPAYMENT"
	TransferTypeChargePayment   TransferType = "CHARGE_PAYMENT"
)

// StandingInstruction is a recurring transfer order between two accounts.
type StandingInstruction struct {
	ID                  string
	Name                string
	Status              InstructionStatus
	TransferType        TransferType
	InstructionType     InstructionType
	RecurrenceType      RecurrenceType
	RecurrenceFrequency PeriodFrequency
	RecurrenceInterval  int
	RecurrenceOnDay     int
	RecurrenceOnMonth   int
	ValidFrom           time.Time
	LastRunDate         *time.Time
	From                AccountRef
	To                  AccountRef
	Amount              *decimal.Decimal
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// IsActive reports whether the instruction takes part in scheduler runs.
func (si *StandingInstruction) IsActive() bool {
	return si.Status == InstructionStatusActive
}

// Validate checks the instruction before it is stored.
func (si *StandingInstruction) Validate() error {
	if err := ValidateInstructionName(si.Name); err != nil {
		return err
	}

	if !si.From.Type.IsValid() || !si.To.Type.IsValid() {
		return ErrUnsupportedTransfer
	}
	if si.From.Type == AccountTypeLoan && si.To.Type == AccountTypeLoan {
		return ErrUnsupportedTransfer
	}
	if si.From.ID == si.To.ID {
		return ErrSameAccount
	}

	switch si.InstructionType {
	case InstructionFixedAmount:
		if si.Amount == nil {
			return ErrAmountRequired
		}
		if err := ValidateAmount(*si.Amount); err != nil {
			return err
		}
	case InstructionDuesAmount:
		if si.To.Type != AccountTypeLoan {
			return fmt.Errorf("%w: dues amount requires a loan destination", ErrUnsupportedTransfer)
		}
	default:
		return fmt.Errorf("%w: unknown instruction type %q", ErrInvalidRecurrence, si.InstructionType)
	}

	switch si.RecurrenceType {
	case RecurrenceDues:
		if si.To.Type != AccountTypeLoan {
			return fmt.Errorf("%w: dues recurrence requires a loan destination", ErrInvalidRecurrence)
		}
		return nil
	case RecurrencePeriodic:
	default:
		return fmt.Errorf("%w: unknown recurrence type %q", ErrInvalidRecurrence, si.RecurrenceType)
	}

	if !si.RecurrenceFrequency.IsValid() {
		return fmt.Errorf("%w: unknown frequency %q", ErrInvalidRecurrence, si.RecurrenceFrequency)
	}
	if si.RecurrenceInterval <= 0 {
		return fmt.Errorf("%w: interval must be positive", ErrInvalidRecurrence)
	}
	if si.RecurrenceFrequency == FrequencyMonthly || si.RecurrenceFrequency == FrequencyYearly {
		if si.RecurrenceOnDay < 1 || si.RecurrenceOnDay > 31 {
			return fmt.Errorf("%w: day of month must be between 1 and 31", ErrInvalidRecurrence)
		}
	}
	if si.RecurrenceFrequency == FrequencyYearly {
		if si.RecurrenceOnMonth < 1 || si.RecurrenceOnMonth > 12 {
			return fmt.Errorf("%w: month must be between 1 and 12", ErrInvalidRecurrence)
		}
		// Checked against a leap year so 29 February stays valid.
		if si.RecurrenceOnDay > daysInMonth(Date(2024, time.Month(si.RecurrenceOnMonth), 1)) {
			return fmt.Errorf("%w: day %d does not exist in month %d", ErrInvalidRecurrence, si.RecurrenceOnDay, si.RecurrenceOnMonth)
		}
	}

	return nil
}

// AnchorDate returns the first date of the periodic cadence.
//
// Only MONTHLY and YEARLY instructions are moved onto their configured day
// (and month); every other frequency starts on ValidFrom as is. When the
// configured day falls before ValidFrom, or does not exist in that month, the
// anchor rolls forward to the next month (year) that has it, so the cadence
// never settles on a clamped day.
func (si *StandingInstruction) AnchorDate() time.Time {
	validFrom := DateOf(si.ValidFrom)

	switch si.RecurrenceFrequency {
	case FrequencyMonthly:
		y, m, _ := validFrom.Date()
		for start := Date(y, m, 1); ; start = start.AddDate(0, 1, 0) {
			if si.RecurrenceOnDay > daysInMonth(start) {
				continue
			}
			if anchor := withDayOfMonth(start, si.RecurrenceOnDay); !anchor.Before(validFrom) {
				return anchor
			}
		}
	case FrequencyYearly:
		month := time.Month(si.RecurrenceOnMonth)
		for year := validFrom.Year(); ; year++ {
			start := Date(year, month, 1)
			if si.RecurrenceOnDay > daysInMonth(start) {
				continue
			}
			if anchor := withDayOfMonth(start, si.RecurrenceOnDay); !anchor.Before(validFrom) {
				return anchor
			}
		}
	}

	return validFrom
}

// TransferDescription is the narration carried by scheduled transfers.
func (si *StandingInstruction) TransferDescription() string {
	return si.Name + " Standing instruction transfer"
}

// LoanDues is the amount currently due on a loan and the date it falls due.
type LoanDues struct {
	TotalDueAmount decimal.Decimal
	DueDate        *time.Time
}
