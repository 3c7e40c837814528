package dto

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/loanledger/internal/domain"
	"github.com/iho/loanledger/internal/usecase"
)

// DateLayout is the wire format of business dates.
const DateLayout = time.DateOnly

// OpenAccountRequest represents a request to open an account.
type OpenAccountRequest struct {
	ID       string `json:"id,omitempty"`
	Type     string `json:"type"`
	Name     string `json:"name"`
	Currency string `json:"currency"`
}

// ToUseCaseInput converts to use case input.
func (r *OpenAccountRequest) ToUseCaseInput() usecase.OpenAccountInput {
	return usecase.OpenAccountInput{
		ID:       r.ID,
		Type:     domain.AccountType(r.Type),
		Name:     r.Name,
		Currency: r.Currency,
	}
}

// AccountRefRequest points at an account in a request.
type AccountRefRequest struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

func (r AccountRefRequest) toDomain() domain.AccountRef {
	return domain.AccountRef{Type: domain.AccountType(r.Type), ID: r.ID}
}

// CreateStandingInstructionRequest represents a request to create a standing
// instruction. Amount is a decimal string; ValidFrom is YYYY-MM-DD.
type CreateStandingInstructionRequest struct {
	Name                string            `json:"name"`
	TransferType        string            `json:"transfer_type,omitempty"`
	InstructionType     string            `json:"instruction_type"`
	RecurrenceType      string            `json:"recurrence_type"`
	RecurrenceFrequency string            `json:"recurrence_frequency,omitempty"`
	RecurrenceInterval  int               `json:"recurrence_interval,omitempty"`
	RecurrenceOnDay     int               `json:"recurrence_on_day,omitempty"`
	RecurrenceOnMonth   int               `json:"recurrence_on_month,omitempty"`
	ValidFrom           string            `json:"valid_from"`
	From                AccountRefRequest `json:"from"`
	To                  AccountRefRequest `json:"to"`
	Amount              string            `json:"amount,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateStandingInstructionRequest) ToUseCaseInput() (usecase.CreateStandingInstructionInput, error) {
	validFrom, err := time.Parse(DateLayout, r.ValidFrom)
	if err != nil {
		return usecase.CreateStandingInstructionInput{}, fmt.Errorf("invalid valid_from: %w", err)
	}

	var amount *decimal.Decimal
	if r.Amount != "" {
		d, err := decimal.NewFromString(r.Amount)
		if err != nil {
			return usecase.CreateStandingInstructionInput{}, fmt.Errorf("invalid amount: %w", err)
		}
		amount = &d
	}

	return usecase.CreateStandingInstructionInput{
		Name:                r.Name,
		TransferType:        domain.TransferType(r.TransferType),
		InstructionType:     domain.InstructionType(r.InstructionType),
		RecurrenceType:      domain.RecurrenceType(r.RecurrenceType),
		RecurrenceFrequency: domain.PeriodFrequency(r.RecurrenceFrequency),
		RecurrenceInterval:  r.RecurrenceInterval,
		RecurrenceOnDay:     r.RecurrenceOnDay,
		RecurrenceOnMonth:   r.RecurrenceOnMonth,
		ValidFrom:           validFrom,
		From:                r.From.toDomain(),
		To:                  r.To.toDomain(),
		Amount:              amount,
	}, nil
}

// RunInstructionsRequest optionally pins the business date of a manual run.
type RunInstructionsRequest struct {
	Date string `json:"date,omitempty"`
}

// RunDate parses Date. A zero time means the current business date.
func (r *RunInstructionsRequest) RunDate() (time.Time, error) {
	if r.Date == "" {
		return time.Time{}, nil
	}
	d, err := time.Parse(DateLayout, r.Date)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date: %w", err)
	}
	return d, nil
}
