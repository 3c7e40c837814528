package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func validInstruction() *StandingInstruction {
	amount := decimal.NewFromInt(250)
	return &StandingInstruction{
		ID:                  "si-1",
		Name:                "Monthly rent",
		Status:              InstructionStatusActive,
		TransferType:        TransferTypeAccountTransfer,
		InstructionType:     InstructionFixedAmount,
		RecurrenceType:      RecurrencePeriodic,
		RecurrenceFrequency: FrequencyMonthly,
		RecurrenceInterval:  1,
		RecurrenceOnDay:     15,
		ValidFrom:           Date(2024, 1, 10),
		From:                AccountRef{Type: AccountTypeSavings, ID: "sav-1"},
		To:                  AccountRef{Type: AccountTypeSavings, ID: "sav-2"},
		Amount:              &amount,
	}
}

func TestStandingInstruction_AnchorDate(t *testing.T) {
	tests := []struct {
		name      string
		frequency PeriodFrequency
		onDay     int
		onMonth   int
		validFrom time.Time
		want      time.Time
	}{
		{"monthly day after valid from", FrequencyMonthly, 15, 0, Date(2024, 1, 10), Date(2024, 1, 15)},
		{"monthly day before valid from rolls forward", FrequencyMonthly, 15, 0, Date(2024, 1, 20), Date(2024, 2, 15)},
		{"monthly day equal to valid from", FrequencyMonthly, 20, 0, Date(2024, 1, 20), Date(2024, 1, 20)},
		{"monthly day 31 from february rolls to march", FrequencyMonthly, 31, 0, Date(2024, 2, 10), Date(2024, 3, 31)},
		{"monthly day 31 from april rolls to may", FrequencyMonthly, 31, 0, Date(2024, 4, 10), Date(2024, 5, 31)},
		{"monthly day 30 skips february", FrequencyMonthly, 30, 0, Date(2023, 2, 1), Date(2023, 3, 30)},
		{"monthly day 31 skips november", FrequencyMonthly, 31, 0, Date(2024, 11, 15), Date(2024, 12, 31)},
		{"yearly later in year", FrequencyYearly, 1, 9, Date(2024, 5, 10), Date(2024, 9, 1)},
		{"yearly earlier in year rolls forward", FrequencyYearly, 1, 3, Date(2024, 5, 10), Date(2025, 3, 1)},
		{"yearly leap day", FrequencyYearly, 29, 2, Date(2024, 1, 5), Date(2024, 2, 29)},
		{"yearly leap day waits for a leap year", FrequencyYearly, 29, 2, Date(2025, 1, 5), Date(2028, 2, 29)},
		{"weekly keeps valid from", FrequencyWeekly, 3, 0, Date(2024, 1, 10), Date(2024, 1, 10)},
		{"daily keeps valid from", FrequencyDaily, 0, 0, Date(2024, 1, 10), Date(2024, 1, 10)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			si := validInstruction()
			si.RecurrenceFrequency = tt.frequency
			si.RecurrenceOnDay = tt.onDay
			si.RecurrenceOnMonth = tt.onMonth
			si.ValidFrom = tt.validFrom

			if got := si.AnchorDate(); !got.Equal(tt.want) {
				t.Errorf("AnchorDate() = %s, want %s", got.Format(time.DateOnly), tt.want.Format(time.DateOnly))
			}
		})
	}
}

func TestStandingInstruction_MonthEndDayRunsOnConfiguredDay(t *testing.T) {
	si := validInstruction()
	si.RecurrenceOnDay = 31
	si.ValidFrom = Date(2024, 2, 10)
	anchor := si.AnchorDate()

	tests := []struct {
		date time.Time
		want bool
	}{
		{Date(2024, 2, 29), false},
		{Date(2024, 3, 29), false},
		{Date(2024, 3, 31), true},
		{Date(2024, 5, 31), true},
	}

	for _, tt := range tests {
		if got := (Cadence{}).IsDue(si.RecurrenceFrequency, si.RecurrenceInterval, anchor, tt.date); got != tt.want {
			t.Errorf("IsDue(%s) = %v, want %v", tt.date.Format(time.DateOnly), got, tt.want)
		}
	}
}

func TestStandingInstruction_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(si *StandingInstruction)
		want   error
	}{
		{"valid", func(si *StandingInstruction) {}, nil},
		{"fixed amount without amount", func(si *StandingInstruction) { si.Amount = nil }, ErrAmountRequired},
		{"fixed amount zero", func(si *StandingInstruction) {
			zero := decimal.Zero
			si.Amount = &zero
		}, ErrInvalidAmount},
		{"loan to loan", func(si *StandingInstruction) {
			si.From = AccountRef{Type: AccountTypeLoan, ID: "loan-1"}
			si.To = AccountRef{Type: AccountTypeLoan, ID: "loan-2"}
		}, ErrUnsupportedTransfer},
		{"same account", func(si *StandingInstruction) { si.To.ID = si.From.ID }, ErrSameAccount},
		{"zero interval", func(si *StandingInstruction) { si.RecurrenceInterval = 0 }, ErrInvalidRecurrence},
		{"day out of range", func(si *StandingInstruction) { si.RecurrenceOnDay = 32 }, ErrInvalidRecurrence},
		{"yearly without month", func(si *StandingInstruction) { si.RecurrenceFrequency = FrequencyYearly }, ErrInvalidRecurrence},
		{"yearly day missing from month", func(si *StandingInstruction) {
			si.RecurrenceFrequency = FrequencyYearly
			si.RecurrenceOnMonth = 4
			si.RecurrenceOnDay = 31
		}, ErrInvalidRecurrence},
		{"yearly leap day", func(si *StandingInstruction) {
			si.RecurrenceFrequency = FrequencyYearly
			si.RecurrenceOnMonth = 2
			si.RecurrenceOnDay = 29
		}, nil},
		{"dues recurrence to savings", func(si *StandingInstruction) { si.RecurrenceType = RecurrenceDues }, ErrInvalidRecurrence},
		{"dues amount to savings", func(si *StandingInstruction) { si.InstructionType = InstructionDuesAmount }, ErrUnsupportedTransfer},
		{"dues recurrence to loan skips cadence checks", func(si *StandingInstruction) {
			si.To = AccountRef{Type: AccountTypeLoan, ID: "loan-1"}
			si.RecurrenceType = RecurrenceDues
			si.InstructionType = InstructionDuesAmount
			si.Amount = nil
			si.RecurrenceInterval = 0
		}, nil},
		{"blank name", func(si *StandingInstruction) { si.Name = " " }, ErrInvalidInstructionName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			si := validInstruction()
			tt.mutate(si)

			err := si.Validate()
			if tt.want == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestNewInstructionTransferRequest(t *testing.T) {
	si := validInstruction()
	si.To = AccountRef{Type: AccountTypeLoan, ID: "loan-7"}
	si.TransferType = TransferTypeLoanRepayment

	req := NewInstructionTransferRequest(si, decimal.NewFromInt(90), Date(2024, 2, 15))

	if req.TransferSubtype != TransferSubtypeLoanRepayment {
		t.Fatalf("expected loan repayment subtype, got %s", req.TransferSubtype)
	}
	if req.Description != "Monthly rent Standing instruction transfer" {
		t.Fatalf("unexpected description %q", req.Description)
	}

	meta := req.Metadata()
	if meta[MetadataStandingInstruction] != "si-1" {
		t.Fatalf("expected instruction id in metadata, got %v", meta)
	}
	if meta[MetadataTransferType] != string(TransferTypeLoanRepayment) {
		t.Fatalf("expected transfer type in metadata, got %v", meta)
	}
	if !req.TransactionDate.Equal(Date(2024, 2, 15)) {
		t.Fatalf("expected transaction date of the run, got %s", req.TransactionDate)
	}

	si.To = AccountRef{Type: AccountTypeSavings, ID: "sav-9"}
	if got := NewInstructionTransferRequest(si, decimal.NewFromInt(1), Date(2024, 2, 15)).TransferSubtype; got != TransferSubtypeDeposit {
		t.Fatalf("expected deposit subtype for a savings target, got %s", got)
	}
}

func TestOutcomeFromResult(t *testing.T) {
	tests := []struct {
		result     TransferResult
		wantStatus OutcomeStatus
		wantLog    string
	}{
		{TransferSuccess("tr-1"), OutcomeSuccess, ""},
		{TransferFailure(TransferValidationFailed, ErrCurrencyMismatch), OutcomeFailed, "Validation exception while transferring funds " + ErrCurrencyMismatch.Error()},
		{TransferFailure(TransferInsufficientBalance, ErrNegativeBalanceNotAllowed), OutcomeFailed, "InsufficientAccountBalance Exception "},
		{TransferFailure(TransferServiceUnavailable, errors.New("connection refused")), OutcomeFailed, "Platform exception while transferring funds connection refused"},
		{TransferFailure(TransferFailed, errors.New("boom")), OutcomeFailed, "Exception while transferring funds boom"},
	}

	for _, tt := range tests {
		t.Run(tt.result.Kind.String(), func(t *testing.T) {
			status, log := OutcomeFromResult(tt.result)
			if status != tt.wantStatus {
				t.Errorf("status = %s, want %s", status, tt.wantStatus)
			}
			if log != tt.wantLog {
				t.Errorf("log = %q, want %q", log, tt.wantLog)
			}
		})
	}
}
