package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/loanledger/internal/domain"
	"github.com/iho/loanledger/internal/usecase"
)

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Name      string          `json:"name"`
	Currency  string          `json:"currency"`
	Balance   decimal.Decimal `json:"balance"`
	Version   int64           `json:"version"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// AccountFromDomain converts domain account to response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:        a.ID,
		Type:      string(a.Type),
		Name:      a.Name,
		Currency:  a.Currency,
		Balance:   a.Balance,
		Version:   a.Version,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// AccountRefResponse points at an account in a response.
type AccountRefResponse struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// StandingInstructionResponse represents a standing instruction in API responses.
type StandingInstructionResponse struct {
	ID                  string             `json:"id"`
	Name                string             `json:"name"`
	Status              string             `json:"status"`
	TransferType        string             `json:"transfer_type"`
	InstructionType     string             `json:"instruction_type"`
	RecurrenceType      string             `json:"recurrence_type"`
	RecurrenceFrequency string             `json:"recurrence_frequency,omitempty"`
	RecurrenceInterval  int                `json:"recurrence_interval,omitempty"`
	RecurrenceOnDay     int                `json:"recurrence_on_day,omitempty"`
	RecurrenceOnMonth   int                `json:"recurrence_on_month,omitempty"`
	ValidFrom           string             `json:"valid_from"`
	LastRunDate         *string            `json:"last_run_date,omitempty"`
	From                AccountRefResponse `json:"from"`
	To                  AccountRefResponse `json:"to"`
	Amount              *decimal.Decimal   `json:"amount,omitempty"`
	CreatedAt           time.Time          `json:"created_at"`
	UpdatedAt           time.Time          `json:"updated_at"`
}

// StandingInstructionFromDomain converts a domain instruction to response.
func StandingInstructionFromDomain(si *domain.StandingInstruction) *StandingInstructionResponse {
	resp := &StandingInstructionResponse{
		ID:                  si.ID,
		Name:                si.Name,
		Status:              string(si.Status),
		TransferType:        string(si.TransferType),
		InstructionType:     string(si.InstructionType),
		RecurrenceType:      string(si.RecurrenceType),
		RecurrenceFrequency: string(si.RecurrenceFrequency),
		RecurrenceInterval:  si.RecurrenceInterval,
		RecurrenceOnDay:     si.RecurrenceOnDay,
		RecurrenceOnMonth:   si.RecurrenceOnMonth,
		ValidFrom:           si.ValidFrom.Format(DateLayout),
		From:                AccountRefResponse{Type: string(si.From.Type), ID: si.From.ID},
		To:                  AccountRefResponse{Type: string(si.To.Type), ID: si.To.ID},
		Amount:              si.Amount,
		CreatedAt:           si.CreatedAt,
		UpdatedAt:           si.UpdatedAt,
	}
	if si.LastRunDate != nil {
		d := si.LastRunDate.Format(DateLayout)
		resp.LastRunDate = &d
	}
	return resp
}

// StandingInstructionsFromDomain converts domain instructions to responses.
func StandingInstructionsFromDomain(instructions []*domain.StandingInstruction) []*StandingInstructionResponse {
	result := make([]*StandingInstructionResponse, len(instructions))
	for i, si := range instructions {
		result[i] = StandingInstructionFromDomain(si)
	}
	return result
}

// ListStandingInstructionsResponse represents a page of instructions.
type ListStandingInstructionsResponse struct {
	Instructions []*StandingInstructionResponse `json:"instructions"`
	Total        int64                          `json:"total"`
}

// TransferOutcomeResponse represents one history row.
type TransferOutcomeResponse struct {
	ID            string          `json:"id"`
	InstructionID string          `json:"instruction_id"`
	Status        string          `json:"status"`
	Amount        decimal.Decimal `json:"amount"`
	ExecutedAt    time.Time       `json:"executed_at"`
	ErrorLog      string          `json:"error_log,omitempty"`
}

// TransferOutcomesFromDomain converts history rows to responses.
func TransferOutcomesFromDomain(outcomes []*domain.TransferOutcome) []*TransferOutcomeResponse {
	result := make([]*TransferOutcomeResponse, len(outcomes))
	for i, o := range outcomes {
		result[i] = &TransferOutcomeResponse{
			ID:            o.ID,
			InstructionID: o.InstructionID,
			Status:        string(o.Status),
			Amount:        o.Amount,
			ExecutedAt:    o.ExecutedAt,
			ErrorLog:      o.ErrorLog,
		}
	}
	return result
}

// EntryResponse represents one side of a posted transfer.
type EntryResponse struct {
	ID              string          `json:"id"`
	AccountID       string          `json:"account_id"`
	Side            string          `json:"side"`
	Amount          decimal.Decimal `json:"amount"`
	PreviousBalance decimal.Decimal `json:"previous_balance"`
	CurrentBalance  decimal.Decimal `json:"current_balance"`
	AccountVersion  int64           `json:"account_version"`
	CreatedAt       time.Time       `json:"created_at"`
}

// TransferResponse represents a posted transfer with its entries.
type TransferResponse struct {
	ID            string           `json:"id"`
	FromAccountID string           `json:"from_account_id"`
	ToAccountID   string           `json:"to_account_id"`
	Amount        decimal.Decimal  `json:"amount"`
	EventAt       string           `json:"event_at"`
	CreatedAt     time.Time        `json:"created_at"`
	Metadata      map[string]any   `json:"metadata,omitempty"`
	Balanced      bool             `json:"balanced"`
	Entries       []*EntryResponse `json:"entries"`
}

// TransferFromDomain converts a transfer and its entries to response.
func TransferFromDomain(t *domain.Transfer, entries []*domain.Entry) *TransferResponse {
	resp := &TransferResponse{
		ID:            t.ID,
		FromAccountID: t.FromAccountID,
		ToAccountID:   t.ToAccountID,
		Amount:        t.Amount,
		EventAt:       t.EventAt.Format(DateLayout),
		CreatedAt:     t.CreatedAt,
		Metadata:      t.Metadata,
		Balanced:      domain.Balanced(entries),
		Entries:       make([]*EntryResponse, len(entries)),
	}
	for i, e := range entries {
		resp.Entries[i] = &EntryResponse{
			ID:              e.ID,
			AccountID:       e.AccountID,
			Side:            e.Side(),
			Amount:          e.Amount,
			PreviousBalance: e.AccountPreviousBalance,
			CurrentBalance:  e.AccountCurrentBalance,
			AccountVersion:  e.AccountVersion,
			CreatedAt:       e.CreatedAt,
		}
	}
	return resp
}

// InstructionFailureResponse describes one failed instruction of a run.
type InstructionFailureResponse struct {
	InstructionID string          `json:"instruction_id"`
	Name          string          `json:"name"`
	Kind          string          `json:"kind"`
	Amount        decimal.Decimal `json:"amount"`
	ErrorLog      string          `json:"error_log"`
}

// RunReportResponse summarises a scheduler pass.
type RunReportResponse struct {
	RunDate   string                        `json:"run_date"`
	Evaluated int                           `json:"evaluated"`
	Due       int                           `json:"due"`
	Attempted int                           `json:"attempted"`
	Executed  int                           `json:"executed"`
	Skipped   int                           `json:"skipped"`
	Failures  []*InstructionFailureResponse `json:"failures"`
}

// RunReportFromUseCase converts a batch report to response.
func RunReportFromUseCase(r *usecase.BatchRunReport) *RunReportResponse {
	resp := &RunReportResponse{
		RunDate:   r.RunDate.Format(DateLayout),
		Evaluated: r.Evaluated,
		Due:       r.Due,
		Attempted: r.Attempted,
		Executed:  r.Executed,
		Skipped:   r.Skipped,
		Failures:  make([]*InstructionFailureResponse, len(r.Failures)),
	}
	for i, f := range r.Failures {
		resp.Failures[i] = &InstructionFailureResponse{
			InstructionID: f.InstructionID,
			Name:          f.Name,
			Kind:          f.Kind.String(),
			Amount:        f.Amount,
			ErrorLog:      f.ErrorLog,
		}
	}
	return resp
}

// CurrencyResponse represents a currency in API responses.
type CurrencyResponse struct {
	Code          string `json:"code"`
	DecimalPlaces int32  `json:"decimal_places"`
	InMultiplesOf int64  `json:"in_multiples_of,omitempty"`
}

// SchedulePeriodResponse represents one line of a schedule.
type SchedulePeriodResponse struct {
	Period                 *int            `json:"period,omitempty"`
	FromDate               string          `json:"from_date"`
	DueDate                string          `json:"due_date"`
	PrincipalDisbursed     decimal.Decimal `json:"principal_disbursed"`
	PrincipalDue           decimal.Decimal `json:"principal_due"`
	OutstandingBalance     decimal.Decimal `json:"principal_loan_balance_outstanding"`
	InterestDue            decimal.Decimal `json:"interest_due"`
	FeeChargesDue          decimal.Decimal `json:"fee_charges_due"`
	PenaltyChargesDue      decimal.Decimal `json:"penalty_charges_due"`
	TotalDue               decimal.Decimal `json:"total_due"`
	TotalInstallmentAmount decimal.Decimal `json:"total_installment_amount"`
	Disbursed              bool            `json:"disbursed,omitempty"`
}

// ScheduleResponse represents a reconstructed repayment schedule.
type ScheduleResponse struct {
	Currency                   CurrencyResponse          `json:"currency"`
	LoanTermInDays             int                       `json:"loan_term_in_days"`
	TotalPrincipalDisbursed    decimal.Decimal           `json:"total_principal_disbursed"`
	TotalPrincipalExpected     decimal.Decimal           `json:"total_principal_expected"`
	TotalInterestCharged       decimal.Decimal           `json:"total_interest_charged"`
	TotalFeeChargesCharged     decimal.Decimal           `json:"total_fee_charges_charged"`
	TotalPenaltyChargesCharged decimal.Decimal           `json:"total_penalty_charges_charged"`
	TotalRepaymentExpected     decimal.Decimal           `json:"total_repayment_expected"`
	Periods                    []*SchedulePeriodResponse `json:"periods"`
}

// ScheduleFromDomain converts a reconstructed schedule to response.
// Disbursement periods carry no period number.
func ScheduleFromDomain(s *domain.ReconstructedSchedule) *ScheduleResponse {
	resp := &ScheduleResponse{
		Currency: CurrencyResponse{
			Code:          s.Currency.Code,
			DecimalPlaces: s.Currency.DecimalPlaces,
			InMultiplesOf: s.Currency.InMultiplesOf,
		},
		LoanTermInDays:             s.LoanTermInDays,
		TotalPrincipalDisbursed:    s.TotalPrincipalDisbursed,
		TotalPrincipalExpected:     s.TotalPrincipalExpected,
		TotalInterestCharged:       s.TotalInterestCharged,
		TotalFeeChargesCharged:     s.TotalFeeChargesCharged,
		TotalPenaltyChargesCharged: s.TotalPenaltyChargesCharged,
		TotalRepaymentExpected:     s.TotalRepaymentExpected,
		Periods:                    make([]*SchedulePeriodResponse, len(s.Periods)),
	}

	for i, p := range s.Periods {
		period := &SchedulePeriodResponse{
			FromDate:               p.FromDate.Format(DateLayout),
			DueDate:                p.DueDate.Format(DateLayout),
			PrincipalDisbursed:     p.PrincipalDisbursed,
			PrincipalDue:           p.PrincipalDue,
			OutstandingBalance:     p.OutstandingBalance,
			InterestDue:            p.InterestDue,
			FeeChargesDue:          p.FeeChargesDue,
			PenaltyChargesDue:      p.PenaltyChargesDue,
			TotalDue:               p.TotalDue,
			TotalInstallmentAmount: p.TotalInstallmentAmount,
			Disbursed:              p.Disbursed,
		}
		if p.Kind == domain.PeriodRepayment {
			n := p.Installment
			period.Period = &n
		}
		resp.Periods[i] = period
	}

	return resp
}

// ScheduleVersionResponse carries the latest archived schedule version.
type ScheduleVersionResponse struct {
	LoanID  string `json:"loan_id"`
	Version int    `json:"version"`
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
