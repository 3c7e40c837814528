package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DisbursementEvent is a (planned or actual) payout of loan principal.
type DisbursementEvent struct {
	Date      time.Time
	Amount    decimal.Decimal
	Disbursed bool
}

// IsDueForDisbursement reports whether the event falls inside the installment
// window [from, due).
func (d DisbursementEvent) IsDueForDisbursement(from, due time.Time) bool {
	date := DateOf(d.Date)
	return !date.Before(DateOf(from)) && date.Before(DateOf(due))
}

// HistoricalScheduleRow is one archived installment of a schedule version.
// Amount columns are nullable in storage and read as zero when absent.
type HistoricalScheduleRow struct {
	Installment       int
	FromDate          *time.Time
	DueDate           time.Time
	PrincipalDue      decimal.NullDecimal
	InterestDue       decimal.NullDecimal
	FeeChargesDue     decimal.NullDecimal
	PenaltyChargesDue decimal.NullDecimal
}

// LoanScheduleData is what the reconstruction needs to know about a loan.
type LoanScheduleData struct {
	LoanID                   string
	Currency                 Currency
	Disbursement             DisbursementEvent
	FeeChargesAtDisbursement decimal.Decimal
}

// PeriodKind tells disbursement periods from repayment periods.
type PeriodKind string

const (
	PeriodDisbursement PeriodKind = "disbursement"
	PeriodRepayment    PeriodKind = "repayment"
)

// SchedulePeriod is one line of a repayment schedule. Disbursement periods
// carry the disbursed principal, repayment periods the installment amounts.
type SchedulePeriod struct {
	Kind                   PeriodKind
	Installment            int
	FromDate               time.Time
	DueDate                time.Time
	PrincipalDisbursed     decimal.Decimal
	PrincipalDue           decimal.Decimal
	OutstandingBalance     decimal.Decimal
	InterestDue            decimal.Decimal
	FeeChargesDue          decimal.Decimal
	PenaltyChargesDue      decimal.Decimal
	TotalDue               decimal.Decimal
	TotalInstallmentAmount decimal.Decimal
	Disbursed              bool
}

// ReconstructedSchedule is a repayment schedule rebuilt from an archived
// version.
type ReconstructedSchedule struct {
	Currency                   Currency
	Periods                    []SchedulePeriod
	LoanTermInDays             int
	TotalPrincipalDisbursed    decimal.Decimal
	TotalPrincipalExpected     decimal.Decimal
	TotalInterestCharged       decimal.Decimal
	TotalFeeChargesCharged     decimal.Decimal
	TotalPenaltyChargesCharged decimal.Decimal
	TotalRepaymentExpected     decimal.Decimal
}

func disbursementPeriod(d DisbursementEvent, feeCharges decimal.Decimal) SchedulePeriod {
	date := DateOf(d.Date)
	return SchedulePeriod{
		Kind:               PeriodDisbursement,
		FromDate:           date,
		DueDate:            date,
		PrincipalDisbursed: d.Amount,
		OutstandingBalance: d.Amount,
		FeeChargesDue:      feeCharges,
		TotalDue:           feeCharges,
		Disbursed:          d.Disbursed,
	}
}

func orZero(n decimal.NullDecimal) decimal.Decimal {
	if n.Valid {
		return n.Decimal
	}
	return decimal.Zero
}
