package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReconstructionInput is everything needed to rebuild one archived schedule
// version. Rows must be in ascending installment order.
type ReconstructionInput struct {
	Currency                 Currency
	Baseline                 DisbursementEvent
	FeeChargesAtDisbursement decimal.Decimal
	// Disbursements lists multi-tranche payouts. When non-empty they replace
	// the single baseline disbursement period.
	Disbursements []DisbursementEvent
	Rows          []HistoricalScheduleRow
}

// reconstruction is the accumulator carried across rows.
type reconstruction struct {
	baselineDate      time.Time
	lastDueDate       time.Time
	outstanding       decimal.Decimal
	totalDisbursed    decimal.Decimal
	principalExpected Money
	interestCharged   Money
	feeCharged        Money
	penaltyCharged    Money
	repaymentExpected Money
	loanTermInDays    int
	periods           []SchedulePeriod
}

// ReconstructSchedule folds archived installment rows into a full schedule
// with running balances and totals. It has no side effects; the same input
// always yields the same schedule.
func ReconstructSchedule(in ReconstructionInput) *ReconstructedSchedule {
	cur := in.Currency
	tranches := len(in.Disbursements) > 0

	st := reconstruction{
		baselineDate:      DateOf(in.Baseline.Date),
		lastDueDate:       DateOf(in.Baseline.Date),
		outstanding:       in.Baseline.Amount,
		totalDisbursed:    decimal.Zero,
		principalExpected: ZeroMoney(cur),
		interestCharged:   ZeroMoney(cur),
		penaltyCharged:    ZeroMoney(cur),
		feeCharged:        ZeroMoney(cur).Plus(in.FeeChargesAtDisbursement),
		repaymentExpected: ZeroMoney(cur).Plus(in.FeeChargesAtDisbursement),
		periods:           make([]SchedulePeriod, 0, len(in.Rows)+len(in.Disbursements)+1),
	}

	if tranches {
		st.outstanding = decimal.Zero
	} else {
		st.periods = append(st.periods, disbursementPeriod(in.Baseline, in.FeeChargesAtDisbursement))
		st.totalDisbursed = MoneyOf(cur, in.Baseline.Amount).Amount()
	}

	for _, row := range in.Rows {
		fromDate := st.lastDueDate
		if row.FromDate != nil {
			fromDate = DateOf(*row.FromDate)
		}
		dueDate := DateOf(row.DueDate)

		if tranches {
			st.applyTranches(in, fromDate, dueDate)
		}

		if row.FromDate != nil {
			st.loanTermInDays += daysBetween(fromDate, dueDate)
		}

		principalDue := orZero(row.PrincipalDue)
		interestDue := orZero(row.InterestDue)
		feeChargesDue := orZero(row.FeeChargesDue)
		penaltyChargesDue := orZero(row.PenaltyChargesDue)

		totalInstallment := ZeroMoney(cur).Plus(principalDue).Plus(interestDue).Amount()
		totalCost := interestDue.Add(feeChargesDue).Add(penaltyChargesDue)
		totalDue := principalDue.Add(totalCost)

		st.principalExpected = st.principalExpected.Plus(principalDue)
		st.interestCharged = st.interestCharged.Plus(interestDue)
		st.feeCharged = st.feeCharged.Plus(feeChargesDue)
		st.penaltyCharged = st.penaltyCharged.Plus(penaltyChargesDue)
		st.repaymentExpected = st.repaymentExpected.Plus(totalDue)

		st.outstanding = st.outstanding.Sub(principalDue)

		st.periods = append(st.periods, SchedulePeriod{
			Kind:                   PeriodRepayment,
			Installment:            row.Installment,
			FromDate:               fromDate,
			DueDate:                dueDate,
			PrincipalDue:           principalDue,
			OutstandingBalance:     st.outstanding,
			InterestDue:            interestDue,
			FeeChargesDue:          feeChargesDue,
			PenaltyChargesDue:      penaltyChargesDue,
			TotalDue:               totalDue,
			TotalInstallmentAmount: totalInstallment,
		})

		st.lastDueDate = dueDate
	}

	return &ReconstructedSchedule{
		Currency:                   cur,
		Periods:                    st.periods,
		LoanTermInDays:             st.loanTermInDays,
		TotalPrincipalDisbursed:    st.totalDisbursed,
		TotalPrincipalExpected:     st.principalExpected.Amount(),
		TotalInterestCharged:       st.interestCharged.Amount(),
		TotalFeeChargesCharged:     st.feeCharged.Amount(),
		TotalPenaltyChargesCharged: st.penaltyCharged.Amount(),
		TotalRepaymentExpected:     st.repaymentExpected.Amount(),
	}
}

// applyTranches emits disbursement periods for the tranches paid out before
// the installment starting at fromDate.
//
// A tranche on the baseline date is only picked up by the installment that
// itself starts on the baseline date. Later tranches need a positive
// outstanding balance and a date inside [fromDate, dueDate).
func (st *reconstruction) applyTranches(in ReconstructionInput, fromDate, dueDate time.Time) {
	principal := decimal.Zero

	for _, d := range in.Disbursements {
		switch {
		case fromDate.Equal(st.baselineDate) && DateOf(d.Date).Equal(fromDate):
			st.periods = append(st.periods, disbursementPeriod(d, in.FeeChargesAtDisbursement))
		case d.IsDueForDisbursement(fromDate, dueDate) && st.outstanding.IsPositive():
			st.periods = append(st.periods, disbursementPeriod(d, decimal.Zero))
		default:
			continue
		}
		principal = principal.Add(d.Amount)
		st.outstanding = st.outstanding.Add(d.Amount)
	}

	st.totalDisbursed = st.totalDisbursed.Add(principal)
}
