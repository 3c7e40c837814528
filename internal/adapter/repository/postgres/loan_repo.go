package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iho/loanledger/internal/domain"
)

// LoanRepository implements usecase.LoanRepository and usecase.LoanDuesReader.
type LoanRepository struct {
	db DBTX
}

// NewLoanRepository creates a new LoanRepository.
func NewLoanRepository(db DBTX) *LoanRepository {
	return &LoanRepository{db: db}
}

// GetScheduleData reads the currency and the baseline disbursement of a loan.
// The baseline falls back to the expected disbursement while the loan is
// still pending.
func (r *LoanRepository) GetScheduleData(ctx context.Context, loanID string) (*domain.LoanScheduleData, error) {
	var (
		data         domain.LoanScheduleData
		digits       int16
		multiplesOf  pgtype.Int2
		principal    pgtype.Numeric
		expected     pgtype.Date
		disbursedOn  pgtype.Date
		feesAtPayout pgtype.Numeric
	)

	err := r.db.QueryRow(ctx, `
		SELECT id, currency_code, currency_digits, currency_multiplesof, principal_amount,
		       expected_disbursement_date, disbursedon_date, fee_charges_at_disbursement
		FROM loans
		WHERE id = $1`, loanID).Scan(
		&data.LoanID,
		&data.Currency.Code,
		&digits,
		&multiplesOf,
		&principal,
		&expected,
		&disbursedOn,
		&feesAtPayout,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrLoanNotFound
		}

		return nil, err
	}

	data.Currency.DecimalPlaces = int32(digits)
	data.Currency.InMultiplesOf = int64(multiplesOf.Int16)
	data.Disbursement = disbursementEvent(expected, disbursedOn, principal)
	data.FeeChargesAtDisbursement = numericToDecimal(feesAtPayout)

	return &data, nil
}

// ListDisbursements returns the tranches of a multi-disbursement loan in date
// order. Single-disbursement loans have none.
func (r *LoanRepository) ListDisbursements(ctx context.Context, loanID string) ([]domain.DisbursementEvent, error) {
	rows, err := r.db.Query(ctx, `
		SELECT expected_disburse_date, disbursedon_date, principal
		FROM loan_disbursement_details
		WHERE loan_id = $1
		ORDER BY expected_disburse_date, id`, loanID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.DisbursementEvent
	for rows.Next() {
		var (
			expected, disbursedOn pgtype.Date
			principal             pgtype.Numeric
		)

		if err := rows.Scan(&expected, &disbursedOn, &principal); err != nil {
			return nil, err
		}
		events = append(events, disbursementEvent(expected, disbursedOn, principal))
	}

	return events, rows.Err()
}

// DuesSnapshot sums what is still owed on the installments that fell due on
// or before asOf. DueDate is the latest such installment, nil when nothing is
// due.
func (r *LoanRepository) DuesSnapshot(ctx context.Context, loanID string, asOf time.Time) (*domain.LoanDues, error) {
	var (
		dueDate pgtype.Date
		total   pgtype.Numeric
	)

	err := r.db.QueryRow(ctx, `
		SELECT MAX(duedate),
		       COALESCE(SUM(
		           COALESCE(principal_amount, 0) - COALESCE(principal_completed_derived, 0)
		         + COALESCE(interest_amount, 0) - COALESCE(interest_completed_derived, 0)
		         + COALESCE(fee_charges_amount, 0) - COALESCE(fee_charges_completed_derived, 0)
		         + COALESCE(penalty_charges_amount, 0) - COALESCE(penalty_charges_completed_derived, 0)
		       ), 0)
		FROM loan_repayment_schedule
		WHERE loan_id = $1 AND NOT completed_derived AND duedate <= $2`,
		loanID, timeToPgDate(asOf)).Scan(&dueDate, &total)
	if err != nil {
		return nil, err
	}

	return &domain.LoanDues{
		TotalDueAmount: numericToDecimal(total),
		DueDate:        pgDateToTimePtr(dueDate),
	}, nil
}

func disbursementEvent(expected, disbursedOn pgtype.Date, principal pgtype.Numeric) domain.DisbursementEvent {
	event := domain.DisbursementEvent{
		Date:      expected.Time,
		Amount:    numericToDecimal(principal),
		Disbursed: disbursedOn.Valid,
	}
	if disbursedOn.Valid {
		event.Date = disbursedOn.Time
	}

	return event
}
