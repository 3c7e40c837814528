package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iho/loanledger/internal/domain"
)

// ScheduleArchiveRepository implements usecase.ScheduleArchiveRepository.
type ScheduleArchiveRepository struct {
	db DBTX
}

// NewScheduleArchiveRepository creates a new ScheduleArchiveRepository.
func NewScheduleArchiveRepository(db DBTX) *ScheduleArchiveRepository {
	return &ScheduleArchiveRepository{db: db}
}

// MaxVersion returns the newest archived version of the loan's schedule, or
// zero when none was archived.
func (r *ScheduleArchiveRepository) MaxVersion(ctx context.Context, loanID string) (int, error) {
	var version int32

	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(MAX(version), 0)
		FROM loan_repayment_schedule_history
		WHERE loan_id = $1`, loanID).Scan(&version)
	if err != nil {
		return 0, err
	}

	return int(version), nil
}

// RowsForVersion returns the installments of one archived version in
// installment order.
func (r *ScheduleArchiveRepository) RowsForVersion(ctx context.Context, loanID string, version int) ([]domain.HistoricalScheduleRow, error) {
	rows, err := r.db.Query(ctx, `
		SELECT installment, fromdate, duedate,
		       principal_amount, interest_amount, fee_charges_amount, penalty_charges_amount
		FROM loan_repayment_schedule_history
		WHERE loan_id = $1 AND version = $2
		ORDER BY installment`, loanID, version)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.HistoricalScheduleRow
	for rows.Next() {
		var (
			installment                        int32
			fromDate, dueDate                  pgtype.Date
			principal, interest, fees, penalty pgtype.Numeric
		)

		if err := rows.Scan(&installment, &fromDate, &dueDate, &principal, &interest, &fees, &penalty); err != nil {
			return nil, err
		}

		result = append(result, domain.HistoricalScheduleRow{
			Installment:       int(installment),
			FromDate:          pgDateToTimePtr(fromDate),
			DueDate:           dueDate.Time,
			PrincipalDue:      numericToNullDecimal(principal),
			InterestDue:       numericToNullDecimal(interest),
			FeeChargesDue:     numericToNullDecimal(fees),
			PenaltyChargesDue: numericToNullDecimal(penalty),
		})
	}

	return result, rows.Err()
}
