package usecase

import (
	"context"
	"fmt"

	"github.com/iho/loanledger/internal/domain"
)

// ScheduleHistoryUseCase rebuilds archived repayment schedules of a loan.
type ScheduleHistoryUseCase struct {
	loanRepo    LoanRepository
	archiveRepo ScheduleArchiveRepository
}

// NewScheduleHistoryUseCase creates a new ScheduleHistoryUseCase.
func NewScheduleHistoryUseCase(loanRepo LoanRepository, archiveRepo ScheduleArchiveRepository) *ScheduleHistoryUseCase {
	return &ScheduleHistoryUseCase{
		loanRepo:    loanRepo,
		archiveRepo: archiveRepo,
	}
}

// FetchCurrentVersion returns the latest archived schedule version of a loan,
// or zero if the schedule was never rescheduled.
func (uc *ScheduleHistoryUseCase) FetchCurrentVersion(ctx context.Context, loanID string) (int, error) {
	if _, err := uc.loanRepo.GetScheduleData(ctx, loanID); err != nil {
		return 0, err
	}
	return uc.archiveRepo.MaxVersion(ctx, loanID)
}

// RetrieveArchiveSchedule rebuilds the latest archived schedule of a loan.
// It returns a nil schedule and no error when the loan has no archive.
func (uc *ScheduleHistoryUseCase) RetrieveArchiveSchedule(ctx context.Context, loanID string) (*domain.ReconstructedSchedule, error) {
	loan, err := uc.loanRepo.GetScheduleData(ctx, loanID)
	if err != nil {
		return nil, err
	}

	version, err := uc.archiveRepo.MaxVersion(ctx, loanID)
	if err != nil {
		return nil, fmt.Errorf("schedule archive version: %w", err)
	}
	if version == 0 {
		return nil, nil
	}

	rows, err := uc.archiveRepo.RowsForVersion(ctx, loanID, version)
	if err != nil {
		return nil, fmt.Errorf("schedule archive rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	disbursements, err := uc.loanRepo.ListDisbursements(ctx, loanID)
	if err != nil {
		return nil, fmt.Errorf("loan disbursements: %w", err)
	}

	return domain.ReconstructSchedule(domain.ReconstructionInput{
		Currency:                 loan.Currency,
		Baseline:                 loan.Disbursement,
		FeeChargesAtDisbursement: loan.FeeChargesAtDisbursement,
		Disbursements:            disbursements,
		Rows:                     rows,
	}), nil
}
