package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iho/loanledger/internal/domain"
)

// InstructionHistoryRepository implements usecase.InstructionHistoryRepository.
// Rows are only ever inserted.
type InstructionHistoryRepository struct {
	db DBTX
}

// NewInstructionHistoryRepository creates a new InstructionHistoryRepository.
func NewInstructionHistoryRepository(db DBTX) *InstructionHistoryRepository {
	return &InstructionHistoryRepository{db: db}
}

// Append records one transfer attempt.
func (r *InstructionHistoryRepository) Append(ctx context.Context, outcome *domain.TransferOutcome) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO standing_instruction_history (id, standing_instruction_id, status, amount, execution_time, error_log)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		outcome.ID,
		outcome.InstructionID,
		string(outcome.Status),
		decimalToNumeric(outcome.Amount),
		outcome.ExecutedAt,
		outcome.ErrorLog,
	)

	return err
}

// ListByInstruction lists the attempts of an instruction, newest first.
func (r *InstructionHistoryRepository) ListByInstruction(ctx context.Context, instructionID string, limit, offset int) ([]*domain.TransferOutcome, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, standing_instruction_id, status, amount, execution_time, error_log
		FROM standing_instruction_history
		WHERE standing_instruction_id = $1
		ORDER BY execution_time DESC, id DESC
		LIMIT $2 OFFSET $3`, instructionID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var outcomes []*domain.TransferOutcome
	for rows.Next() {
		var (
			o      domain.TransferOutcome
			status string
			amount pgtype.Numeric
		)

		if err := rows.Scan(&o.ID, &o.InstructionID, &status, &amount, &o.ExecutedAt, &o.ErrorLog); err != nil {
			return nil, err
		}

		o.Status = domain.OutcomeStatus(status)
		o.Amount = numericToDecimal(amount)
		outcomes = append(outcomes, &o)
	}

	return outcomes, rows.Err()
}
