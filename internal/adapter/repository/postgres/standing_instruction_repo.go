package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iho/loanledger/internal/domain"
)

const instructionColumns = `id, name, status, transfer_type, instruction_type, recurrence_type,
	recurrence_frequency, recurrence_interval, recurrence_on_day, recurrence_on_month,
	valid_from, last_run_date, from_account_type, from_account_id, to_account_type, to_account_id,
	amount, created_at, updated_at`

// StandingInstructionRepository implements usecase.StandingInstructionRepository.
type StandingInstructionRepository struct {
	db DBTX
}

// NewStandingInstructionRepository creates a new StandingInstructionRepository.
func NewStandingInstructionRepository(db DBTX) *StandingInstructionRepository {
	return &StandingInstructionRepository{db: db}
}

// Create stores a new standing instruction.
func (r *StandingInstructionRepository) Create(ctx context.Context, si *domain.StandingInstruction) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO standing_instructions (`+instructionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
		si.ID,
		si.Name,
		string(si.Status),
		string(si.TransferType),
		string(si.InstructionType),
		string(si.RecurrenceType),
		textOrNull(string(si.RecurrenceFrequency)),
		int4OrNull(si.RecurrenceInterval),
		int4OrNull(si.RecurrenceOnDay),
		int4OrNull(si.RecurrenceOnMonth),
		timeToPgDate(si.ValidFrom),
		timePtrToPgDate(si.LastRunDate),
		string(si.From.Type),
		si.From.ID,
		string(si.To.Type),
		si.To.ID,
		nullDecimalToNumeric(si.Amount),
		si.CreatedAt,
		si.UpdatedAt,
	)

	switch {
	case isPgError(err, pgErrUniqueViolation):
		return domain.ErrDuplicateInstructionName
	case isPgError(err, pgErrForeignKeyViolation):
		return domain.ErrAccountNotFound
	}

	return err
}

// GetByID retrieves a standing instruction by ID, whatever its status.
func (r *StandingInstructionRepository) GetByID(ctx context.Context, id string) (*domain.StandingInstruction, error) {
	row := r.db.QueryRow(ctx, `SELECT `+instructionColumns+` FROM standing_instructions WHERE id = $1`, id)

	si, err := scanInstruction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrStandingInstructionNotFound
		}

		return nil, err
	}

	return si, nil
}

// List lists instructions with the given status, oldest first.
func (r *StandingInstructionRepository) List(ctx context.Context, status domain.InstructionStatus, limit, offset int) ([]*domain.StandingInstruction, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+instructionColumns+`
		FROM standing_instructions
		WHERE status = $1
		ORDER BY created_at, id
		LIMIT $2 OFFSET $3`, string(status), limit, offset)
	if err != nil {
		return nil, err
	}

	return collectInstructions(rows)
}

// FindByStatus returns every instruction with the given status.
func (r *StandingInstructionRepository) FindByStatus(ctx context.Context, status domain.InstructionStatus) ([]*domain.StandingInstruction, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+instructionColumns+`
		FROM standing_instructions
		WHERE status = $1
		ORDER BY created_at, id`, string(status))
	if err != nil {
		return nil, err
	}

	return collectInstructions(rows)
}

// RecordLastRun stores the date of the last successful transfer.
func (r *StandingInstructionRepository) RecordLastRun(ctx context.Context, id string, runDate time.Time) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE standing_instructions
		SET last_run_date = $2, updated_at = NOW()
		WHERE id = $1`, id, timeToPgDate(runDate))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrStandingInstructionNotFound
	}

	return nil
}

// UpdateStatus moves an instruction to another lifecycle status.
func (r *StandingInstructionRepository) UpdateStatus(ctx context.Context, id string, status domain.InstructionStatus, updatedAt time.Time) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE standing_instructions
		SET status = $2, updated_at = $3
		WHERE id = $1`, id, string(status), updatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrStandingInstructionNotFound
	}

	return nil
}

func collectInstructions(rows pgx.Rows) ([]*domain.StandingInstruction, error) {
	defer rows.Close()

	var instructions []*domain.StandingInstruction
	for rows.Next() {
		si, err := scanInstruction(rows)
		if err != nil {
			return nil, err
		}
		instructions = append(instructions, si)
	}

	return instructions, rows.Err()
}

func scanInstruction(row pgx.Row) (*domain.StandingInstruction, error) {
	var (
		si                                             domain.StandingInstruction
		status, transferType, instructionType, recType string
		fromType, toType                               string
		frequency                                      pgtype.Text
		interval, onDay, onMonth                       pgtype.Int4
		validFrom, lastRun                             pgtype.Date
		amount                                         pgtype.Numeric
	)

	err := row.Scan(
		&si.ID,
		&si.Name,
		&status,
		&transferType,
		&instructionType,
		&recType,
		&frequency,
		&interval,
		&onDay,
		&onMonth,
		&validFrom,
		&lastRun,
		&fromType,
		&si.From.ID,
		&toType,
		&si.To.ID,
		&amount,
		&si.CreatedAt,
		&si.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	si.Status = domain.InstructionStatus(status)
	si.TransferType = domain.TransferType(transferType)
	si.InstructionType = domain.InstructionType(instructionType)
	si.RecurrenceType = domain.RecurrenceType(recType)
	si.RecurrenceFrequency = domain.PeriodFrequency(frequency.String)
	si.RecurrenceInterval = int(interval.Int32)
	si.RecurrenceOnDay = int(onDay.Int32)
	si.RecurrenceOnMonth = int(onMonth.Int32)
	si.ValidFrom = validFrom.Time
	si.LastRunDate = pgDateToTimePtr(lastRun)
	si.From.Type = domain.AccountType(fromType)
	si.To.Type = domain.AccountType(toType)
	si.Amount = numericToDecimalPtr(amount)

	return &si, nil
}
