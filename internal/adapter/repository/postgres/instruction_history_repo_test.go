package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/loanledger/internal/domain"
)

func TestInstructionHistoryRepository_Append(t *testing.T) {
	pool := newMockPool(t)
	executed := time.Date(2024, 2, 15, 1, 0, 0, 0, time.UTC)

	pool.ExpectExec("INSERT INTO standing_instruction_history").
		WithArgs("h-1", "si-1", "failed", numeric("75.5"), executed, "InsufficientAccountBalance Exception ").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := NewInstructionHistoryRepository(pool).Append(context.Background(), &domain.TransferOutcome{
		ID:            "h-1",
		InstructionID: "si-1",
		Status:        domain.OutcomeFailed,
		Amount:        decimal.RequireFromString("75.5"),
		ExecutedAt:    executed,
		ErrorLog:      "InsufficientAccountBalance Exception ",
	})
	require.NoError(t, err)
	assertExpectations(t, pool)
}

func TestInstructionHistoryRepository_ListByInstruction(t *testing.T) {
	pool := newMockPool(t)
	executed := time.Date(2024, 2, 15, 1, 0, 0, 0, time.UTC)

	pool.ExpectQuery("FROM standing_instruction_history").
		WithArgs("si-1", 10, 0).
		WillReturnRows(pgxmock.NewRows([]string{"id", "standing_instruction_id", "status", "amount", "execution_time", "error_log"}).
			AddRow("h-2", "si-1", "success", numeric("100"), executed, "").
			AddRow("h-1", "si-1", "failed", numeric("100"), executed.Add(-24*time.Hour), "Exception while transferring funds boom"))

	outcomes, err := NewInstructionHistoryRepository(pool).ListByInstruction(context.Background(), "si-1", 10, 0)
	require.NoError(t, err)
	require.Len(t, outcomes, 2)

	assert.Equal(t, domain.OutcomeSuccess, outcomes[0].Status)
	assert.Equal(t, domain.OutcomeFailed, outcomes[1].Status)
	assert.True(t, outcomes[1].Amount.Equal(decimal.NewFromInt(100)))
	assertExpectations(t, pool)
}
