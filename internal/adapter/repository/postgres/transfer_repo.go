package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iho/loanledger/internal/domain"
	"github.com/iho/loanledger/internal/usecase"
)

// TransferRepository implements usecase.TransferRepository.
type TransferRepository struct {
	db DBTX
}

// NewTransferRepository creates a new TransferRepository.
func NewTransferRepository(db DBTX) *TransferRepository {
	return &TransferRepository{db: db}
}

// Create creates a new transfer.
func (r *TransferRepository) Create(ctx context.Context, tx usecase.Transaction, transfer *domain.Transfer) error {
	var metadata []byte
	if transfer.Metadata != nil {
		var err error

		metadata, err = json.Marshal(transfer.Metadata)
		if err != nil {
			return err
		}
	}

	_, err := txConn(tx).Exec(ctx, `
		INSERT INTO transfers (id, from_account_id, to_account_id, amount, created_at, event_at, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		transfer.ID,
		transfer.FromAccountID,
		transfer.ToAccountID,
		decimalToNumeric(transfer.Amount),
		transfer.CreatedAt,
		transfer.EventAt,
		metadata,
	)

	return err
}

// GetByID retrieves a transfer by ID.
func (r *TransferRepository) GetByID(ctx context.Context, id string) (*domain.Transfer, error) {
	var (
		t        domain.Transfer
		amount   pgtype.Numeric
		metadata []byte
	)

	err := r.db.QueryRow(ctx, `
		SELECT id, from_account_id, to_account_id, amount, created_at, event_at, metadata
		FROM transfers
		WHERE id = $1`, id).Scan(
		&t.ID,
		&t.FromAccountID,
		&t.ToAccountID,
		&amount,
		&t.CreatedAt,
		&t.EventAt,
		&metadata,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransferNotFound
		}

		return nil, err
	}

	t.Amount = numericToDecimal(amount)
	if metadata != nil {
		if err := json.Unmarshal(metadata, &t.Metadata); err != nil {
			return nil, err
		}
	}

	return &t, nil
}
