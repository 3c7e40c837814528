package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iho/loanledger/internal/domain"
	"github.com/iho/loanledger/internal/usecase"
)

// EntryRepository implements usecase.EntryRepository.
type EntryRepository struct {
	db DBTX
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(db DBTX) *EntryRepository {
	return &EntryRepository{db: db}
}

// Create creates a new entry.
func (r *EntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) error {
	_, err := txConn(tx).Exec(ctx, `
		INSERT INTO entries (
			id, account_id, transfer_id, amount,
			account_previous_balance, account_current_balance, account_version, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		entry.ID,
		entry.AccountID,
		entry.TransferID,
		decimalToNumeric(entry.Amount),
		decimalToNumeric(entry.AccountPreviousBalance),
		decimalToNumeric(entry.AccountCurrentBalance),
		entry.AccountVersion,
		entry.CreatedAt,
	)

	return err
}

// GetByTransfer retrieves entries by transfer ID, debit side first.
func (r *EntryRepository) GetByTransfer(ctx context.Context, transferID string) ([]*domain.Entry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, account_id, transfer_id, amount,
		       account_previous_balance, account_current_balance, account_version, created_at
		FROM entries
		WHERE transfer_id = $1
		ORDER BY amount, id`, transferID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.Entry
	for rows.Next() {
		var (
			e                      domain.Entry
			amount, previous, curr pgtype.Numeric
		)

		if err := rows.Scan(
			&e.ID,
			&e.AccountID,
			&e.TransferID,
			&amount,
			&previous,
			&curr,
			&e.AccountVersion,
			&e.CreatedAt,
		); err != nil {
			return nil, err
		}

		e.Amount = numericToDecimal(amount)
		e.AccountPreviousBalance = numericToDecimal(previous)
		e.AccountCurrentBalance = numericToDecimal(curr)
		entries = append(entries, &e)
	}

	return entries, rows.Err()
}
