package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/loanledger/internal/domain"
)

// AccountUseCase opens and reads portfolio accounts.
type AccountUseCase struct {
	accountRepo AccountRepository
	idGen       IDGenerator
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(accountRepo AccountRepository, idGen IDGenerator) *AccountUseCase {
	return &AccountUseCase{
		accountRepo: accountRepo,
		idGen:       idGen,
	}
}

// OpenAccountInput represents input for opening an account.
type OpenAccountInput struct {
	// ID is optional. Loan accounts are usually opened under the loan's ID.
	ID       string
	Type     domain.AccountType
	Name     string
	Currency string
}

// OpenAccount opens an account with a zero balance.
//
// Savings accounts may never go negative. Loan accounts go negative when
// principal is disbursed and may never go positive, so repayments stop at
// the outstanding amount.
func (uc *AccountUseCase) OpenAccount(ctx context.Context, input OpenAccountInput) (*domain.Account, error) {
	if !input.Type.IsValid() {
		return nil, fmt.Errorf("%w: unknown account type %q", domain.ErrUnsupportedTransfer, input.Type)
	}
	if err := domain.ValidateCurrency(input.Currency); err != nil {
		return nil, err
	}

	id := input.ID
	if id == "" {
		id = uc.idGen.Generate()
	}

	now := time.Now().UTC()

	account := &domain.Account{
		ID:                   id,
		Type:                 input.Type,
		Name:                 input.Name,
		Currency:             input.Currency,
		Balance:              decimal.Zero,
		AllowNegativeBalance: input.Type == domain.AccountTypeLoan,
		AllowPositiveBalance: input.Type == domain.AccountTypeSavings,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	if err := uc.accountRepo.Create(ctx, account); err != nil {
		return nil, err
	}

	return account, nil
}

// GetAccount retrieves an account by ID.
func (uc *AccountUseCase) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	return uc.accountRepo.GetByID(ctx, id)
}
