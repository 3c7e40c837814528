package usecase

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/loanledger/internal/domain"
)

// LedgerTransferExecutor posts scheduled transfers as double-entry ledger
// movements between portfolio accounts.
type LedgerTransferExecutor struct {
	txManager    TransactionManager
	accountRepo  AccountRepository
	transferRepo TransferRepository
	entryRepo    EntryRepository
	idGen        IDGenerator
	retrier      Retrier
}

// NewLedgerTransferExecutor creates a new LedgerTransferExecutor.
func NewLedgerTransferExecutor(
	txManager TransactionManager,
	accountRepo AccountRepository,
	transferRepo TransferRepository,
	entryRepo EntryRepository,
	idGen IDGenerator,
	retrier Retrier,
) *LedgerTransferExecutor {
	return &LedgerTransferExecutor{
		txManager:    txManager,
		accountRepo:  accountRepo,
		transferRepo: transferRepo,
		entryRepo:    entryRepo,
		idGen:        idGen,
		retrier:      retrier,
	}
}

// Transfer implements FundTransferExecutor.
func (e *LedgerTransferExecutor) Transfer(ctx context.Context, req domain.TransferRequest) domain.TransferResult {
	var transfer *domain.Transfer

	err := e.retrier.Retry(ctx, func() error {
		var err error
		transfer, err = e.post(ctx, req)
		return err
	})
	if err != nil {
		return domain.TransferFailure(classifyTransferError(err), err)
	}

	return domain.TransferSuccess(transfer.ID)
}

// GetTransfer retrieves a posted transfer with its entries.
func (e *LedgerTransferExecutor) GetTransfer(ctx context.Context, id string) (*domain.Transfer, []*domain.Entry, error) {
	transfer, err := e.transferRepo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	entries, err := e.entryRepo.GetByTransfer(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	return transfer, entries, nil
}

func (e *LedgerTransferExecutor) post(ctx context.Context, req domain.TransferRequest) (*domain.Transfer, error) {
	if req.From.ID == req.To.ID {
		return nil, domain.ErrSameAccount
	}
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidAmount
	}

	ctx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	// Lock in sorted order so concurrent runs never deadlock on each other.
	accountIDs := []string{req.From.ID, req.To.ID}
	sort.Strings(accountIDs)

	tx, err := e.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	accounts, err := e.accountRepo.GetByIDsForUpdate(ctx, tx, accountIDs)
	if err != nil {
		return nil, err
	}

	if len(accounts) != len(accountIDs) {
		return nil, domain.ErrAccountNotFound
	}

	accountMap := make(map[string]*domain.Account, len(accounts))
	for _, a := range accounts {
		accountMap[a.ID] = a
	}

	fromAccount := accountMap[req.From.ID]
	toAccount := accountMap[req.To.ID]
	if fromAccount == nil || toAccount == nil {
		return nil, domain.ErrAccountNotFound
	}

	if fromAccount.Type != req.From.Type || toAccount.Type != req.To.Type {
		return nil, domain.ErrAccountTypeMismatch
	}

	if fromAccount.Currency != toAccount.Currency {
		return nil, domain.ErrCurrencyMismatch
	}

	if err := fromAccount.ValidateDebit(req.Amount); err != nil {
		return nil, err
	}

	if err := toAccount.ValidateCredit(req.Amount); err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	transfer := &domain.Transfer{
		ID:            e.idGen.Generate(),
		FromAccountID: fromAccount.ID,
		ToAccountID:   toAccount.ID,
		Amount:        req.Amount,
		CreatedAt:     now,
		EventAt:       req.TransactionDate,
		Metadata:      req.Metadata(),
	}

	if err := transfer.Validate(); err != nil {
		return nil, err
	}

	if err := e.transferRepo.Create(ctx, tx, transfer); err != nil {
		return nil, err
	}

	if err := e.postEntry(ctx, tx, fromAccount, transfer.ID, req.Amount.Neg(), fromAccount.ApplyDebit(req.Amount), now); err != nil {
		return nil, err
	}

	if err := e.postEntry(ctx, tx, toAccount, transfer.ID, req.Amount, toAccount.ApplyCredit(req.Amount), now); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return transfer, nil
}

// postEntry writes one side of the transfer and moves the account balance
// to newBalance. A negative amount marks the debit side.
func (e *LedgerTransferExecutor) postEntry(
	ctx context.Context,
	tx Transaction,
	account *domain.Account,
	transferID string,
	amount decimal.Decimal,
	newBalance decimal.Decimal,
	now time.Time,
) error {
	entry := &domain.Entry{
		ID:                     e.idGen.Generate(),
		AccountID:              account.ID,
		TransferID:             transferID,
		Amount:                 amount,
		AccountPreviousBalance: account.Balance,
		AccountCurrentBalance:  newBalance,
		AccountVersion:         account.Version + 1,
		CreatedAt:              now,
	}

	if err := e.entryRepo.Create(ctx, tx, entry); err != nil {
		return err
	}

	if err := e.accountRepo.UpdateBalance(ctx, tx, account.ID, newBalance, now); err != nil {
		return err
	}

	account.Balance = newBalance
	account.Version++

	return nil
}

// classifyTransferError maps a posting error onto the executor's result kinds.
func classifyTransferError(err error) domain.TransferResultKind {
	switch {
	case errors.Is(err, domain.ErrNegativeBalanceNotAllowed):
		return domain.TransferInsufficientBalance
	case errors.Is(err, domain.ErrPositiveBalanceNotAllowed),
		errors.Is(err, domain.ErrAccountNotFound),
		errors.Is(err, domain.ErrAccountTypeMismatch),
		errors.Is(err, domain.ErrSameAccount),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrCurrencyMismatch):
		return domain.TransferValidationFailed
	case errors.Is(err, domain.ErrServiceUnavailable),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return domain.TransferServiceUnavailable
	default:
		return domain.TransferFailed
	}
}
