package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/loanledger/internal/domain"
)

// StandingInstructionRepository defines data access for standing instructions.
type StandingInstructionRepository interface {
	Create(ctx context.Context, si *domain.StandingInstruction) error
	GetByID(ctx context.Context, id string) (*domain.StandingInstruction, error)
	List(ctx context.Context, status domain.InstructionStatus, limit, offset int) ([]*domain.StandingInstruction, error)
	FindByStatus(ctx context.Context, status domain.InstructionStatus) ([]*domain.StandingInstruction, error)
	RecordLastRun(ctx context.Context, id string, runDate time.Time) error
	UpdateStatus(ctx context.Context, id string, status domain.InstructionStatus, updatedAt time.Time) error
}

// InstructionHistoryRepository is the append-only sink for transfer attempts.
type InstructionHistoryRepository interface {
	Append(ctx context.Context, outcome *domain.TransferOutcome) error
	ListByInstruction(ctx context.Context, instructionID string, limit, offset int) ([]*domain.TransferOutcome, error)
}

// LoanDuesReader reads the amount currently due on a loan.
type LoanDuesReader interface {
	DuesSnapshot(ctx context.Context, loanID string, asOf time.Time) (*domain.LoanDues, error)
}

// FundTransferExecutor moves money between two portfolio accounts. Failures
// are reported through the result kind, never as a panic or an error return.
type FundTransferExecutor interface {
	Transfer(ctx context.Context, req domain.TransferRequest) domain.TransferResult
}

// CadenceOracle decides whether a date falls on a periodic cadence.
type CadenceOracle interface {
	IsDue(frequency domain.PeriodFrequency, interval int, anchor, candidate time.Time) bool
}

// ScheduleArchiveRepository reads archived repayment schedule versions.
type ScheduleArchiveRepository interface {
	MaxVersion(ctx context.Context, loanID string) (int, error)
	RowsForVersion(ctx context.Context, loanID string, version int) ([]domain.HistoricalScheduleRow, error)
}

// LoanRepository defines the loan data needed for schedule reconstruction.
type LoanRepository interface {
	GetScheduleData(ctx context.Context, loanID string) (*domain.LoanScheduleData, error)
	ListDisbursements(ctx context.Context, loanID string) ([]domain.DisbursementEvent, error)
}

// AccountRepository defines data access for portfolio accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByIDsForUpdate(ctx context.Context, tx Transaction, ids []string) ([]*domain.Account, error)
	UpdateBalance(ctx context.Context, tx Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error
}

// TransferRepository defines data access for transfers.
type TransferRepository interface {
	Create(ctx context.Context, tx Transaction, transfer *domain.Transfer) error
	GetByID(ctx context.Context, id string) (*domain.Transfer, error)
}

// EntryRepository defines data access for entries.
type EntryRepository interface {
	Create(ctx context.Context, tx Transaction, entry *domain.Entry) error
	GetByTransfer(ctx context.Context, transferID string) ([]*domain.Entry, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Retrier retries operations that failed on transient database conflicts.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// RunLock makes sure only one process runs the scheduler for a given key.
type RunLock interface {
	// Acquire returns false if the key is already held.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Extend resets the expiry of a held key. It returns false if the key
	// is no longer ours.
	Extend(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// Cache defines caching operations. Get returns a nil value and no error
// when the key is absent.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
