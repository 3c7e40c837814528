package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/loanledger/internal/domain"
	"github.com/iho/loanledger/internal/usecase"
)

// FakeLedger is an in-memory account, transfer and entry store. Writes made
// inside a transaction become visible only when the transaction commits.
type FakeLedger struct {
	mu        sync.RWMutex
	accounts  map[string]*domain.Account
	transfers map[string]*domain.Transfer
	entries   []*domain.Entry

	BeginFunc             func(ctx context.Context) (usecase.Transaction, error)
	GetByIDsForUpdateFunc func(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error)
	CreateTransferFunc    func(ctx context.Context, tx usecase.Transaction, transfer *domain.Transfer) error
}

// NewFakeLedger returns a ledger holding copies of accounts.
func NewFakeLedger(accounts ...*domain.Account) *FakeLedger {
	l := &FakeLedger{
		accounts:  make(map[string]*domain.Account),
		transfers: make(map[string]*domain.Transfer),
	}
	for _, a := range accounts {
		c := *a
		l.accounts[a.ID] = &c
	}
	return l
}

// Accounts exposes the ledger as an AccountRepository.
func (l *FakeLedger) Accounts() usecase.AccountRepository { return fakeAccounts{l} }

// Transfers exposes the ledger as a TransferRepository.
func (l *FakeLedger) Transfers() usecase.TransferRepository { return fakeTransfers{l} }

// Entries exposes the ledger as an EntryRepository.
func (l *FakeLedger) Entries() usecase.EntryRepository { return fakeEntries{l} }

// Balance returns the committed balance of an account.
func (l *FakeLedger) Balance(id string) decimal.Decimal {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if a, ok := l.accounts[id]; ok {
		return a.Balance
	}
	return decimal.Zero
}

// TransferCount returns the number of committed transfers.
func (l *FakeLedger) TransferCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.transfers)
}

// Begin implements usecase.TransactionManager.
func (l *FakeLedger) Begin(ctx context.Context) (usecase.Transaction, error) {
	if l.BeginFunc != nil {
		return l.BeginFunc(ctx)
	}
	return &FakeTx{ledger: l}, nil
}

// FakeTx buffers writes until Commit.
type FakeTx struct {
	ledger    *FakeLedger
	balances  map[string]decimal.Decimal
	transfers []*domain.Transfer
	entries   []*domain.Entry
	done      bool

	CommitFunc func(ctx context.Context) error
}

func (t *FakeTx) Commit(ctx context.Context) error {
	if t.CommitFunc != nil {
		if err := t.CommitFunc(ctx); err != nil {
			return err
		}
	}
	l := t.ledger
	l.mu.Lock()
	defer l.mu.Unlock()
	for id, b := range t.balances {
		l.accounts[id].Balance = b
		l.accounts[id].Version++
	}
	for _, tr := range t.transfers {
		l.transfers[tr.ID] = tr
	}
	l.entries = append(l.entries, t.entries...)
	t.done = true
	return nil
}

func (t *FakeTx) Rollback(ctx context.Context) error {
	t.done = true
	return nil
}

type fakeAccounts struct{ l *FakeLedger }

func (r fakeAccounts) Create(ctx context.Context, account *domain.Account) error {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()
	if _, ok := r.l.accounts[account.ID]; ok {
		return fmt.Errorf("account %s already exists", account.ID)
	}
	c := *account
	r.l.accounts[account.ID] = &c
	return nil
}

func (r fakeAccounts) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	r.l.mu.RLock()
	defer r.l.mu.RUnlock()
	if a, ok := r.l.accounts[id]; ok {
		c := *a
		return &c, nil
	}
	return nil, domain.ErrAccountNotFound
}

func (r fakeAccounts) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error) {
	if r.l.GetByIDsForUpdateFunc != nil {
		return r.l.GetByIDsForUpdateFunc(ctx, tx, ids)
	}
	r.l.mu.RLock()
	defer r.l.mu.RUnlock()
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	var accounts []*domain.Account
	for _, id := range sorted {
		if a, ok := r.l.accounts[id]; ok {
			c := *a
			accounts = append(accounts, &c)
		}
	}
	return accounts, nil
}

func (r fakeAccounts) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error {
	ftx := tx.(*FakeTx)
	if ftx.balances == nil {
		ftx.balances = make(map[string]decimal.Decimal)
	}
	ftx.balances[id] = balance
	return nil
}

type fakeTransfers struct{ l *FakeLedger }

func (r fakeTransfers) Create(ctx context.Context, tx usecase.Transaction, transfer *domain.Transfer) error {
	if r.l.CreateTransferFunc != nil {
		if err := r.l.CreateTransferFunc(ctx, tx, transfer); err != nil {
			return err
		}
	}
	ftx := tx.(*FakeTx)
	ftx.transfers = append(ftx.transfers, transfer)
	return nil
}

func (r fakeTransfers) GetByID(ctx context.Context, id string) (*domain.Transfer, error) {
	r.l.mu.RLock()
	defer r.l.mu.RUnlock()
	if t, ok := r.l.transfers[id]; ok {
		return t, nil
	}
	return nil, domain.ErrTransferNotFound
}

type fakeEntries struct{ l *FakeLedger }

func (r fakeEntries) Create(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) error {
	ftx := tx.(*FakeTx)
	ftx.entries = append(ftx.entries, entry)
	return nil
}

func (r fakeEntries) GetByTransfer(ctx context.Context, transferID string) ([]*domain.Entry, error) {
	r.l.mu.RLock()
	defer r.l.mu.RUnlock()
	var entries []*domain.Entry
	for _, e := range r.l.entries {
		if e.TransferID == transferID {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

// FakeHistory is a concurrency-safe in-memory history sink.
type FakeHistory struct {
	mu       sync.Mutex
	outcomes []*domain.TransferOutcome

	AppendFunc func(ctx context.Context, outcome *domain.TransferOutcome) error
}

func NewFakeHistory() *FakeHistory {
	return &FakeHistory{}
}

func (h *FakeHistory) Append(ctx context.Context, outcome *domain.TransferOutcome) error {
	if h.AppendFunc != nil {
		if err := h.AppendFunc(ctx, outcome); err != nil {
			return err
		}
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.outcomes = append(h.outcomes, outcome)
	return nil
}

func (h *FakeHistory) ListByInstruction(ctx context.Context, instructionID string, limit, offset int) ([]*domain.TransferOutcome, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []*domain.TransferOutcome
	for _, o := range h.outcomes {
		if o.InstructionID == instructionID {
			out = append(out, o)
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// Outcomes returns every appended row, in no particular order.
func (h *FakeHistory) Outcomes() []*domain.TransferOutcome {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*domain.TransferOutcome(nil), h.outcomes...)
}

// FakeIDGenerator returns prefix-1, prefix-2, ...
type FakeIDGenerator struct {
	Prefix  string
	mu      sync.Mutex
	counter int
}

func NewFakeIDGenerator(prefix string) *FakeIDGenerator {
	return &FakeIDGenerator{Prefix: prefix}
}

func (g *FakeIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counter++
	return fmt.Sprintf("%s-%d", g.Prefix, g.counter)
}

// FixedClock always returns the same instant.
type FixedClock struct {
	At time.Time
}

func (c FixedClock) Now() time.Time {
	return c.At
}

// PassthroughRetrier runs the operation once.
type PassthroughRetrier struct{}

func (PassthroughRetrier) Retry(_ context.Context, operation func() error) error {
	return operation()
}
