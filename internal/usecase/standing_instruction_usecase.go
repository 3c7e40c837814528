package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/iho/loanledger/internal/domain"
)

// StandingInstructionUseCase manages standing instructions and runs the
// transfers that fall due.
type StandingInstructionUseCase struct {
	repo     StandingInstructionRepository
	history  InstructionHistoryRepository
	dues     LoanDuesReader
	executor FundTransferExecutor
	cadence  CadenceOracle
	idGen    IDGenerator
	retrier  Retrier
	clock    Clock
	location *time.Location
	workers  int
	logger   zerolog.Logger
}

// StandingInstructionConfig wires a StandingInstructionUseCase.
type StandingInstructionConfig struct {
	Repo     StandingInstructionRepository
	History  InstructionHistoryRepository
	Dues     LoanDuesReader
	Executor FundTransferExecutor
	IDGen    IDGenerator
	Retrier  Retrier
	Cadence  CadenceOracle  // defaults to domain.Cadence
	Clock    Clock          // defaults to the system clock
	Location *time.Location // tenant time zone, defaults to UTC
	Workers  int            // instructions processed in parallel
	Logger   zerolog.Logger
}

// NewStandingInstructionUseCase creates a new StandingInstructionUseCase.
func NewStandingInstructionUseCase(cfg StandingInstructionConfig) *StandingInstructionUseCase {
	if cfg.Cadence == nil {
		cfg.Cadence = domain.Cadence{}
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock{}
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultSchedulerWorkers
	}
	if cfg.Retrier == nil {
		cfg.Retrier = noRetry{}
	}

	return &StandingInstructionUseCase{
		repo:     cfg.Repo,
		history:  cfg.History,
		dues:     cfg.Dues,
		executor: cfg.Executor,
		cadence:  cfg.Cadence,
		idGen:    cfg.IDGen,
		retrier:  cfg.Retrier,
		clock:    cfg.Clock,
		location: cfg.Location,
		workers:  cfg.Workers,
		logger:   cfg.Logger,
	}
}

// CreateStandingInstructionInput represents input for creating an instruction.
type CreateStandingInstructionInput struct {
	Name                string
	TransferType        domain.TransferType
	InstructionType     domain.InstructionType
	RecurrenceType      domain.RecurrenceType
	RecurrenceFrequency domain.PeriodFrequency
	RecurrenceInterval  int
	RecurrenceOnDay     int
	RecurrenceOnMonth   int
	ValidFrom           time.Time
	From                domain.AccountRef
	To                  domain.AccountRef
	Amount              *decimal.Decimal
}

// Create validates and stores a new active instruction.
func (uc *StandingInstructionUseCase) Create(ctx context.Context, input CreateStandingInstructionInput) (*domain.StandingInstruction, error) {
	now := uc.clock.Now().UTC()

	si := &domain.StandingInstruction{
		ID:                  uc.idGen.Generate(),
		Name:                input.Name,
		Status:              domain.InstructionStatusActive,
		TransferType:        input.TransferType,
		InstructionType:     input.InstructionType,
		RecurrenceType:      input.RecurrenceType,
		RecurrenceFrequency: input.RecurrenceFrequency,
		RecurrenceInterval:  input.RecurrenceInterval,
		RecurrenceOnDay:     input.RecurrenceOnDay,
		RecurrenceOnMonth:   input.RecurrenceOnMonth,
		ValidFrom:           domain.DateOf(input.ValidFrom),
		From:                input.From,
		To:                  input.To,
		Amount:              input.Amount,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if si.TransferType == "" {
		si.TransferType = domain.TransferTypeAccountTransfer
		if si.To.Type == domain.AccountTypeLoan {
			si.TransferType = domain.TransferTypeLoanRepayment
		}
	}

	if err := si.Validate(); err != nil {
		return nil, err
	}

	if err := uc.repo.Create(ctx, si); err != nil {
		return nil, err
	}

	return si, nil
}

// Get retrieves an instruction by ID.
func (uc *StandingInstructionUseCase) Get(ctx context.Context, id string) (*domain.StandingInstruction, error) {
	return uc.repo.GetByID(ctx, id)
}

// ListStandingInstructionsInput represents input for listing instructions.
type ListStandingInstructionsInput struct {
	Status domain.InstructionStatus
	Limit  int
	Offset int
}

// List lists instructions in the given status, active ones by default.
func (uc *StandingInstructionUseCase) List(ctx context.Context, input ListStandingInstructionsInput) ([]*domain.StandingInstruction, error) {
	if input.Status == "" {
		input.Status = domain.InstructionStatusActive
	}
	limit, offset := clampPage(input.Limit, input.Offset)
	return uc.repo.List(ctx, input.Status, limit, offset)
}

// Delete soft-deletes an instruction. Its history is kept.
func (uc *StandingInstructionUseCase) Delete(ctx context.Context, id string) error {
	si, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if !si.IsActive() {
		return domain.ErrInstructionNotActive
	}

	return uc.repo.UpdateStatus(ctx, id, domain.InstructionStatusDeleted, uc.clock.Now().UTC())
}

// ListHistory lists the recorded transfer attempts of an instruction.
func (uc *StandingInstructionUseCase) ListHistory(ctx context.Context, instructionID string, limit, offset int) ([]*domain.TransferOutcome, error) {
	if _, err := uc.repo.GetByID(ctx, instructionID); err != nil {
		return nil, err
	}
	limit, offset = clampPage(limit, offset)
	return uc.history.ListByInstruction(ctx, instructionID, limit, offset)
}

// Today returns the current business date in the tenant time zone.
func (uc *StandingInstructionUseCase) Today() time.Time {
	return domain.DateOf(uc.clock.Now().In(uc.location))
}

// ExecuteStandingInstructions runs every active instruction for today.
func (uc *StandingInstructionUseCase) ExecuteStandingInstructions(ctx context.Context) (*BatchRunReport, error) {
	return uc.ExecuteStandingInstructionsOn(ctx, uc.Today())
}

// ExecuteStandingInstructionsOn runs every active instruction for runDate.
func (uc *StandingInstructionUseCase) ExecuteStandingInstructionsOn(ctx context.Context, runDate time.Time) (*BatchRunReport, error) {
	instructions, err := uc.repo.FindByStatus(ctx, domain.InstructionStatusActive)
	if err != nil {
		return nil, fmt.Errorf("load active standing instructions: %w", err)
	}

	return uc.RunDueTransfers(ctx, runDate, instructions)
}

// RunDueTransfers executes every instruction that is due on currentDate.
//
// A failing instruction never stops the others. The report is always
// returned; if any instruction failed the error is a *BatchRunError listing
// all of them.
func (uc *StandingInstructionUseCase) RunDueTransfers(
	ctx context.Context,
	currentDate time.Time,
	instructions []*domain.StandingInstruction,
) (*BatchRunReport, error) {
	runDate := domain.DateOf(currentDate)
	report := &BatchRunReport{RunDate: runDate}

	outcomes := make([]instructionRun, len(instructions))

	var g errgroup.Group
	g.SetLimit(uc.workers)

	for i, si := range instructions {
		i, si := i, si
		g.Go(func() error {
			outcomes[i] = uc.runInstruction(ctx, runDate, si)
			return nil
		})
	}
	_ = g.Wait()

	for _, o := range outcomes {
		report.add(o)
	}

	uc.logger.Info().
		Str("run_date", runDate.Format(time.DateOnly)).
		Int("evaluated", report.Evaluated).
		Int("due", report.Due).
		Int("attempted", report.Attempted).
		Int("executed", report.Executed).
		Int("skipped", report.Skipped).
		Int("failed", len(report.Failures)).
		Msg("standing instruction run finished")

	if len(report.Failures) > 0 {
		return report, &BatchRunError{RunDate: runDate, Failures: report.Failures}
	}

	return report, nil
}

// instructionRun is what happened to one instruction during a pass.
type instructionRun struct {
	due       bool
	skipped   bool
	attempted bool
	executed  bool
	amount    decimal.Decimal
	failures  []InstructionFailure
}

func (r *BatchRunReport) add(o instructionRun) {
	r.Evaluated++
	if o.due {
		r.Due++
	}
	if o.skipped {
		r.Skipped++
	}
	if o.attempted {
		r.Attempted++
	}
	if o.executed {
		r.Executed++
		r.ExecutedAmounts = append(r.ExecutedAmounts, o.amount)
	}
	r.Failures = append(r.Failures, o.failures...)
}

func (uc *StandingInstructionUseCase) runInstruction(ctx context.Context, runDate time.Time, si *domain.StandingInstruction) instructionRun {
	var run instructionRun

	due, amount, err := uc.evaluate(ctx, runDate, si)
	if err != nil {
		run.failures = append(run.failures, uc.fail(si, domain.TransferFailed, decimal.Zero, err))
		return run
	}

	run.due = due
	if !due {
		return run
	}
	if amount == nil || !amount.IsPositive() {
		run.skipped = true
		return run
	}

	run.attempted = true

	req := domain.NewInstructionTransferRequest(si, *amount, runDate)
	result := uc.executor.Transfer(ctx, req)
	status, errorLog := domain.OutcomeFromResult(result)

	if result.OK() {
		run.executed = true
		run.amount = *amount
		if si.To.Type == domain.AccountTypeLoan {
			uc.forgetDues(ctx, si.To.ID, runDate)
		}
		err := uc.retrier.Retry(ctx, func() error {
			return uc.repo.RecordLastRun(ctx, si.ID, runDate)
		})
		if err != nil {
			run.failures = append(run.failures,
				uc.fail(si, domain.TransferFailed, *amount, fmt.Errorf("record last run date: %w", err)))
		}
	} else {
		f := InstructionFailure{
			InstructionID: si.ID,
			Name:          si.Name,
			Kind:          result.Kind,
			Amount:        *amount,
			ErrorLog:      errorLog,
			Err:           result.Err,
		}
		uc.logFailure(f)
		run.failures = append(run.failures, f)
	}

	outcome := &domain.TransferOutcome{
		ID:            uc.idGen.Generate(),
		InstructionID: si.ID,
		Status:        status,
		Amount:        *amount,
		ExecutedAt:    uc.clock.Now().UTC(),
		ErrorLog:      errorLog,
	}
	if err := uc.history.Append(ctx, outcome); err != nil {
		err = fmt.Errorf("append transfer history: %w", err)
		if n := len(run.failures); n > 0 {
			uc.logger.Error().Err(err).Str("instruction_id", si.ID).Msg("transfer history not recorded")
			run.failures[n-1] = run.failures[n-1].withCause(err)
		} else {
			run.failures = append(run.failures, uc.fail(si, domain.TransferFailed, *amount, err))
		}
	}

	return run
}

// duesForgetter is implemented by dues readers that cache snapshots.
type duesForgetter interface {
	Forget(ctx context.Context, loanID string, asOf time.Time)
}

// forgetDues drops a cached dues snapshot once a repayment changed it, so a
// second instruction paying the same loan sees the new dues.
func (uc *StandingInstructionUseCase) forgetDues(ctx context.Context, loanID string, asOf time.Time) {
	if f, ok := uc.dues.(duesForgetter); ok {
		f.Forget(ctx, loanID, asOf)
	}
}

// evaluate decides whether si is due on runDate and how much to transfer.
func (uc *StandingInstructionUseCase) evaluate(ctx context.Context, runDate time.Time, si *domain.StandingInstruction) (bool, *decimal.Decimal, error) {
	due := false
	if si.RecurrenceType == domain.RecurrencePeriodic {
		due = uc.cadence.IsDue(si.RecurrenceFrequency, si.RecurrenceInterval, si.AnchorDate(), runDate)
	}

	amount := si.Amount

	needsDues := si.RecurrenceType == domain.RecurrenceDues ||
		(due && si.InstructionType == domain.InstructionDuesAmount)
	if si.To.Type != domain.AccountTypeLoan || !needsDues {
		return due, amount, nil
	}

	dues, err := uc.dues.DuesSnapshot(ctx, si.To.ID, runDate)
	if err != nil {
		return false, nil, fmt.Errorf("loan dues lookup for %s: %w", si.To.ID, err)
	}
	if dues == nil {
		dues = &domain.LoanDues{TotalDueAmount: decimal.Zero}
	}

	if si.InstructionType == domain.InstructionDuesAmount {
		total := dues.TotalDueAmount
		amount = &total
	}

	// The loan's due date replaces the periodic cadence entirely.
	if si.RecurrenceType == domain.RecurrenceDues {
		due = dues.DueDate != nil && domain.DateOf(*dues.DueDate).Equal(runDate)
	}

	return due, amount, nil
}

func (uc *StandingInstructionUseCase) fail(si *domain.StandingInstruction, kind domain.TransferResultKind, amount decimal.Decimal, err error) InstructionFailure {
	f := InstructionFailure{
		InstructionID: si.ID,
		Name:          si.Name,
		Kind:          kind,
		Amount:        amount,
		ErrorLog:      err.Error(),
		Err:           err,
	}
	uc.logFailure(f)
	return f
}

func (uc *StandingInstructionUseCase) logFailure(f InstructionFailure) {
	uc.logger.Error().
		Err(f.Err).
		Str("instruction_id", f.InstructionID).
		Str("kind", f.Kind.String()).
		Str("amount", f.Amount.String()).
		Msg(f.ErrorLog)
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns the current time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

type noRetry struct{}

func (noRetry) Retry(_ context.Context, operation func() error) error {
	return operation()
}
