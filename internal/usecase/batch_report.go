package usecase

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/loanledger/internal/domain"
)

// BatchRunReport summarises one scheduler pass.
type BatchRunReport struct {
	RunDate time.Time
	// Evaluated counts instructions looked at, Due those whose cadence (or
	// loan due date) matched, Attempted those handed to the executor and
	// Executed those whose transfer was posted.
	Evaluated int
	Due       int
	Attempted int
	Executed  int
	// Skipped counts due instructions without a positive amount.
	Skipped int
	// ExecutedAmounts holds the amount of every posted transfer.
	ExecutedAmounts []decimal.Decimal
	Failures        []InstructionFailure
}

// ExecutedCount is the number of successful transfers in the pass.
func (r *BatchRunReport) ExecutedCount() int {
	return r.Executed
}

// InstructionFailure describes why one instruction did not complete.
type InstructionFailure struct {
	InstructionID string
	Name          string
	Kind          domain.TransferResultKind
	Amount        decimal.Decimal
	ErrorLog      string
	Err           error
}

func (f InstructionFailure) Error() string {
	return fmt.Sprintf("standing instruction %s (%s): %s", f.InstructionID, f.Name, f.ErrorLog)
}

func (f InstructionFailure) Unwrap() error {
	return f.Err
}

// withCause attaches a later error for the same instruction. The kind of
// the first failure is kept.
func (f InstructionFailure) withCause(err error) InstructionFailure {
	f.ErrorLog += "; " + err.Error()
	f.Err = errors.Join(f.Err, err)
	return f
}

// BatchRunError is returned after a pass in which at least one instruction
// failed. Transfers that succeeded in the same pass are not rolled back.
type BatchRunError struct {
	RunDate  time.Time
	Failures []InstructionFailure
}

func (e *BatchRunError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "standing instruction run %s: %d failed", e.RunDate.Format(time.DateOnly), len(e.Failures))
	for _, f := range e.Failures {
		b.WriteString("; ")
		b.WriteString(f.Error())
	}
	return b.String()
}

// Unwrap exposes every failure to errors.Is and errors.As.
func (e *BatchRunError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f)
	}
	return errs
}
