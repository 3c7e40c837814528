package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/loanledger/internal/domain"
	"github.com/iho/loanledger/internal/infrastructure/metrics"
	"github.com/iho/loanledger/internal/usecase"
)

type stubJob struct {
	mu        sync.Mutex
	today     time.Time
	runs      []time.Time
	report    *usecase.BatchRunReport
	err       error
	delay     time.Duration
	cancelled bool
}

func (j *stubJob) Today() time.Time {
	return j.today
}

func (j *stubJob) ExecuteStandingInstructionsOn(ctx context.Context, runDate time.Time) (*usecase.BatchRunReport, error) {
	if j.delay > 0 {
		select {
		case <-time.After(j.delay):
		case <-ctx.Done():
			j.mu.Lock()
			j.cancelled = true
			j.runs = append(j.runs, runDate)
			j.mu.Unlock()
			return nil, ctx.Err()
		}
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	j.runs = append(j.runs, runDate)
	return j.report, j.err
}

func (j *stubJob) runCount() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.runs)
}

type stubLock struct {
	mu         sync.Mutex
	acquireErr error
	taken      bool
	lost       bool
	released   []string
	extended   map[string]time.Duration
	extendTTLs []time.Duration
}

func (l *stubLock) Acquire(context.Context, string, time.Duration) (bool, error) {
	if l.acquireErr != nil {
		return false, l.acquireErr
	}
	return !l.taken, nil
}

func (l *stubLock) Extend(_ context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.extended == nil {
		l.extended = make(map[string]time.Duration)
	}
	l.extended[key] = ttl
	l.extendTTLs = append(l.extendTTLs, ttl)
	return !l.lost, nil
}

func (l *stubLock) Release(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.released = append(l.released, key)
	return nil
}

func newTestRunner(job Job, lock usecase.RunLock) (*Runner, *metrics.Metrics) {
	m := metrics.New(prometheus.NewRegistry())
	r := NewRunner(Config{
		Job:     job,
		Lock:    lock,
		Metrics: m,
		Logger:  zerolog.Nop(),
	})
	return r, m
}

func TestRunOnceRecordsReport(t *testing.T) {
	job := &stubJob{
		today: domain.Date(2024, 2, 15),
		report: &usecase.BatchRunReport{
			RunDate:         domain.Date(2024, 2, 15),
			Evaluated:       5,
			Due:             3,
			Attempted:       2,
			Executed:        2,
			Skipped:         1,
			ExecutedAmounts: []decimal.Decimal{decimal.NewFromInt(100), decimal.NewFromInt(250)},
		},
	}
	lock := &stubLock{}
	r, m := newTestRunner(job, lock)

	report, err := r.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}
	if report.Executed != 2 {
		t.Fatalf("expected report to be returned, got %+v", report)
	}

	if got := testutil.ToFloat64(m.SchedulerRuns.WithLabelValues(metrics.RunCompleted)); got != 1 {
		t.Errorf("completed runs = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.InstructionsEvaluated); got != 5 {
		t.Errorf("evaluated = %v, want 5", got)
	}
	if got := testutil.ToFloat64(m.InstructionsDue); got != 3 {
		t.Errorf("due = %v, want 3", got)
	}
	if got := testutil.ToFloat64(m.TransfersExecuted); got != 2 {
		t.Errorf("executed = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.TransfersSkipped); got != 1 {
		t.Errorf("skipped = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(m.TransferAmount); got != 1 {
		t.Errorf("expected transfer amount histogram to be collected, got %d", got)
	}

	key := "standing-instructions:2024-02-15"
	if lock.extended[key] != completedRunTTL {
		t.Errorf("expected completed date to stay locked, got %v", lock.extended)
	}
	if len(lock.released) != 0 {
		t.Errorf("completed run must not release its date, released %v", lock.released)
	}
}

func TestRunOncePartialFailureKeepsDate(t *testing.T) {
	failure := usecase.InstructionFailure{
		InstructionID: "si-1",
		Kind:          domain.TransferInsufficientBalance,
		ErrorLog:      "InSufficient balance from account.",
	}
	job := &stubJob{
		today: domain.Date(2024, 2, 15),
		report: &usecase.BatchRunReport{
			Evaluated: 1,
			Due:       1,
			Attempted: 1,
			Failures:  []usecase.InstructionFailure{failure},
		},
		err: &usecase.BatchRunError{RunDate: domain.Date(2024, 2, 15), Failures: []usecase.InstructionFailure{failure}},
	}
	lock := &stubLock{}
	r, m := newTestRunner(job, lock)

	_, err := r.RunOnce(context.Background())
	var batchErr *usecase.BatchRunError
	if !errors.As(err, &batchErr) {
		t.Fatalf("expected batch error, got %v", err)
	}

	if got := testutil.ToFloat64(m.SchedulerRuns.WithLabelValues(metrics.RunPartialFailure)); got != 1 {
		t.Errorf("partial failure runs = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.TransferFailures.WithLabelValues(domain.TransferInsufficientBalance.String())); got != 1 {
		t.Errorf("insufficient balance failures = %v, want 1", got)
	}
	if len(lock.released) != 0 {
		t.Errorf("partial failure must not release its date, released %v", lock.released)
	}
}

func TestRunOnceErrorReleasesDate(t *testing.T) {
	job := &stubJob{
		today: domain.Date(2024, 2, 15),
		err:   errors.New("load active standing instructions: connection refused"),
	}
	lock := &stubLock{}
	r, m := newTestRunner(job, lock)

	if _, err := r.RunOnce(context.Background()); err == nil {
		t.Fatal("expected error")
	}

	if got := testutil.ToFloat64(m.SchedulerRuns.WithLabelValues(metrics.RunError)); got != 1 {
		t.Errorf("error runs = %v, want 1", got)
	}
	if len(lock.released) != 1 || lock.released[0] != "standing-instructions:2024-02-15" {
		t.Errorf("expected date to be released for a retry, got %v", lock.released)
	}
}

func TestRunOnceSkipsTakenDate(t *testing.T) {
	job := &stubJob{today: domain.Date(2024, 2, 15)}
	r, m := newTestRunner(job, &stubLock{taken: true})

	_, err := r.RunOnce(context.Background())
	if !errors.Is(err, domain.ErrRunAlreadyTaken) {
		t.Fatalf("expected ErrRunAlreadyTaken, got %v", err)
	}
	if job.runCount() != 0 {
		t.Fatalf("job must not run while the date is taken")
	}
	if got := testutil.ToFloat64(m.SchedulerRuns.WithLabelValues(metrics.RunLocked)); got != 1 {
		t.Errorf("locked runs = %v, want 1", got)
	}
}

func TestRunOnceLockError(t *testing.T) {
	job := &stubJob{today: domain.Date(2024, 2, 15)}
	r, _ := newTestRunner(job, &stubLock{acquireErr: errors.New("redis down")})

	if _, err := r.RunOnce(context.Background()); err == nil {
		t.Fatal("expected error when the lock cannot be reached")
	}
	if job.runCount() != 0 {
		t.Fatalf("job must not run without the lock")
	}
}

func TestLocalLockRunsEachDateOnce(t *testing.T) {
	job := &stubJob{
		today:  domain.Date(2024, 2, 15),
		report: &usecase.BatchRunReport{},
	}
	r := NewRunner(Config{Job: job, Logger: zerolog.Nop()})

	if _, err := r.RunOnce(context.Background()); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	if _, err := r.RunOnce(context.Background()); !errors.Is(err, domain.ErrRunAlreadyTaken) {
		t.Fatalf("expected second run of the same date to be skipped, got %v", err)
	}
	if _, err := r.RunDate(context.Background(), domain.Date(2024, 2, 16)); err != nil {
		t.Fatalf("next date failed: %v", err)
	}
	if job.runCount() != 2 {
		t.Fatalf("expected 2 runs, got %d", job.runCount())
	}
}

func TestStartStopsOnContextCancellation(t *testing.T) {
	job := &stubJob{today: domain.Date(2024, 2, 15), report: &usecase.BatchRunReport{}}
	r := NewRunner(Config{Job: job, Logger: zerolog.Nop(), Interval: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- r.Start(ctx)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after cancel")
	}

	if got := job.runCount(); got != 1 {
		t.Fatalf("expected one run per business date across ticks, got %d", got)
	}
}

func TestRunDateRefreshesLockDuringLongPass(t *testing.T) {
	job := &stubJob{
		today:  domain.Date(2024, 2, 15),
		report: &usecase.BatchRunReport{},
		delay:  100 * time.Millisecond,
	}
	lock := &stubLock{}
	r := NewRunner(Config{Job: job, Lock: lock, Logger: zerolog.Nop(), LockTTL: 15 * time.Millisecond})

	if _, err := r.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}

	refreshes := 0
	for _, ttl := range lock.extendTTLs {
		if ttl == 15*time.Millisecond {
			refreshes++
		}
	}
	if refreshes == 0 {
		t.Fatalf("expected the lock to be refreshed while the pass ran, got extends %v", lock.extendTTLs)
	}
	if last := lock.extendTTLs[len(lock.extendTTLs)-1]; last != completedRunTTL {
		t.Errorf("last extend = %v, want %v", last, completedRunTTL)
	}
}

func TestRunDateStopsPassWhenLockIsLost(t *testing.T) {
	job := &stubJob{
		today:  domain.Date(2024, 2, 15),
		report: &usecase.BatchRunReport{},
		delay:  time.Second,
	}
	lock := &stubLock{lost: true}
	r := NewRunner(Config{Job: job, Lock: lock, Logger: zerolog.Nop(), LockTTL: 15 * time.Millisecond})

	start := time.Now()
	_, err := r.RunOnce(context.Background())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected the pass to be cancelled, got %v", err)
	}
	if time.Since(start) >= time.Second {
		t.Fatal("pass kept running after the lock was lost")
	}

	job.mu.Lock()
	defer job.mu.Unlock()
	if !job.cancelled {
		t.Fatal("job context was not cancelled")
	}
}
