package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/loanledger/internal/domain"
	"github.com/iho/loanledger/internal/infrastructure/metrics"
	"github.com/iho/loanledger/internal/usecase"
)

// completedRunTTL keeps the lock of a finished run date long enough that no
// later tick of the same tenant day runs it again.
const completedRunTTL = 48 * time.Hour

// Job is the standing instruction pass driven by the Runner.
type Job interface {
	Today() time.Time
	ExecuteStandingInstructionsOn(ctx context.Context, runDate time.Time) (*usecase.BatchRunReport, error)
}

// Runner runs the standing instruction pass once per tenant business day.
type Runner struct {
	job      Job
	lock     usecase.RunLock
	metrics  *metrics.Metrics
	logger   zerolog.Logger
	interval time.Duration
	lockTTL  time.Duration
}

// Config for Runner.
type Config struct {
	Job      Job
	Lock     usecase.RunLock
	Metrics  *metrics.Metrics // optional
	Logger   zerolog.Logger
	Interval time.Duration // how often the runner checks for a new business day
	LockTTL  time.Duration // how long a crashed run keeps its date locked; refreshed while a pass runs
}

// NewRunner creates a new Runner.
func NewRunner(cfg Config) *Runner {
	if cfg.Interval == 0 {
		cfg.Interval = time.Hour
	}
	if cfg.LockTTL == 0 {
		cfg.LockTTL = 30 * time.Minute
	}
	if cfg.Lock == nil {
		cfg.Lock = newLocalLock()
	}

	return &Runner{
		job:      cfg.Job,
		lock:     cfg.Lock,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger,
		interval: cfg.Interval,
		lockTTL:  cfg.LockTTL,
	}
}

// Start runs the scheduler until the context is cancelled.
func (r *Runner) Start(ctx context.Context) error {
	r.logger.Info().
		Dur("interval", r.interval).
		Dur("lock_ttl", r.lockTTL).
		Msg("standing instruction scheduler started")

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	// Run immediately on start
	r.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("standing instruction scheduler shutting down")
			return ctx.Err()
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

func (r *Runner) tick(ctx context.Context) {
	_, err := r.RunOnce(ctx)
	if err == nil || errors.Is(err, domain.ErrRunAlreadyTaken) {
		return
	}

	var batchErr *usecase.BatchRunError
	if errors.As(err, &batchErr) {
		// Failures were already logged one by one.
		return
	}
	r.logger.Error().Err(err).Msg("standing instruction run failed")
}

// RunOnce runs the pass for the current tenant business date.
func (r *Runner) RunOnce(ctx context.Context) (*usecase.BatchRunReport, error) {
	return r.RunDate(ctx, r.job.Today())
}

// RunDate runs the pass for runDate unless another run already took that
// date. A pass that could not start releases the date so the next tick
// retries it; any other pass keeps the date, including one with failed
// instructions.
func (r *Runner) RunDate(ctx context.Context, runDate time.Time) (*usecase.BatchRunReport, error) {
	runDate = domain.DateOf(runDate)
	key := "standing-instructions:" + runDate.Format(time.DateOnly)
	log := r.logger.With().Str("run_date", runDate.Format(time.DateOnly)).Logger()

	ok, err := r.lock.Acquire(ctx, key, r.lockTTL)
	if err != nil {
		r.countRun(metrics.RunError)
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		r.countRun(metrics.RunLocked)
		log.Debug().Msg("standing instruction run already taken")
		return nil, fmt.Errorf("%w: %s", domain.ErrRunAlreadyTaken, runDate.Format(time.DateOnly))
	}

	passCtx, cancel := context.WithCancel(ctx)
	stopRefresh := r.refreshLock(passCtx, cancel, key, log)

	start := time.Now()
	report, err := r.job.ExecuteStandingInstructionsOn(passCtx, runDate)
	elapsed := time.Since(start)

	stopRefresh()
	cancel()

	result := classify(report, err)
	r.record(report, result, elapsed)

	// The lock outlives a cancelled ctx during shutdown.
	lockCtx := context.WithoutCancel(ctx)
	if result == metrics.RunError {
		if relErr := r.lock.Release(lockCtx, key); relErr != nil {
			log.Warn().Err(relErr).Msg("failed to release run lock")
		}
	} else if held, extErr := r.lock.Extend(lockCtx, key, completedRunTTL); extErr != nil || !held {
		log.Warn().Err(extErr).Bool("held", held).Msg("failed to keep run lock for completed date")
	}

	log.Info().
		Str("result", result).
		Dur("duration", elapsed).
		Msg("standing instruction pass done")

	return report, err
}

// refreshLock extends the run lock every third of its TTL for as long as the
// pass runs. If another holder took the key the pass is cancelled. The
// returned func stops the refresh and waits for it.
func (r *Runner) refreshLock(ctx context.Context, cancel context.CancelFunc, key string, log zerolog.Logger) func() {
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()

		ticker := time.NewTicker(r.lockTTL / 3)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				held, err := r.lock.Extend(ctx, key, r.lockTTL)
				if err != nil {
					log.Warn().Err(err).Msg("failed to refresh run lock")
					continue
				}
				if !held {
					log.Error().Msg("run lock lost during pass, stopping")
					cancel()
					return
				}
			}
		}
	}()

	return func() {
		close(done)
		wg.Wait()
	}
}

func classify(report *usecase.BatchRunReport, err error) string {
	switch {
	case err == nil:
		return metrics.RunCompleted
	case report != nil:
		return metrics.RunPartialFailure
	default:
		return metrics.RunError
	}
}

func (r *Runner) countRun(result string) {
	if r.metrics == nil {
		return
	}
	r.metrics.SchedulerRuns.WithLabelValues(result).Inc()
}

func (r *Runner) record(report *usecase.BatchRunReport, result string, elapsed time.Duration) {
	if r.metrics == nil {
		return
	}

	m := r.metrics
	m.SchedulerRuns.WithLabelValues(result).Inc()
	m.SchedulerRunDuration.Observe(elapsed.Seconds())
	m.SchedulerLastRun.SetToCurrentTime()

	if report == nil {
		return
	}
	m.InstructionsEvaluated.Add(float64(report.Evaluated))
	m.InstructionsDue.Add(float64(report.Due))
	m.TransfersExecuted.Add(float64(report.Executed))
	m.TransfersSkipped.Add(float64(report.Skipped))
	for _, f := range report.Failures {
		m.TransferFailures.WithLabelValues(f.Kind.String()).Inc()
	}
	for _, amount := range report.ExecutedAmounts {
		m.TransferAmount.Observe(amount.InexactFloat64())
	}
}

// localLock stands in for the redis lock when a single process runs the
// scheduler. Keys expire like their redis counterparts.
type localLock struct {
	mu   sync.Mutex
	held map[string]time.Time
}

func newLocalLock() *localLock {
	return &localLock{held: make(map[string]time.Time)}
}

func (l *localLock) Acquire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if until, ok := l.held[key]; ok && now.Before(until) {
		return false, nil
	}
	l.held[key] = now.Add(ttl)
	return true, nil
}

func (l *localLock) Extend(_ context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if until, ok := l.held[key]; !ok || !now.Before(until) {
		return false, nil
	}
	l.held[key] = now.Add(ttl)
	return true, nil
}

func (l *localLock) Release(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.held, key)
	return nil
}
