package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from blocking tables
	DefaultTransactionTimeout = 10 * time.Second

	// DefaultPageSize and MaxPageSize bound list endpoints.
	DefaultPageSize = 20
	MaxPageSize     = 100

	// DefaultSchedulerWorkers processes instructions one at a time.
	DefaultSchedulerWorkers = 1
)

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
