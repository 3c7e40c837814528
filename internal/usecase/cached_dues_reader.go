package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/loanledger/internal/domain"
)

// CachedDuesReader serves loan dues snapshots from a cache before asking the
// underlying reader. Cache failures fall through to the reader.
type CachedDuesReader struct {
	inner    LoanDuesReader
	cache    Cache
	ttl      time.Duration
	onLookup func(hit bool)
}

// NewCachedDuesReader creates a new CachedDuesReader. onLookup may be nil.
func NewCachedDuesReader(inner LoanDuesReader, cache Cache, ttl time.Duration, onLookup func(hit bool)) *CachedDuesReader {
	if onLookup == nil {
		onLookup = func(bool) {}
	}

	return &CachedDuesReader{
		inner:    inner,
		cache:    cache,
		ttl:      ttl,
		onLookup: onLookup,
	}
}

type cachedDues struct {
	TotalDueAmount decimal.Decimal `json:"total_due_amount"`
	DueDate        *time.Time      `json:"due_date,omitempty"`
}

// DuesSnapshot implements LoanDuesReader.
func (r *CachedDuesReader) DuesSnapshot(ctx context.Context, loanID string, asOf time.Time) (*domain.LoanDues, error) {
	key := duesCacheKey(loanID, asOf)

	if raw, err := r.cache.Get(ctx, key); err == nil && raw != nil {
		var cached cachedDues
		if json.Unmarshal(raw, &cached) == nil {
			r.onLookup(true)
			return &domain.LoanDues{TotalDueAmount: cached.TotalDueAmount, DueDate: cached.DueDate}, nil
		}
	}
	r.onLookup(false)

	dues, err := r.inner.DuesSnapshot(ctx, loanID, asOf)
	if err != nil || dues == nil {
		return dues, err
	}

	if raw, err := json.Marshal(cachedDues{TotalDueAmount: dues.TotalDueAmount, DueDate: dues.DueDate}); err == nil {
		_ = r.cache.Set(ctx, key, raw, r.ttl)
	}

	return dues, nil
}

// Forget drops the cached snapshot of a loan for asOf.
func (r *CachedDuesReader) Forget(ctx context.Context, loanID string, asOf time.Time) {
	_ = r.cache.Delete(ctx, duesCacheKey(loanID, asOf))
}

func duesCacheKey(loanID string, asOf time.Time) string {
	return "dues:" + loanID + ":" + asOf.Format(time.DateOnly)
}
