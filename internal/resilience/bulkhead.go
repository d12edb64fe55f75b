package resilience

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Bulkhead limits concurrent calls to a slow dependency using a weighted
// semaphore. Callers wait for a free slot until their context ends.
type Bulkhead struct {
	sem *semaphore.Weighted
}

// NewBulkhead creates a Bulkhead that allows at most limit concurrent calls.
func NewBulkhead(limit int) *Bulkhead {
	if limit < 1 {
		limit = 1
	}
	return &Bulkhead{sem: semaphore.NewWeighted(int64(limit))}
}

// Run acquires a slot, runs fn, and releases the slot. It returns ctx.Err()
// if ctx ends while waiting. A nil Bulkhead runs fn directly.
func (b *Bulkhead) Run(ctx context.Context, fn func(context.Context) error) error {
	if b == nil || b.sem == nil {
		return fn(ctx)
	}
	if err := b.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer b.sem.Release(1)
	return fn(ctx)
}
