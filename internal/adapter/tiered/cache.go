// Package tiered implements a two-level (L1 + L2) plan cache.
package tiered

import (
	"context"

	"github.com/Strob0t/PlanForge/internal/domain/plan"
	"github.com/Strob0t/PlanForge/internal/port/cache"
)

// Cache combines an L1 (in-process) and L2 (shared) plan cache.
// Get checks L1 first, then L2 (backfilling L1 on L2 hit).
// Set and Delete operate on both levels.
type Cache struct {
	l1 cache.PlanCache
	l2 cache.PlanCache
}

// New creates a tiered cache with the given L1 and L2 backends.
func New(l1, l2 cache.PlanCache) *Cache {
	return &Cache{l1: l1, l2: l2}
}

// Get checks L1, then L2. On L2 hit, backfills L1.
func (c *Cache) Get(ctx context.Context, id string) (*plan.Plan, bool) {
	if p, ok := c.l1.Get(ctx, id); ok {
		return p, true
	}
	p, ok := c.l2.Get(ctx, id)
	if !ok {
		return nil, false
	}
	c.l1.Set(ctx, p)
	return p, true
}

// Set writes to both L1 and L2.
func (c *Cache) Set(ctx context.Context, p *plan.Plan) {
	c.l1.Set(ctx, p)
	c.l2.Set(ctx, p)
}

// Delete removes from both L1 and L2. L2 goes first so a concurrent Get
// cannot backfill L1 with the stale entry.
func (c *Cache) Delete(ctx context.Context, id string) {
	c.l2.Delete(ctx, id)
	c.l1.Delete(ctx, id)
}
