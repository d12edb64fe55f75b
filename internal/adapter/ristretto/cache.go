// Package ristretto implements the plan cache port on dgraph-io/ristretto.
package ristretto

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/Strob0t/PlanForge/internal/domain/plan"
)

// Cache is an in-process, cost-bounded plan cache.
type Cache struct {
	c   *ristretto.Cache[string, *plan.Plan]
	ttl time.Duration
}

// New creates a cache holding roughly maxCostBytes worth of plans, each
// expiring after ttl.
func New(maxCostBytes int64, ttl time.Duration) (*Cache, error) {
	c, err := ristretto.NewCache(&ristretto.Config[string, *plan.Plan]{
		NumCounters: max(maxCostBytes/planBaseCost*10, 1000),
		MaxCost:     maxCostBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Cache{c: c, ttl: ttl}, nil
}

// Get returns a copy of the cached plan.
func (c *Cache) Get(_ context.Context, id string) (*plan.Plan, bool) {
	p, ok := c.c.Get(id)
	if !ok {
		return nil, false
	}
	return p.Clone(), true
}

// Set stores a copy of p. The write is visible to Get once Set returns.
func (c *Cache) Set(_ context.Context, p *plan.Plan) {
	cp := p.Clone()
	c.c.SetWithTTL(cp.ID, cp, cost(cp), c.ttl)
	c.c.Wait()
}

// Delete evicts id.
func (c *Cache) Delete(_ context.Context, id string) {
	c.c.Del(id)
}

// Close releases the cache.
func (c *Cache) Close() {
	c.c.Close()
}

const (
	planBaseCost = 256
	taskCost     = 160
)

// cost approximates the in-memory size of p in bytes.
func cost(p *plan.Plan) int64 {
	n := int64(planBaseCost + len(p.Goal) + len(p.Model))
	for i := range p.Tasks {
		t := &p.Tasks[i]
		n += taskCost + int64(len(t.Title)+len(t.Description)+8*len(t.DependsOn))
	}
	return n
}
