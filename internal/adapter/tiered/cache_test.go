package tiered_test

import (
	"context"
	"sync"
	"testing"

	"github.com/Strob0t/PlanForge/internal/adapter/tiered"
	"github.com/Strob0t/PlanForge/internal/domain/plan"
	"github.com/Strob0t/PlanForge/internal/port/cache/cachetest"
)

// memCache is a simple in-memory plan cache for testing.
type memCache struct {
	mu   sync.Mutex
	data map[string]*plan.Plan
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string]*plan.Plan)}
}

func (m *memCache) Get(_ context.Context, id string) (*plan.Plan, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.data[id]
	if !ok {
		return nil, false
	}
	return p.Clone(), true
}

func (m *memCache) Set(_ context.Context, p *plan.Plan) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[p.ID] = p.Clone()
}

func (m *memCache) Delete(_ context.Context, id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, id)
}

func (m *memCache) has(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[id]
	return ok
}

func TestTieredCompliance(t *testing.T) {
	cachetest.Run(t, tiered.New(newMemCache(), newMemCache()))
}

func TestTiered_L1Hit(t *testing.T) {
	l1, l2 := newMemCache(), newMemCache()
	c := tiered.New(l1, l2)
	ctx := context.Background()

	l1.Set(ctx, &plan.Plan{ID: "p1", Goal: "only in L1"})

	p, ok := c.Get(ctx, "p1")
	if !ok || p.Goal != "only in L1" {
		t.Fatalf("expected L1 hit, got %v %v", p, ok)
	}
}

func TestTiered_L2HitBackfillsL1(t *testing.T) {
	l1, l2 := newMemCache(), newMemCache()
	c := tiered.New(l1, l2)
	ctx := context.Background()

	l2.Set(ctx, &plan.Plan{ID: "p2", Goal: "only in L2"})

	p, ok := c.Get(ctx, "p2")
	if !ok || p.Goal != "only in L2" {
		t.Fatalf("expected L2 hit, got %v %v", p, ok)
	}
	if !l1.has("p2") {
		t.Fatal("expected L1 backfill")
	}
}

func TestTiered_SetAndDeleteBoth(t *testing.T) {
	l1, l2 := newMemCache(), newMemCache()
	c := tiered.New(l1, l2)
	ctx := context.Background()

	c.Set(ctx, &plan.Plan{ID: "p3"})
	if !l1.has("p3") || !l2.has("p3") {
		t.Fatal("expected p3 in both levels")
	}

	c.Delete(ctx, "p3")
	if l1.has("p3") || l2.has("p3") {
		t.Fatal("expected p3 removed from both levels")
	}
}
