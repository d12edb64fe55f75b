// Package cachetest holds the shared test suite for cache.PlanCache
// implementations.
package cachetest

import (
	"context"
	"testing"
	"time"

	"github.com/Strob0t/PlanForge/internal/domain/plan"
	"github.com/Strob0t/PlanForge/internal/port/cache"
)

func samplePlan(id, goal string) *plan.Plan {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tasks := plan.Schedule(start, plan.Sanitize(plan.FallbackTasks()), 14)
	p := &plan.Plan{ID: id, Goal: goal, HorizonDays: 14, Tasks: tasks, CreatedAt: start, UpdatedAt: start}
	p.SetProvenance(plan.ProvenanceFallback)
	return p
}

// Run exercises c against the PlanCache contract.
func Run(t *testing.T, c cache.PlanCache) {
	t.Helper()
	ctx := context.Background()

	t.Run("SetAndGet", func(t *testing.T) {
		c.Set(ctx, samplePlan("p-1", "Learn Go"))
		got, ok := c.Get(ctx, "p-1")
		if !ok {
			t.Fatal("expected hit after Set")
		}
		if got.Goal != "Learn Go" || len(got.Tasks) != 3 {
			t.Fatalf("unexpected plan %+v", got)
		}
	})

	t.Run("GetMiss", func(t *testing.T) {
		if _, ok := c.Get(ctx, "nonexistent"); ok {
			t.Fatal("expected miss for unknown id")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		c.Set(ctx, samplePlan("p-del", "Delete me"))
		c.Delete(ctx, "p-del")
		if _, ok := c.Get(ctx, "p-del"); ok {
			t.Fatal("expected miss after Delete")
		}
	})

	t.Run("DeleteNonexistent", func(_ *testing.T) {
		c.Delete(ctx, "never-existed")
	})

	t.Run("Overwrite", func(t *testing.T) {
		c.Set(ctx, samplePlan("p-ow", "first"))
		c.Set(ctx, samplePlan("p-ow", "second"))
		got, ok := c.Get(ctx, "p-ow")
		if !ok {
			t.Fatal("expected hit after overwrite")
		}
		if got.Goal != "second" {
			t.Fatalf("expected second, got %s", got.Goal)
		}
	})

	t.Run("ReturnsCopies", func(t *testing.T) {
		c.Set(ctx, samplePlan("p-copy", "Original"))
		got, _ := c.Get(ctx, "p-copy")
		got.Goal = "mutated"
		got.Tasks[0].DependsOn = append(got.Tasks[0].DependsOn, 2)

		again, ok := c.Get(ctx, "p-copy")
		if !ok {
			t.Fatal("expected hit")
		}
		if again.Goal != "Original" || len(again.Tasks[0].DependsOn) != 0 {
			t.Fatalf("cached entry was mutated: %+v", again)
		}
	})
}
