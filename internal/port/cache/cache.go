// Package cache defines the port for plan caches.
package cache

import (
	"context"

	"github.com/Strob0t/PlanForge/internal/domain/plan"
)

// PlanCache holds recently read plans keyed by id. Implementations must
// return copies so callers cannot mutate cached entries.
type PlanCache interface {
	Get(ctx context.Context, id string) (*plan.Plan, bool)
	Set(ctx context.Context, p *plan.Plan)
	Delete(ctx context.Context, id string)
}
