// Package database defines the database store port (interface).
package database

import (
	"context"

	"github.com/Strob0t/PlanForge/internal/domain/plan"
)

// PlanStore persists plans. Lookups of unknown ids return an error
// wrapping domain.ErrNotFound.
type PlanStore interface {
	CreatePlan(ctx context.Context, p *plan.Plan) error
	// ListPlans returns at most limit plans, newest first.
	ListPlans(ctx context.Context, limit int) ([]plan.Plan, error)
	GetPlan(ctx context.Context, id string) (*plan.Plan, error)
	// ReplacePlan overwrites goal, horizon, tasks and updated_at.
	ReplacePlan(ctx context.Context, p *plan.Plan) error
	DeletePlan(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}
