// Package planner defines the port for the external task generator.
package planner

import (
	"context"

	"github.com/Strob0t/PlanForge/internal/domain/plan"
)

// Result is a generator response. Tasks are untrusted and go through
// plan.Sanitize before use.
type Result struct {
	Tasks []plan.RawTask
	Model string
}

// TaskGenerator proposes a task list for a goal. Any error makes the
// caller switch to plan.FallbackTasks.
type TaskGenerator interface {
	Generate(ctx context.Context, goal string) (*Result, error)
}

// GeneratorFunc adapts a function to TaskGenerator.
type GeneratorFunc func(ctx context.Context, goal string) (*Result, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, goal string) (*Result, error) {
	return f(ctx, goal)
}
