package otel

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "planforge"

// Metrics holds the plan pipeline instruments.
type Metrics struct {
	PlansGenerated    metric.Int64Counter
	GeneratorFailures metric.Int64Counter
	GenerateDuration  metric.Float64Histogram
	TasksPerPlan      metric.Int64Histogram
	CacheLookups      metric.Int64Counter
}

// NewMetrics creates all metric instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.PlansGenerated, err = meter.Int64Counter("planforge.plans.generated",
		metric.WithDescription("Number of plans generated, by provenance"))
	if err != nil {
		return nil, err
	}

	m.GeneratorFailures, err = meter.Int64Counter("planforge.generator.failures",
		metric.WithDescription("Number of task generator calls that fell back"))
	if err != nil {
		return nil, err
	}

	m.GenerateDuration, err = meter.Float64Histogram("planforge.generate.duration_seconds",
		metric.WithDescription("End-to-end plan generation time in seconds"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	m.TasksPerPlan, err = meter.Int64Histogram("planforge.plan.tasks",
		metric.WithDescription("Number of tasks in generated plans"))
	if err != nil {
		return nil, err
	}

	m.CacheLookups, err = meter.Int64Counter("planforge.cache.lookups",
		metric.WithDescription("Plan cache lookups, by result"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

// RecordGenerated records one generated plan.
func (m *Metrics) RecordGenerated(ctx context.Context, provenance string, tasks int, elapsed time.Duration) {
	attrs := metric.WithAttributes(attribute.String("provenance", provenance))
	m.PlansGenerated.Add(ctx, 1, attrs)
	m.TasksPerPlan.Record(ctx, int64(tasks), attrs)
	m.GenerateDuration.Record(ctx, elapsed.Seconds(), attrs)
}

// RecordGeneratorFailure records a generator call that triggered the fallback.
func (m *Metrics) RecordGeneratorFailure(ctx context.Context, reason string) {
	m.GeneratorFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// RecordCacheLookup records a plan cache hit or miss.
func (m *Metrics) RecordCacheLookup(ctx context.Context, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}
