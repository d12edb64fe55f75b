package postgres_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Strob0t/PlanForge/internal/adapter/postgres"
	"github.com/Strob0t/PlanForge/internal/domain"
	"github.com/Strob0t/PlanForge/internal/domain/plan"
)

// setupStore runs all migrations and returns a ready-to-use Store.
// The pool is closed via t.Cleanup.
func setupStore(t *testing.T) *postgres.Store {
	t.Helper()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("requires DATABASE_URL")
	}

	ctx := context.Background()
	if err := postgres.RunMigrations(ctx, dsn); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	if v, err := postgres.MigrationVersion(ctx, dsn); err != nil || v < 1 {
		t.Fatalf("expected migration version >= 1, got %d (%v)", v, err)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("create pool: %v", err)
	}
	t.Cleanup(pool.Close)

	return postgres.NewStore(pool)
}

func newPlan(goal string, created time.Time) *plan.Plan {
	tasks := plan.Schedule(created, plan.Sanitize(plan.FallbackTasks()), 14)
	p := &plan.Plan{
		ID:          uuid.NewString(),
		Goal:        goal,
		HorizonDays: 14,
		Tasks:       tasks,
		Model:       plan.FallbackModel,
		CreatedAt:   created,
		UpdatedAt:   created,
	}
	p.SetProvenance(plan.ProvenanceFallback)
	return p
}

func TestPlanRoundTrip(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	p := newPlan("Write a novel", created)
	if err := store.CreatePlan(ctx, p); err != nil {
		t.Fatalf("CreatePlan: %v", err)
	}
	t.Cleanup(func() { _ = store.DeletePlan(ctx, p.ID) })

	got, err := store.GetPlan(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetPlan: %v", err)
	}
	if got.Goal != p.Goal || got.HorizonDays != 14 || got.Provenance != plan.ProvenanceFallback || got.AIGenerated {
		t.Errorf("unexpected plan %+v", got)
	}
	if len(got.Tasks) != 3 {
		t.Fatalf("expected 3 tasks, got %d", len(got.Tasks))
	}
	if !got.Tasks[2].EndDate.Equal(created.AddDate(0, 0, 14)) {
		t.Errorf("unexpected end date %v", got.Tasks[2].EndDate)
	}
	if got.Tasks[0].DependsOn == nil || len(got.Tasks[2].DependsOn) != 1 {
		t.Errorf("unexpected deps %v / %v", got.Tasks[0].DependsOn, got.Tasks[2].DependsOn)
	}
}

func TestReplacePlan(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	p := newPlan("Renovate the kitchen", time.Now().UTC().Truncate(time.Microsecond))
	if err := store.CreatePlan(ctx, p); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.DeletePlan(ctx, p.ID) })

	p.Goal = "Renovate the bathroom"
	p.Tasks = p.Tasks[:1]
	p.UpdatedAt = p.UpdatedAt.Add(time.Minute)
	if err := store.ReplacePlan(ctx, p); err != nil {
		t.Fatalf("ReplacePlan: %v", err)
	}

	got, err := store.GetPlan(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Goal != "Renovate the bathroom" || len(got.Tasks) != 1 {
		t.Errorf("replace not applied: %+v", got)
	}
	if !got.UpdatedAt.After(got.CreatedAt) {
		t.Errorf("expected updated_at after created_at")
	}
}

func TestListPlansNewestFirst(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(time.Hour).Truncate(time.Microsecond)
	older := newPlan("Older plan goal", base)
	newer := newPlan("Newer plan goal", base.Add(time.Minute))
	for _, p := range []*plan.Plan{older, newer} {
		if err := store.CreatePlan(ctx, p); err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { _ = store.DeletePlan(ctx, p.ID) })
	}

	plans, err := store.ListPlans(ctx, 2)
	if err != nil {
		t.Fatalf("ListPlans: %v", err)
	}
	if len(plans) != 2 {
		t.Fatalf("expected 2 plans, got %d", len(plans))
	}
	if plans[0].ID != newer.ID || plans[1].ID != older.ID {
		t.Errorf("expected newest first, got %s, %s", plans[0].Goal, plans[1].Goal)
	}
}

func TestMissingPlan(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	id := uuid.NewString()

	if _, err := store.GetPlan(ctx, id); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetPlan: expected ErrNotFound, got %v", err)
	}
	if err := store.DeletePlan(ctx, id); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("DeletePlan: expected ErrNotFound, got %v", err)
	}
	p := newPlan("Nothing to replace", time.Now().UTC())
	p.ID = id
	if err := store.ReplacePlan(ctx, p); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("ReplacePlan: expected ErrNotFound, got %v", err)
	}
}

func TestDuplicatePlanConflicts(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	p := newPlan("Plant a vegetable garden", time.Now().UTC())
	if err := store.CreatePlan(ctx, p); err != nil {
		t.Fatalf("CreatePlan: %v", err)
	}
	if err := store.CreatePlan(ctx, p); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict on duplicate id, got %v", err)
	}
}
