package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Strob0t/PlanForge/internal/domain/plan"
)

// Store implements database.PlanStore using PostgreSQL. Tasks are kept as
// a JSONB array in list order; indices in dependsOn refer to that order.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const planColumns = `id, goal, horizon_days, tasks, provenance, llm_model, created_at, updated_at`

// CreatePlan inserts p. A duplicate id yields domain.ErrConflict.
func (s *Store) CreatePlan(ctx context.Context, p *plan.Plan) error {
	tasks, err := json.Marshal(orEmpty(p.Tasks))
	if err != nil {
		return fmt.Errorf("marshal tasks: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO plans (`+planColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.Goal, p.HorizonDays, tasks, string(p.Provenance), p.Model, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return wrapErr(err, "create plan %s", p.ID)
	}
	return nil
}

func (s *Store) ListPlans(ctx context.Context, limit int) ([]plan.Plan, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+planColumns+` FROM plans ORDER BY created_at DESC, id LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()

	plans := []plan.Plan{}
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, *p)
	}
	return plans, rows.Err()
}

func (s *Store) GetPlan(ctx context.Context, id string) (*plan.Plan, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+planColumns+` FROM plans WHERE id = $1`, id)
	p, err := scanPlan(row)
	if err != nil {
		return nil, wrapErr(err, "get plan %s", id)
	}
	return p, nil
}

func (s *Store) ReplacePlan(ctx context.Context, p *plan.Plan) error {
	tasks, err := json.Marshal(orEmpty(p.Tasks))
	if err != nil {
		return fmt.Errorf("marshal tasks: %w", err)
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE plans SET goal = $2, horizon_days = $3, tasks = $4, updated_at = $5 WHERE id = $1`,
		p.ID, p.Goal, p.HorizonDays, tasks, p.UpdatedAt)
	return execExpectOne(tag, err, "replace plan %s", p.ID)
}

func (s *Store) DeletePlan(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM plans WHERE id = $1`, id)
	return execExpectOne(tag, err, "delete plan %s", id)
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func scanPlan(row scannable) (*plan.Plan, error) {
	var (
		p          plan.Plan
		tasks      []byte
		provenance string
	)
	if err := row.Scan(&p.ID, &p.Goal, &p.HorizonDays, &tasks, &provenance, &p.Model, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(tasks, &p.Tasks); err != nil {
		return nil, fmt.Errorf("unmarshal tasks of plan %s: %w", p.ID, err)
	}
	p.Tasks = orEmpty(p.Tasks)
	for i := range p.Tasks {
		p.Tasks[i].DependsOn = orEmpty(p.Tasks[i].DependsOn)
	}
	p.SetProvenance(plan.Provenance(provenance))
	return &p, nil
}
