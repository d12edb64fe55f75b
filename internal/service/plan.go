// Package service implements business logic on top of ports.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	cfotel "github.com/Strob0t/PlanForge/internal/adapter/otel"
	"github.com/Strob0t/PlanForge/internal/adapter/ws"
	"github.com/Strob0t/PlanForge/internal/config"
	"github.com/Strob0t/PlanForge/internal/domain"
	"github.com/Strob0t/PlanForge/internal/domain/plan"
	"github.com/Strob0t/PlanForge/internal/port/broadcast"
	"github.com/Strob0t/PlanForge/internal/port/cache"
	"github.com/Strob0t/PlanForge/internal/port/database"
	"github.com/Strob0t/PlanForge/internal/port/messagequeue"
	"github.com/Strob0t/PlanForge/internal/port/planner"
	"github.com/Strob0t/PlanForge/internal/resilience"
)

// sharedReadTimeout bounds a store read shared by concurrent Gets. It runs
// detached from any single caller's context.
const sharedReadTimeout = 5 * time.Second

// errGeneratorDisabled is the fallback reason when no generator is configured.
var errGeneratorDisabled = errors.New("task generator disabled")

// PlanService runs the plan pipeline: propose tasks, sanitize, schedule,
// persist. Every collaborator except the store is optional.
type PlanService struct {
	store     database.PlanStore
	cfg       config.Planner
	generator planner.TaskGenerator
	provider  string
	timeout   time.Duration
	breaker   *resilience.Breaker
	bulkhead  *resilience.Bulkhead
	cache     cache.PlanCache
	queue     messagequeue.Publisher
	hub       broadcast.Broadcaster
	metrics   *cfotel.Metrics
	group     singleflight.Group
	now       func() time.Time

	// invalidMu orders cache fills after store reads against invalidations,
	// so a read that raced a write never repopulates the cache.
	invalidMu  sync.Mutex
	invalidGen uint64
	newID     func() string
}

// NewPlanService creates a PlanService. Without a generator every plan
// uses the fallback task list.
func NewPlanService(store database.PlanStore, cfg config.Planner) *PlanService {
	if cfg.DefaultHorizonDays == 0 {
		cfg.DefaultHorizonDays = plan.DefaultHorizonDays
	}
	if cfg.ListLimit == 0 {
		cfg.ListLimit = 50
	}
	return &PlanService{
		store: store,
		cfg:   cfg,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// SetGenerator attaches the external task generator. provider names it in
// logs and spans; timeout bounds each call (zero means no extra bound).
func (s *PlanService) SetGenerator(g planner.TaskGenerator, provider string, timeout time.Duration) {
	s.generator = g
	s.provider = provider
	s.timeout = timeout
}

// SetBreaker guards generator calls with a circuit breaker.
func (s *PlanService) SetBreaker(b *resilience.Breaker) { s.breaker = b }

// SetBulkhead caps concurrent generator calls. Waiting for a slot counts
// against the generator timeout.
func (s *PlanService) SetBulkhead(b *resilience.Bulkhead) { s.bulkhead = b }

// SetCache attaches the plan read cache.
func (s *PlanService) SetCache(c cache.PlanCache) { s.cache = c }

// SetQueue attaches the plan event publisher.
func (s *PlanService) SetQueue(q messagequeue.Publisher) { s.queue = q }

// SetHub attaches the live client broadcaster.
func (s *PlanService) SetHub(h broadcast.Broadcaster) { s.hub = h }

// SetMetrics attaches OpenTelemetry instruments.
func (s *PlanService) SetMetrics(m *cfotel.Metrics) { s.metrics = m }

// Generate creates, stores and announces a plan for req.Goal. Generator
// failures never fail the request: the fallback task list is used instead.
func (s *PlanService) Generate(ctx context.Context, req *plan.GenerateRequest) (_ *plan.Plan, err error) {
	began := s.now()
	horizon, start, err := req.Normalize(s.cfg.DefaultHorizonDays, began)
	if err != nil {
		return nil, err
	}

	ctx, span := cfotel.StartGenerateSpan(ctx, horizon)
	defer func() { cfotel.EndSpan(span, err) }()

	raw, model, provenance := s.proposeTasks(ctx, req.Goal)
	scheduled := plan.Schedule(start, plan.Sanitize(raw), horizon)

	created := began.UTC()
	p := &plan.Plan{
		ID:          s.newID(),
		Goal:        req.Goal,
		HorizonDays: horizon,
		Tasks:       scheduled,
		Model:       model,
		CreatedAt:   created,
		UpdatedAt:   created,
	}
	p.SetProvenance(provenance)

	if err := s.store.CreatePlan(ctx, p); err != nil {
		return nil, fmt.Errorf("create plan: %w", err)
	}

	s.cacheSet(ctx, p)
	s.announce(ctx, messagequeue.SubjectPlanCreated, ws.EventPlanCreated, p)
	if s.metrics != nil {
		s.metrics.RecordGenerated(ctx, string(provenance), len(p.Tasks), s.now().Sub(began))
	}

	slog.InfoContext(ctx, "plan generated",
		"plan_id", p.ID,
		"tasks", len(p.Tasks),
		"horizon_days", horizon,
		"provenance", provenance,
		"model", model,
	)
	return p, nil
}

// proposeTasks asks the generator for raw tasks and falls back to the
// fixed list on any failure.
func (s *PlanService) proposeTasks(ctx context.Context, goal string) (raw []plan.RawTask, model string, provenance plan.Provenance) {
	res, err := s.callGenerator(ctx, goal)
	if err == nil {
		model = res.Model
		if model == "" {
			model = s.provider
		}
		raw = res.Tasks
		if len(raw) > plan.MaxTasks {
			slog.WarnContext(ctx, "generator returned too many tasks, truncating",
				"provider", s.provider, "tasks", len(raw), "max", plan.MaxTasks)
			raw = raw[:plan.MaxTasks]
		}
		return raw, model, plan.ProvenanceAI
	}

	slog.WarnContext(ctx, "task generation failed, using fallback plan",
		"provider", s.provider,
		"error", err,
	)
	if s.metrics != nil {
		s.metrics.RecordGeneratorFailure(ctx, fallbackReason(err))
	}
	return plan.FallbackTasks(), plan.FallbackModel, plan.ProvenanceFallback
}

func (s *PlanService) callGenerator(ctx context.Context, goal string) (res *planner.Result, err error) {
	if s.generator == nil {
		return nil, errGeneratorDisabled
	}

	ctx, span := cfotel.StartGeneratorSpan(ctx, s.provider)
	defer func() { cfotel.EndSpan(span, err) }()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	call := func(ctx context.Context) error {
		r, err := s.generator.Generate(ctx, goal)
		if err != nil {
			return err
		}
		if r == nil {
			return planner.ErrEmptyResponse
		}
		res = r
		return nil
	}

	guarded := call
	if s.breaker != nil {
		guarded = func(ctx context.Context) error { return s.breaker.Execute(ctx, call) }
	}
	if err = s.bulkhead.Run(ctx, guarded); err != nil {
		return nil, err
	}
	return res, nil
}

func fallbackReason(err error) string {
	switch {
	case errors.Is(err, errGeneratorDisabled):
		return "disabled"
	case errors.Is(err, resilience.ErrCircuitOpen):
		return "circuit_open"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, planner.ErrEmptyResponse),
		errors.Is(err, planner.ErrInvalidJSON),
		errors.Is(err, planner.ErrMissingTasks):
		return "bad_response"
	default:
		return "error"
	}
}

// Preview sanitizes and schedules caller-supplied tasks without calling the
// generator or storing anything.
func (s *PlanService) Preview(_ context.Context, req *plan.PreviewRequest) ([]plan.ScheduledTask, error) {
	horizon, start, err := req.Normalize(s.cfg.DefaultHorizonDays, s.now())
	if err != nil {
		return nil, err
	}
	return plan.Schedule(start, plan.Sanitize(req.Tasks), horizon), nil
}

// List returns the most recent plans, newest first.
func (s *PlanService) List(ctx context.Context) ([]plan.Plan, error) {
	plans, err := s.store.ListPlans(ctx, s.cfg.ListLimit)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	return plans, nil
}

// Get returns a plan by id. Concurrent misses for the same id share one
// store read.
func (s *PlanService) Get(ctx context.Context, id string) (*plan.Plan, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	if s.cache != nil {
		p, ok := s.cache.Get(ctx, id)
		if s.metrics != nil {
			s.metrics.RecordCacheLookup(ctx, ok)
		}
		if ok {
			return p, nil
		}
	}

	ch := s.group.DoChan(id, func() (any, error) {
		gen := s.invalidation()
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedReadTimeout)
		defer cancel()
		p, err := s.store.GetPlan(rctx, id)
		if err != nil {
			return nil, err
		}
		s.cacheFill(rctx, p, gen)
		return p, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*plan.Plan).Clone(), nil
	}
}

// Update fully replaces a plan's goal, horizon and tasks. Provenance,
// model and creation time are kept.
func (s *PlanService) Update(ctx context.Context, id string, req plan.UpdateRequest) (*plan.Plan, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	p, err := s.store.GetPlan(ctx, id)
	if err != nil {
		return nil, err
	}

	p.Goal = req.Goal
	p.HorizonDays = req.HorizonDays
	p.Tasks = req.Tasks
	if p.Tasks == nil {
		p.Tasks = []plan.ScheduledTask{}
	}
	return s.replace(ctx, p)
}

// Reschedule re-runs the sequential scheduler over a plan's existing tasks.
// An empty start date keeps the current first start (or creation time);
// a zero horizon keeps the current horizon.
func (s *PlanService) Reschedule(ctx context.Context, id string, req plan.RescheduleRequest) (*plan.Plan, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	p, err := s.store.GetPlan(ctx, id)
	if err != nil {
		return nil, err
	}

	horizon := p.HorizonDays
	if req.HorizonDays != 0 {
		horizon = req.HorizonDays
	}
	if err := plan.ValidateHorizon(horizon); err != nil {
		return nil, err
	}

	current := p.CreatedAt
	if len(p.Tasks) > 0 {
		current = p.Tasks[0].StartDate
	}
	start, err := plan.ParseStartDate(req.StartDate, current)
	if err != nil {
		return nil, err
	}

	tasks := make([]plan.Task, len(p.Tasks))
	for i := range p.Tasks {
		tasks[i] = p.Tasks[i].Task
	}
	p.HorizonDays = horizon
	p.Tasks = plan.Schedule(start, tasks, horizon)
	return s.replace(ctx, p)
}

func (s *PlanService) replace(ctx context.Context, p *plan.Plan) (*plan.Plan, error) {
	p.UpdatedAt = s.now().UTC()
	if err := s.store.ReplacePlan(ctx, p); err != nil {
		return nil, fmt.Errorf("replace plan: %w", err)
	}

	s.cacheDelete(ctx, p.ID)
	s.announce(ctx, messagequeue.SubjectPlanUpdated, ws.EventPlanUpdated, p)
	slog.InfoContext(ctx, "plan updated", "plan_id", p.ID, "tasks", len(p.Tasks), "horizon_days", p.HorizonDays)
	return p, nil
}

// Delete removes a plan.
func (s *PlanService) Delete(ctx context.Context, id string) error {
	if err := validateID(id); err != nil {
		return err
	}
	if err := s.store.DeletePlan(ctx, id); err != nil {
		return err
	}

	s.cacheDelete(ctx, id)
	s.announce(ctx, messagequeue.SubjectPlanDeleted, ws.EventPlanDeleted, &plan.Plan{ID: id})
	slog.InfoContext(ctx, "plan deleted", "plan_id", id)
	return nil
}

// Export returns the downloadable form of a plan and its file name.
func (s *PlanService) Export(ctx context.Context, id string) (*plan.Export, string, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	return plan.NewExport(p), plan.ExportFilename(p.Goal), nil
}

// Ping checks the store.
func (s *PlanService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func validateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: invalid plan id", domain.ErrValidation)
	}
	return nil
}

func (s *PlanService) cacheSet(ctx context.Context, p *plan.Plan) {
	if s.cache != nil {
		s.cache.Set(ctx, p)
	}
}

// invalidation returns the current invalidation generation.
func (s *PlanService) invalidation() uint64 {
	s.invalidMu.Lock()
	defer s.invalidMu.Unlock()
	return s.invalidGen
}

// cacheFill caches p read from the store unless an invalidation happened
// since gen was taken.
func (s *PlanService) cacheFill(ctx context.Context, p *plan.Plan, gen uint64) {
	s.invalidMu.Lock()
	defer s.invalidMu.Unlock()
	if s.invalidGen != gen {
		return
	}
	s.cacheSet(ctx, p)
}

// cacheDelete drops id from the cache and makes in-flight reads skip their
// cache fill. Later Gets start a fresh store read.
func (s *PlanService) cacheDelete(ctx context.Context, id string) {
	s.invalidMu.Lock()
	defer s.invalidMu.Unlock()
	s.invalidGen++
	s.group.Forget(id)
	if s.cache != nil {
		s.cache.Delete(ctx, id)
	}
}

// announce publishes a plan event to the queue and live clients. Delivery
// failures are logged; the stored plan is authoritative.
func (s *PlanService) announce(ctx context.Context, subject, eventType string, p *plan.Plan) {
	if s.hub != nil {
		s.hub.BroadcastEvent(ctx, eventType, ws.PlanEvent{
			PlanID:      p.ID,
			Goal:        p.Goal,
			HorizonDays: p.HorizonDays,
			TaskCount:   len(p.Tasks),
			AIGenerated: p.AIGenerated,
		})
	}

	if s.queue == nil {
		return
	}
	data, err := json.Marshal(messagequeue.PlanEventPayload{
		PlanID:      p.ID,
		Goal:        p.Goal,
		HorizonDays: p.HorizonDays,
		TaskCount:   len(p.Tasks),
		Provenance:  string(p.Provenance),
		Model:       p.Model,
		OccurredAt:  s.now().UTC(),
	})
	if err != nil {
		slog.ErrorContext(ctx, "marshal plan event", "subject", subject, "error", err)
		return
	}
	if err := s.queue.Publish(ctx, subject, data); err != nil {
		slog.WarnContext(ctx, "publish plan event failed", "subject", subject, "plan_id", p.ID, "error", err)
	}
}
