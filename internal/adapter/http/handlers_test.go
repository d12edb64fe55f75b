package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	cfhttp "github.com/Strob0t/PlanForge/internal/adapter/http"
	"github.com/Strob0t/PlanForge/internal/config"
	"github.com/Strob0t/PlanForge/internal/domain"
	"github.com/Strob0t/PlanForge/internal/domain/plan"
	"github.com/Strob0t/PlanForge/internal/middleware"
	"github.com/Strob0t/PlanForge/internal/port/planner"
	"github.com/Strob0t/PlanForge/internal/service"
)

// mockStore implements database.PlanStore for testing.
type mockStore struct {
	mu      sync.Mutex
	plans   map[string]*plan.Plan
	pingErr error
}

func newMockStore() *mockStore {
	return &mockStore{plans: make(map[string]*plan.Plan)}
}

func (m *mockStore) CreatePlan(_ context.Context, p *plan.Plan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plans[p.ID] = p.Clone()
	return nil
}

func (m *mockStore) ListPlans(_ context.Context, limit int) ([]plan.Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]plan.Plan, 0, len(m.plans))
	for _, p := range m.plans {
		out = append(out, *p.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockStore) GetPlan(_ context.Context, id string) (*plan.Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.plans[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p.Clone(), nil
}

func (m *mockStore) ReplacePlan(_ context.Context, p *plan.Plan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.plans[p.ID]; !ok {
		return domain.ErrNotFound
	}
	m.plans[p.ID] = p.Clone()
	return nil
}

func (m *mockStore) DeletePlan(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.plans[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.plans, id)
	return nil
}

func (m *mockStore) Ping(_ context.Context) error { return m.pingErr }

const unknownID = "00000000-0000-4000-8000-000000000000"

func newTestRouter(store *mockStore, gen planner.TaskGenerator) chi.Router {
	svc := service.NewPlanService(store, config.Planner{DefaultHorizonDays: 14, ListLimit: 50})
	if gen != nil {
		svc.SetGenerator(gen, "test", time.Second)
	}
	r := chi.NewRouter()
	cfhttp.MountRoutes(r, &cfhttp.Handlers{Plans: svc}, nil)
	return r
}

func do(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, w.Body.String())
	}
	return v
}

func generate(t *testing.T, r http.Handler) plan.Plan {
	t.Helper()
	w := do(t, r, http.MethodPost, "/api/plans/generate",
		`{"goal":"Learn Go & Rust!","horizonDays":14,"startDate":"2024-01-01T00:00:00Z"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("generate: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	return decode[plan.Plan](t, w)
}

func TestHealth(t *testing.T) {
	r := newTestRouter(newMockStore(), nil)
	w := do(t, r, http.MethodGet, "/health", "")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := decode[map[string]any](t, w)
	if body["status"] != "ok" || body["service"] != "planforge" {
		t.Fatalf("unexpected health body: %v", body)
	}
	if body["nats"] != "disabled" {
		t.Fatalf("expected nats disabled, got %v", body["nats"])
	}
}

func TestHealthDatabaseDown(t *testing.T) {
	store := newMockStore()
	store.pingErr = errors.New("connection refused")
	r := newTestRouter(store, nil)
	w := do(t, r, http.MethodGet, "/health", "")

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
	body := decode[map[string]any](t, w)
	if body["status"] != "degraded" || body["database"] != "unavailable" {
		t.Fatalf("unexpected health body: %v", body)
	}
}

func TestGeneratePlanFallback(t *testing.T) {
	r := newTestRouter(newMockStore(), nil)
	p := generate(t, r)

	if p.AIGenerated {
		t.Fatal("expected aiGenerated=false without a generator")
	}
	if p.Goal != "Learn Go & Rust!" {
		t.Fatalf("unexpected goal %q", p.Goal)
	}
	want := []int{5, 5, 4}
	if len(p.Tasks) != len(want) {
		t.Fatalf("expected %d tasks, got %d", len(want), len(p.Tasks))
	}
	for i, d := range want {
		if p.Tasks[i].EstimatedDays != d {
			t.Errorf("task %d: expected %d days, got %d", i, d, p.Tasks[i].EstimatedDays)
		}
	}
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if !p.Tasks[0].StartDate.Equal(start) {
		t.Fatalf("first task starts %v, want %v", p.Tasks[0].StartDate, start)
	}
	if !p.Tasks[2].EndDate.Equal(start.AddDate(0, 0, 14)) {
		t.Fatalf("last task ends %v", p.Tasks[2].EndDate)
	}
}

func TestGeneratePlanAI(t *testing.T) {
	gen := planner.GeneratorFunc(func(_ context.Context, _ string) (*planner.Result, error) {
		return &planner.Result{
			Model: "test-model",
			Tasks: []plan.RawTask{
				{Title: "Read the book"},
				{Title: "", DependsOn: []any{0, 9}},
			},
		}, nil
	})
	r := newTestRouter(newMockStore(), gen)
	p := generate(t, r)

	if !p.AIGenerated || p.Model != "test-model" {
		t.Fatalf("expected AI plan from test-model, got aiGenerated=%v model=%q", p.AIGenerated, p.Model)
	}
	if p.Tasks[1].Title != "Task 2" {
		t.Fatalf("expected placeholder title, got %q", p.Tasks[1].Title)
	}
	if len(p.Tasks[1].DependsOn) != 1 || p.Tasks[1].DependsOn[0] != 0 {
		t.Fatalf("expected dependsOn [0], got %v", p.Tasks[1].DependsOn)
	}
}

func TestGeneratePlanValidation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		status  int
		message string
	}{
		{"short goal", `{"goal":"abc"}`, http.StatusBadRequest, "goal must be at least 5 characters"},
		{"blank goal", `{"goal":"      "}`, http.StatusBadRequest, "goal must be at least 5 characters"},
		{"zero horizon", `{"goal":"valid goal","horizonDays":0}`, http.StatusBadRequest, "horizonDays must be between 1 and 365"},
		{"huge horizon", `{"goal":"valid goal","horizonDays":366}`, http.StatusBadRequest, "horizonDays must be between 1 and 365"},
		{"fractional horizon", `{"goal":"valid goal","horizonDays":2.5}`, http.StatusBadRequest, "invalid request body"},
		{"bad start", `{"goal":"valid goal","startDate":"tomorrow"}`, http.StatusBadRequest, "startDate must be an ISO-8601 date-time"},
		{"malformed json", `{"goal":`, http.StatusBadRequest, "invalid request body"},
		{"empty body", ``, http.StatusBadRequest, "request body is required"},
	}

	r := newTestRouter(newMockStore(), nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, r, http.MethodPost, "/api/plans/generate", tt.body)
			if w.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, w.Code, w.Body.String())
			}
			body := decode[map[string]string](t, w)
			if body["error"] != tt.message {
				t.Fatalf("expected error %q, got %q", tt.message, body["error"])
			}
		})
	}
}

func TestGeneratePlanBodyTooLarge(t *testing.T) {
	svc := service.NewPlanService(newMockStore(), config.Planner{})
	r := chi.NewRouter()
	cfhttp.MountRoutes(r, &cfhttp.Handlers{Plans: svc, BodyLimit: 16}, nil)

	w := do(t, r, http.MethodPost, "/api/plans/generate", `{"goal":"`+strings.Repeat("x", 64)+`"}`)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", w.Code)
	}
}

func TestPreviewPlan(t *testing.T) {
	r := newTestRouter(newMockStore(), nil)
	w := do(t, r, http.MethodPost, "/api/plans/preview",
		`{"horizonDays":10,"startDate":"2024-03-01T00:00:00Z","tasks":[{"title":"a"},{"title":"b"},{"dependsOn":[5,-1,"x",1]}]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		TotalDays int                  `json:"totalDays"`
		Tasks     []plan.ScheduledTask `json:"tasks"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.TotalDays != 10 {
		t.Fatalf("expected totalDays 10, got %d", resp.TotalDays)
	}
	want := []int{4, 3, 3}
	for i, d := range want {
		if resp.Tasks[i].EstimatedDays != d {
			t.Errorf("task %d: expected %d days, got %d", i, d, resp.Tasks[i].EstimatedDays)
		}
	}
	if resp.Tasks[2].Title != "Task 3" || len(resp.Tasks[2].DependsOn) != 1 || resp.Tasks[2].DependsOn[0] != 1 {
		t.Fatalf("unexpected sanitized task: %+v", resp.Tasks[2].Task)
	}
}

func TestListPlans(t *testing.T) {
	r := newTestRouter(newMockStore(), nil)

	w := do(t, r, http.MethodGet, "/api/plans", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := strings.TrimSpace(w.Body.String()); got != "[]" {
		t.Fatalf("expected empty array, got %s", got)
	}

	generate(t, r)
	w = do(t, r, http.MethodGet, "/api/plans", "")
	plans := decode[[]plan.Plan](t, w)
	if len(plans) != 1 {
		t.Fatalf("expected 1 plan, got %d", len(plans))
	}
}

func TestGetPlan(t *testing.T) {
	r := newTestRouter(newMockStore(), nil)
	created := generate(t, r)

	tests := []struct {
		name   string
		id     string
		status int
	}{
		{"existing", created.ID, http.StatusOK},
		{"unknown", unknownID, http.StatusNotFound},
		{"malformed", "not-a-uuid", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, r, http.MethodGet, "/api/plans/"+tt.id, "")
			if w.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, w.Code, w.Body.String())
			}
		})
	}
}

func TestUpdatePlan(t *testing.T) {
	r := newTestRouter(newMockStore(), nil)
	created := generate(t, r)

	body := `{"goal":"Learn Go properly","horizonDays":7,"tasks":[` +
		`{"title":"  Tour of Go  ","description":"basics","dependsOn":[3],"startDate":"2024-01-01T00:00:00Z","endDate":"2024-01-03T12:00:00Z"}]}`
	w := do(t, r, http.MethodPut, "/api/plans/"+created.ID, body)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	p := decode[plan.Plan](t, w)
	if p.Goal != "Learn Go properly" || p.HorizonDays != 7 || len(p.Tasks) != 1 {
		t.Fatalf("unexpected plan after update: %+v", p)
	}
	if p.Tasks[0].Title != "Tour of Go" || p.Tasks[0].EstimatedDays != 3 || len(p.Tasks[0].DependsOn) != 0 {
		t.Fatalf("unexpected task after update: %+v", p.Tasks[0])
	}
	if !p.CreatedAt.Equal(created.CreatedAt) {
		t.Fatal("update must keep createdAt")
	}
}

func TestUpdatePlanErrors(t *testing.T) {
	r := newTestRouter(newMockStore(), nil)
	created := generate(t, r)

	tests := []struct {
		name   string
		id     string
		body   string
		status int
	}{
		{"unknown id", unknownID, `{"goal":"valid goal","horizonDays":5,"tasks":[]}`, http.StatusNotFound},
		{"bad id", "nope", `{"goal":"valid goal","horizonDays":5,"tasks":[]}`, http.StatusBadRequest},
		{"short goal", created.ID, `{"goal":"x","horizonDays":5,"tasks":[]}`, http.StatusBadRequest},
		{"empty title", created.ID, `{"goal":"valid goal","horizonDays":5,"tasks":[{"title":" ","startDate":"2024-01-01T00:00:00Z","endDate":"2024-01-02T00:00:00Z"}]}`, http.StatusBadRequest},
		{"end before start", created.ID, `{"goal":"valid goal","horizonDays":5,"tasks":[{"title":"a","startDate":"2024-01-02T00:00:00Z","endDate":"2024-01-01T00:00:00Z"}]}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, r, http.MethodPut, "/api/plans/"+tt.id, tt.body)
			if w.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, w.Code, w.Body.String())
			}
		})
	}
}

func TestReschedulePlan(t *testing.T) {
	r := newTestRouter(newMockStore(), nil)
	created := generate(t, r)

	w := do(t, r, http.MethodPost, "/api/plans/"+created.ID+"/reschedule",
		`{"startDate":"2024-02-01T00:00:00Z","horizonDays":10}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	p := decode[plan.Plan](t, w)
	start := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	if !p.Tasks[0].StartDate.Equal(start) {
		t.Fatalf("expected first start %v, got %v", start, p.Tasks[0].StartDate)
	}
	if got := plan.TotalDays(p.Tasks); got != 10 {
		t.Fatalf("expected 10 total days, got %d", got)
	}

	w = do(t, r, http.MethodPost, "/api/plans/"+created.ID+"/reschedule", `{"horizonDays":400}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad horizon, got %d", w.Code)
	}
}

func TestDeletePlan(t *testing.T) {
	r := newTestRouter(newMockStore(), nil)
	created := generate(t, r)

	w := do(t, r, http.MethodDelete, "/api/plans/"+created.ID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := decode[map[string]any](t, w)
	if body["success"] != true || body["message"] != "Plan deleted successfully" {
		t.Fatalf("unexpected delete body: %v", body)
	}

	if w := do(t, r, http.MethodGet, "/api/plans/"+created.ID, ""); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", w.Code)
	}
	if w := do(t, r, http.MethodDelete, "/api/plans/"+created.ID, ""); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on second delete, got %d", w.Code)
	}
}

func TestExportPlan(t *testing.T) {
	r := newTestRouter(newMockStore(), nil)
	created := generate(t, r)

	w := do(t, r, http.MethodGet, "/api/plans/"+created.ID+"/export", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	cd := w.Header().Get("Content-Disposition")
	if cd != `attachment; filename="plan-learn-go---rust-.json"` {
		t.Fatalf("unexpected Content-Disposition %q", cd)
	}
	body := decode[map[string]any](t, w)
	if body["goal"] != "Learn Go & Rust!" {
		t.Fatalf("unexpected export goal %v", body["goal"])
	}
}

func TestUnknownRoute(t *testing.T) {
	r := newTestRouter(newMockStore(), nil)
	w := do(t, r, http.MethodGet, "/api/nothing-here", "")

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	body := decode[map[string]string](t, w)
	if body["error"] != "Not Found" || body["path"] != "/api/nothing-here" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestRateLimitOnlyGuardsPipeline(t *testing.T) {
	svc := service.NewPlanService(newMockStore(), config.Planner{})
	r := chi.NewRouter()
	limiter := middleware.NewRateLimiter(0.001, 1)
	cfhttp.MountRoutes(r, &cfhttp.Handlers{Plans: svc}, limiter.Handler)

	body := `{"goal":"valid goal"}`
	if w := do(t, r, http.MethodPost, "/api/plans/generate", body); w.Code != http.StatusOK {
		t.Fatalf("first generate: expected 200, got %d", w.Code)
	}
	if w := do(t, r, http.MethodPost, "/api/plans/generate", body); w.Code != http.StatusTooManyRequests {
		t.Fatalf("second generate: expected 429, got %d", w.Code)
	}
	for range 3 {
		if w := do(t, r, http.MethodGet, "/api/plans", ""); w.Code != http.StatusOK {
			t.Fatalf("list should not be limited, got %d", w.Code)
		}
	}
}
