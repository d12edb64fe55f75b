package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Strob0t/PlanForge/internal/adapter/ws"
	"github.com/Strob0t/PlanForge/internal/domain/plan"
	"github.com/Strob0t/PlanForge/internal/port/messagequeue"
	"github.com/Strob0t/PlanForge/internal/service"
)

const (
	defaultBodyLimit = 1 << 20 // 1 MB
	healthTimeout    = 2 * time.Second
	planNotFound     = "plan not found"
)

// Handlers holds the HTTP handler dependencies. Hub and Queue are optional
// and only reported by Health.
type Handlers struct {
	Plans     *service.PlanService
	Hub       *ws.Hub
	Queue     messagequeue.Publisher
	BodyLimit int64
}

func (h *Handlers) bodyLimit() int64 {
	if h.BodyLimit > 0 {
		return h.BodyLimit
	}
	return defaultBodyLimit
}

// GeneratePlan handles POST /api/plans/generate
func (h *Handlers) GeneratePlan(w http.ResponseWriter, r *http.Request) {
	handleCreate(h.bodyLimit(), http.StatusOK, h.Plans.Generate)(w, r)
}

type previewResponse struct {
	TotalDays int                  `json:"totalDays"`
	Tasks     []plan.ScheduledTask `json:"tasks"`
}

// PreviewPlan handles POST /api/plans/preview
func (h *Handlers) PreviewPlan(w http.ResponseWriter, r *http.Request) {
	preview := func(ctx context.Context, req *plan.PreviewRequest) (previewResponse, error) {
		tasks, err := h.Plans.Preview(ctx, req)
		if err != nil {
			return previewResponse{}, err
		}
		return previewResponse{TotalDays: plan.TotalDays(tasks), Tasks: tasks}, nil
	}
	handleCreate(h.bodyLimit(), http.StatusOK, preview)(w, r)
}

// ListPlans handles GET /api/plans
func (h *Handlers) ListPlans(w http.ResponseWriter, r *http.Request) {
	handleList(h.Plans.List)(w, r)
}

// GetPlan handles GET /api/plans/{id}
func (h *Handlers) GetPlan(w http.ResponseWriter, r *http.Request) {
	handleGet(h.Plans.Get, planNotFound)(w, r)
}

// UpdatePlan handles PUT /api/plans/{id}
func (h *Handlers) UpdatePlan(w http.ResponseWriter, r *http.Request) {
	handleUpdate(h.bodyLimit(), h.Plans.Update, planNotFound)(w, r)
}

// ReschedulePlan handles POST /api/plans/{id}/reschedule
func (h *Handlers) ReschedulePlan(w http.ResponseWriter, r *http.Request) {
	handleUpdate(h.bodyLimit(), h.Plans.Reschedule, planNotFound)(w, r)
}

type deleteResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// DeletePlan handles DELETE /api/plans/{id}
func (h *Handlers) DeletePlan(w http.ResponseWriter, r *http.Request) {
	handleDelete(h.Plans.Delete, planNotFound, deleteResponse{Success: true, Message: "Plan deleted successfully"})(w, r)
}

// ExportPlan handles GET /api/plans/{id}/export
func (h *Handlers) ExportPlan(w http.ResponseWriter, r *http.Request) {
	exp, filename, err := h.Plans.Export(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err, planNotFound)
		return
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	writeJSON(w, http.StatusOK, exp)
}

type healthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Database  string `json:"database"`
	NATS      string `json:"nats"`
	WSClients int    `json:"wsClients"`
	Timestamp string `json:"timestamp"`
}

// Health handles GET /health. A failing database ping reports "degraded"
// with 503.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	resp := healthResponse{
		Status:    "ok",
		Service:   "planforge",
		Database:  "ok",
		NATS:      "disabled",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	status := http.StatusOK

	if err := h.Plans.Ping(ctx); err != nil {
		resp.Status = "degraded"
		resp.Database = "unavailable"
		status = http.StatusServiceUnavailable
	}
	if h.Queue != nil {
		resp.NATS = "disconnected"
		if h.Queue.IsConnected() {
			resp.NATS = "connected"
		}
	}
	if h.Hub != nil {
		resp.WSClients = h.Hub.ConnectionCount()
	}
	writeJSON(w, status, resp)
}
