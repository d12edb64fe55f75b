package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MountRoutes registers the health, WebSocket and plan API routes on r.
// limit, when non-nil, guards the endpoints that run the planning pipeline.
func MountRoutes(r chi.Router, h *Handlers, limit func(http.Handler) http.Handler) {
	r.NotFound(notFound)
	r.Get("/health", h.Health)
	if h.Hub != nil {
		r.Get("/ws", h.Hub.HandleWS)
	}

	r.Route("/api/plans", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if limit != nil {
				r.Use(limit)
			}
			r.Post("/generate", h.GeneratePlan)
			r.Post("/preview", h.PreviewPlan)
		})

		r.Get("/", h.ListPlans)
		r.Get("/{id}", h.GetPlan)
		r.Put("/{id}", h.UpdatePlan)
		r.Delete("/{id}", h.DeletePlan)
		r.Post("/{id}/reschedule", h.ReschedulePlan)
		r.Get("/{id}/export", h.ExportPlan)
	})
}
