package ws

import (
	"context"
	"encoding/json"
	"log/slog"
)

// Event types pushed to clients.
const (
	EventPlanCreated = "plan.created"
	EventPlanUpdated = "plan.updated"
	EventPlanDeleted = "plan.deleted"
)

// PlanEvent is the payload of every plan.* event.
type PlanEvent struct {
	PlanID      string `json:"planId"`
	Goal        string `json:"goal,omitempty"`
	HorizonDays int    `json:"horizonDays,omitempty"`
	TaskCount   int    `json:"taskCount"`
	AIGenerated bool   `json:"aiGenerated"`
}

// BroadcastEvent marshals payload and broadcasts it under eventType.
func (h *Hub) BroadcastEvent(ctx context.Context, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal ws event payload", "type", eventType, "error", err)
		return
	}

	h.Broadcast(ctx, Message{
		Type:    eventType,
		Payload: json.RawMessage(data),
	})
}
