package messagequeue

import "time"

// PlanEventPayload is the schema for all plans.* messages.
type PlanEventPayload struct {
	PlanID      string    `json:"plan_id"`
	Goal        string    `json:"goal,omitempty"`
	HorizonDays int       `json:"horizon_days,omitempty"`
	TaskCount   int       `json:"task_count"`
	Provenance  string    `json:"provenance,omitempty"`
	Model       string    `json:"llm_model,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}
