// Package plan defines the Plan aggregate and the pure pipeline that turns an
// untrusted task list into a date-scheduled breakdown: Sanitize, then Schedule.
package plan

import "time"

// Provenance records where a plan's task list came from.
type Provenance string

const (
	ProvenanceAI       Provenance = "ai"
	ProvenanceFallback Provenance = "fallback"
)

// FallbackModel is stored as the model name of fallback-derived plans.
const FallbackModel = "fallback"

// RawTask is a candidate task as received from an external producer.
// Every field may be absent or of the wrong type; Sanitize repairs it.
type RawTask struct {
	Title       any `json:"title"`
	Description any `json:"description"`
	DependsOn   any `json:"dependsOn"`
}

// Task is a sanitized task. Title is never empty and every DependsOn entry
// is a valid 0-based index into the task list it belongs to.
type Task struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	DependsOn   []int  `json:"dependsOn"`
}

// Raw converts a sanitized task back into its raw form.
func (t Task) Raw() RawTask {
	deps := make([]any, len(t.DependsOn))
	for i, d := range t.DependsOn {
		deps[i] = d
	}
	return RawTask{Title: t.Title, Description: t.Description, DependsOn: deps}
}

// ScheduledTask is a sanitized task placed on the calendar.
type ScheduledTask struct {
	Task
	StartDate     time.Time `json:"startDate"`
	EndDate       time.Time `json:"endDate"`
	EstimatedDays int       `json:"estimatedDays"`
}

// Plan is the only aggregate: a goal and its ordered, scheduled tasks.
// Tasks have no identity outside their plan; they reference each other by
// position only.
type Plan struct {
	ID          string          `json:"id"`
	Goal        string          `json:"goal"`
	HorizonDays int             `json:"horizonDays"`
	Tasks       []ScheduledTask `json:"tasks"`
	Provenance  Provenance      `json:"provenance"`
	Model       string          `json:"llmModel"`
	AIGenerated bool            `json:"aiGenerated"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// SetProvenance sets the provenance and keeps AIGenerated in step with it.
func (p *Plan) SetProvenance(pv Provenance) {
	p.Provenance = pv
	p.AIGenerated = pv == ProvenanceAI
}

// GenerateRequest holds the input for generating a new plan.
type GenerateRequest struct {
	Goal        string `json:"goal"`
	HorizonDays *int   `json:"horizonDays,omitempty"`
	StartDate   string `json:"startDate,omitempty"`
}

// PreviewRequest schedules caller-supplied raw tasks without calling the AI
// or persisting anything.
type PreviewRequest struct {
	HorizonDays *int      `json:"horizonDays,omitempty"`
	StartDate   string    `json:"startDate,omitempty"`
	Tasks       []RawTask `json:"tasks"`
}

// UpdateRequest fully replaces a stored plan's mutable fields.
type UpdateRequest struct {
	Goal        string          `json:"goal"`
	HorizonDays int             `json:"horizonDays"`
	Tasks       []ScheduledTask `json:"tasks"`
}

// RescheduleRequest re-runs the scheduler over a plan's existing tasks.
// Zero values keep the plan's current start date and horizon.
type RescheduleRequest struct {
	StartDate   string `json:"startDate,omitempty"`
	HorizonDays int    `json:"horizonDays,omitempty"`
}

// Clone returns a deep copy of p.
func (p *Plan) Clone() *Plan {
	c := *p
	c.Tasks = make([]ScheduledTask, len(p.Tasks))
	for i := range p.Tasks {
		c.Tasks[i] = p.Tasks[i]
		c.Tasks[i].DependsOn = append([]int{}, p.Tasks[i].DependsOn...)
	}
	return &c
}
