package plan

import (
	"strings"
	"time"
)

// Export is the portable JSON form of a plan offered as a download.
type Export struct {
	Goal        string         `json:"goal"`
	HorizonDays int            `json:"horizonDays"`
	CreatedAt   time.Time      `json:"createdAt"`
	Tasks       []ExportedTask `json:"tasks"`
}

// ExportedTask is a scheduled task without plan-internal fields.
type ExportedTask struct {
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	StartDate     time.Time `json:"startDate"`
	EndDate       time.Time `json:"endDate"`
	EstimatedDays int       `json:"estimatedDays"`
	DependsOn     []int     `json:"dependsOn"`
}

// NewExport builds the export document for p.
func NewExport(p *Plan) *Export {
	tasks := make([]ExportedTask, len(p.Tasks))
	for i := range p.Tasks {
		t := &p.Tasks[i]
		deps := t.DependsOn
		if deps == nil {
			deps = []int{}
		}
		tasks[i] = ExportedTask{
			Title:         t.Title,
			Description:   t.Description,
			StartDate:     t.StartDate,
			EndDate:       t.EndDate,
			EstimatedDays: t.EstimatedDays,
			DependsOn:     deps,
		}
	}
	return &Export{
		Goal:        p.Goal,
		HorizonDays: p.HorizonDays,
		CreatedAt:   p.CreatedAt,
		Tasks:       tasks,
	}
}

// ExportFilename returns "plan-<slug>.json" where every non-alphanumeric
// ASCII character of the goal becomes '-' and letters are lowercased.
func ExportFilename(goal string) string {
	var b strings.Builder
	b.WriteString("plan-")
	for _, r := range goal {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		default:
			b.WriteByte('-')
		}
	}
	b.WriteString(".json")
	return b.String()
}
