package plan

import (
	"fmt"
	"strings"
	"time"

	"github.com/Strob0t/PlanForge/internal/domain"
)

const (
	MinGoalLength      = 5
	MinHorizonDays     = 1
	MaxHorizonDays     = 365
	DefaultHorizonDays = 14
	MaxTasks           = 500
)

// ValidateHorizon checks that days lies within [MinHorizonDays, MaxHorizonDays].
func ValidateHorizon(days int) error {
	if days < MinHorizonDays || days > MaxHorizonDays {
		return fmt.Errorf("%w: horizonDays must be between %d and %d", domain.ErrValidation, MinHorizonDays, MaxHorizonDays)
	}
	return nil
}

// ValidateGoal checks the trimmed goal length.
func ValidateGoal(goal string) error {
	if len([]rune(strings.TrimSpace(goal))) < MinGoalLength {
		return fmt.Errorf("%w: goal must be at least %d characters", domain.ErrValidation, MinGoalLength)
	}
	return nil
}

// ParseStartDate parses an RFC 3339 instant. An empty string yields now.
func ParseStartDate(s string, now time.Time) (time.Time, error) {
	if s == "" {
		return now, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: startDate must be an ISO-8601 date-time", domain.ErrValidation)
	}
	return t, nil
}

// Normalize validates the request and resolves its defaults. It returns the
// horizon and start instant to schedule with.
func (r *GenerateRequest) Normalize(defaultHorizon int, now time.Time) (horizon int, start time.Time, err error) {
	r.Goal = strings.TrimSpace(r.Goal)
	if err := ValidateGoal(r.Goal); err != nil {
		return 0, time.Time{}, err
	}
	horizon = defaultHorizon
	if r.HorizonDays != nil {
		horizon = *r.HorizonDays
	}
	if err := ValidateHorizon(horizon); err != nil {
		return 0, time.Time{}, err
	}
	start, err = ParseStartDate(r.StartDate, now)
	if err != nil {
		return 0, time.Time{}, err
	}
	return horizon, start, nil
}

// Normalize validates a preview request and resolves its defaults.
func (r *PreviewRequest) Normalize(defaultHorizon int, now time.Time) (horizon int, start time.Time, err error) {
	if len(r.Tasks) > MaxTasks {
		return 0, time.Time{}, fmt.Errorf("%w: at most %d tasks are allowed", domain.ErrValidation, MaxTasks)
	}
	horizon = defaultHorizon
	if r.HorizonDays != nil {
		horizon = *r.HorizonDays
	}
	if err := ValidateHorizon(horizon); err != nil {
		return 0, time.Time{}, err
	}
	start, err = ParseStartDate(r.StartDate, now)
	if err != nil {
		return 0, time.Time{}, err
	}
	return horizon, start, nil
}

// Validate checks a full-replacement update. Dependencies outside the task
// list are dropped and EstimatedDays is recomputed from each task's dates.
func (r *UpdateRequest) Validate() error {
	r.Goal = strings.TrimSpace(r.Goal)
	if err := ValidateGoal(r.Goal); err != nil {
		return err
	}
	if err := ValidateHorizon(r.HorizonDays); err != nil {
		return err
	}
	if len(r.Tasks) > MaxTasks {
		return fmt.Errorf("%w: at most %d tasks are allowed", domain.ErrValidation, MaxTasks)
	}
	for i := range r.Tasks {
		t := &r.Tasks[i]
		t.Title = strings.TrimSpace(t.Title)
		if t.Title == "" {
			return fmt.Errorf("%w: task %d: title is required", domain.ErrValidation, i)
		}
		if t.EndDate.Before(t.StartDate) {
			return fmt.Errorf("%w: task %d: endDate is before startDate", domain.ErrValidation, i)
		}
		deps := []int{}
		for _, d := range t.DependsOn {
			if d >= 0 && d < len(r.Tasks) {
				deps = append(deps, d)
			}
		}
		t.DependsOn = deps
		t.EstimatedDays = EstimatedDays(t.StartDate, t.EndDate)
	}
	return nil
}
