package planner

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/Strob0t/PlanForge/internal/domain/plan"
)

// Errors returned by ParseTasks. Generators wrap them so the service can
// log the reason for falling back.
var (
	ErrEmptyResponse = errors.New("empty response from task generator")
	ErrInvalidJSON   = errors.New("invalid JSON response from task generator")
	ErrMissingTasks  = errors.New("response has no tasks array")
)

const maxGoalPromptLen = 2000

const promptTemplate = `You are an expert project planner. Break down the following goal into a concise list of actionable tasks (3-8 tasks maximum).
For each task provide: title, 1-sentence description, and dependencies by index of prior tasks if any.
Return STRICT JSON with this schema: { "tasks": [ { "title": string, "description": string, "dependsOn": number[] } ] }.
Make sure all dependency indices are valid (within bounds of the task array).

Goal: %s`

// BuildPrompt renders the task breakdown prompt for goal.
func BuildPrompt(goal string) string {
	return fmt.Sprintf(promptTemplate, sanitizeGoal(goal))
}

// sanitizeGoal strips control characters, flattens the goal onto one line
// so it cannot start a new prompt section, and bounds its length.
func sanitizeGoal(s string) string {
	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == '\t' {
			return ' '
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	s = strings.TrimSpace(s)
	if r := []rune(s); len(r) > maxGoalPromptLen {
		s = string(r[:maxGoalPromptLen])
	}
	return s
}

// ParseTasks extracts the tasks array from a model reply. The reply may be
// wrapped in markdown code fences or surrounded by prose. Items inside the
// array are returned as-is; only a missing or non-array tasks field is an
// error.
func ParseTasks(text string) ([]plan.RawTask, error) {
	body := extractJSON(text)
	if body == "" {
		return nil, ErrEmptyResponse
	}

	var envelope struct {
		Tasks json.RawMessage `json:"tasks"`
	}
	if err := json.Unmarshal([]byte(body), &envelope); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidJSON, err)
	}

	trimmed := strings.TrimSpace(string(envelope.Tasks))
	if !strings.HasPrefix(trimmed, "[") {
		return nil, ErrMissingTasks
	}

	var items []json.RawMessage
	if err := json.Unmarshal(envelope.Tasks, &items); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidJSON, err)
	}

	tasks := make([]plan.RawTask, len(items))
	for i, item := range items {
		// Non-object items decode to an all-nil RawTask and get repaired.
		dec := json.NewDecoder(strings.NewReader(string(item)))
		dec.UseNumber()
		var obj map[string]any
		if err := dec.Decode(&obj); err != nil {
			continue
		}
		tasks[i] = plan.RawTask{
			Title:       obj["title"],
			Description: obj["description"],
			DependsOn:   obj["dependsOn"],
		}
	}
	return tasks, nil
}

func extractJSON(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimPrefix(s, "json")
		s = strings.TrimPrefix(s, "JSON")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		return strings.TrimSpace(s)
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}
