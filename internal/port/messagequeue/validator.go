package messagequeue

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Validate checks that data is JSON matching the schema of subject.
// Subjects outside plans.* pass unchecked.
func Validate(subject string, data []byte) error {
	if !json.Valid(data) {
		return fmt.Errorf("invalid JSON on subject %s", subject)
	}
	if !strings.HasPrefix(subject, "plans.") {
		return nil
	}

	var p PlanEventPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("schema validation failed for %s: %w", subject, err)
	}
	if p.PlanID == "" {
		return fmt.Errorf("schema validation failed for %s: %w", subject, errors.New("plan_id is required"))
	}
	return nil
}
