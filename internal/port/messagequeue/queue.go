// Package messagequeue defines the port for publishing plan events.
package messagequeue

import "context"

// Publisher sends plan lifecycle events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
	IsConnected() bool
	Close() error
}

// Subjects used by PlanForge.
const (
	SubjectPlanCreated = "plans.created"
	SubjectPlanUpdated = "plans.updated"
	SubjectPlanDeleted = "plans.deleted"
)

// StreamName is the JetStream stream capturing all plan subjects.
const StreamName = "PLANFORGE"

// StreamSubjects is the subject filter of StreamName.
var StreamSubjects = []string{"plans.>"}
