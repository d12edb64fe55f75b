// Package broadcast defines the port for pushing plan events to live clients.
package broadcast

import "context"

// Broadcaster sends a typed event to all connected clients.
type Broadcaster interface {
	BroadcastEvent(ctx context.Context, eventType string, payload any)
}
