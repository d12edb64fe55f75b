// Package natskv implements the plan cache port on a NATS JetStream KV
// bucket, shared by every PlanForge instance.
package natskv

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/Strob0t/PlanForge/internal/domain/plan"
)

// BucketPlans is the KV bucket holding cached plans.
const BucketPlans = "planforge-plans"

// Cache stores plans as JSON in a KV bucket. Expiry is set on the bucket.
type Cache struct {
	kv jetstream.KeyValue
}

// New creates a KV-backed plan cache.
func New(kv jetstream.KeyValue) *Cache {
	return &Cache{kv: kv}
}

// Get decodes the cached plan for id. Lookup failures count as misses.
func (c *Cache) Get(ctx context.Context, id string) (*plan.Plan, bool) {
	entry, err := c.kv.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, jetstream.ErrKeyNotFound) {
			slog.WarnContext(ctx, "plan kv get failed", "plan_id", id, "error", err)
		}
		return nil, false
	}

	var p plan.Plan
	if err := json.Unmarshal(entry.Value(), &p); err != nil {
		slog.WarnContext(ctx, "plan kv entry corrupt", "plan_id", id, "error", err)
		return nil, false
	}
	return &p, true
}

// Set stores p. Failures are logged; the store stays authoritative.
func (c *Cache) Set(ctx context.Context, p *plan.Plan) {
	data, err := json.Marshal(p)
	if err != nil {
		slog.WarnContext(ctx, "plan kv encode failed", "plan_id", p.ID, "error", err)
		return
	}
	if _, err := c.kv.Put(ctx, p.ID, data); err != nil {
		slog.WarnContext(ctx, "plan kv put failed", "plan_id", p.ID, "error", err)
	}
}

// Delete removes id.
func (c *Cache) Delete(ctx context.Context, id string) {
	if err := c.kv.Delete(ctx, id); err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		slog.WarnContext(ctx, "plan kv delete failed", "plan_id", id, "error", err)
	}
}
