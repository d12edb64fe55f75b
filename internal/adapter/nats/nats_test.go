package nats

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/Strob0t/PlanForge/internal/logger"
	"github.com/Strob0t/PlanForge/internal/port/messagequeue"
)

// testConnect connects to NATS or skips the test if NATS_URL is not set.
func testConnect(t *testing.T) *Queue {
	t.Helper()

	url := os.Getenv("NATS_URL")
	if url == "" {
		t.Skip("requires NATS_URL")
	}

	q, err := Connect(context.Background(), url)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() {
		if err := q.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return q
}

func TestQueuePublishPlanCreated(t *testing.T) {
	q := testConnect(t)
	if !q.IsConnected() {
		t.Fatal("expected connected queue")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	consumer, err := q.js.OrderedConsumer(ctx, messagequeue.StreamName, jetstream.OrderedConsumerConfig{
		FilterSubjects: []string{messagequeue.SubjectPlanCreated},
		DeliverPolicy:  jetstream.DeliverNewPolicy,
	})
	if err != nil {
		t.Fatalf("OrderedConsumer: %v", err)
	}

	payload := messagequeue.PlanEventPayload{PlanID: "plan-" + t.Name(), TaskCount: 3, OccurredAt: time.Now().UTC()}
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}

	pubCtx := logger.WithRequestID(ctx, "req-nats-test")
	if err := q.Publish(pubCtx, messagequeue.SubjectPlanCreated, data); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	msg, err := consumer.Next(jetstream.FetchMaxWait(5 * time.Second))
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	var got messagequeue.PlanEventPayload
	if err := json.Unmarshal(msg.Data(), &got); err != nil {
		t.Fatal(err)
	}
	if got.PlanID != payload.PlanID {
		t.Errorf("expected plan_id %s, got %s", payload.PlanID, got.PlanID)
	}
	if msg.Headers().Get(headerRequestID) != "req-nats-test" {
		t.Errorf("expected request id header, got %q", msg.Headers().Get(headerRequestID))
	}
}

func TestQueuePublishRejectsInvalidPayload(t *testing.T) {
	q := testConnect(t)

	err := q.Publish(context.Background(), messagequeue.SubjectPlanDeleted, []byte(`{"task_count":0}`))
	if err == nil {
		t.Fatal("expected validation error for payload without plan_id")
	}
}
