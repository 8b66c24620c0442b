package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"
)

// Publisher emits task lifecycle events to NATS JetStream. A nil Publisher is
// valid and drops every event, so callers need no NATS-configured check.
type Publisher struct {
	js jetstream.JetStream
}

// NewPublisher creates a Publisher. Returns nil when client is nil so a
// disabled NATS section degrades to a no-op publisher.
func NewPublisher(client *Client) *Publisher {
	if client == nil {
		return nil
	}
	return &Publisher{js: client.JetStream()}
}

// TaskEvent publishes a task lifecycle event. Failures are logged, not
// returned; event delivery is best-effort and must never fail a mutation.
func (p *Publisher) TaskEvent(ctx context.Context, eventType, source string, taskID uuid.UUID, description string, dueDate *time.Time) {
	if p == nil {
		return
	}

	event := TaskEvent{
		Type:        eventType,
		TaskID:      taskID,
		Description: description,
		DueDate:     dueDate,
		Source:      source,
		Timestamp:   time.Now().UTC(),
	}

	if err := p.publish(ctx, fmt.Sprintf("%s.%s", SubjectTaskPrefix, eventType), event); err != nil {
		slog.Warn("publishing task event", "type", eventType, "task_id", taskID, "error", err)
	}
}

func (p *Publisher) publish(ctx context.Context, subject string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshaling event for %s: %w", subject, err)
	}
	if _, err := p.js.Publish(ctx, subject, payload); err != nil {
		return fmt.Errorf("publishing to %s: %w", subject, err)
	}
	return nil
}
