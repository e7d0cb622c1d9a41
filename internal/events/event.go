package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gellahi/EduConnect-Pakistan/internal/metrics"

	"github.com/google/uuid"
)

const (
	SessionBooked        = "session.booked"
	SessionStatusChanged = "session.status_changed"
	ReviewCreated        = "review.created"
	TutorVerified        = "tutor.verified"
)

// Event is a domain fact published after the change that caused it has
// been committed.
type Event struct {
	ID         uuid.UUID       `json:"id"`
	Type       string          `json:"type"`
	Key        string          `json:"key"`
	OccurredAt time.Time       `json:"occurredAt"`
	Payload    json.RawMessage `json:"payload"`
}

// New builds an event keyed by the aggregate it describes.
func New(eventType string, key uuid.UUID, payload interface{}) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{
		ID:         uuid.New(),
		Type:       eventType,
		Key:        key.String(),
		OccurredAt: time.Now().UTC(),
		Payload:    raw,
	}, nil
}

// Publisher hands events to a broker.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	System() string
	Close() error
}

// Emitter is what services depend on: fire and forget.
type Emitter interface {
	Emit(ctx context.Context, eventType string, key uuid.UUID, payload interface{})
}

// BestEffort publishes through a Publisher and only logs failures, so a
// broker outage never undoes or fails a committed operation.
type BestEffort struct {
	publisher Publisher
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

func NewBestEffort(p Publisher, logger *slog.Logger, m *metrics.Metrics) *BestEffort {
	return &BestEffort{publisher: p, logger: logger, metrics: m}
}

func (b *BestEffort) Emit(ctx context.Context, eventType string, key uuid.UUID, payload interface{}) {
	e, err := New(eventType, key, payload)
	if err != nil {
		b.logger.ErrorContext(ctx, "failed to encode event", "type", eventType, "error", err)
		return
	}

	start := time.Now()
	err = b.publisher.Publish(ctx, e)
	b.metrics.Messaging.RecordPublish(ctx, b.publisher.System(), eventType, time.Since(start), err)
	if err != nil {
		b.logger.ErrorContext(ctx, "failed to publish event",
			"system", b.publisher.System(), "type", eventType, "key", e.Key, "error", err)
		return
	}
	b.logger.DebugContext(ctx, "event published", "system", b.publisher.System(), "type", eventType, "key", e.Key)
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) System() string                       { return "none" }
func (Nop) Close() error                         { return nil }
