// Package events publishes SmartDocs change events. EventBridge is used when
// a bus is configured; otherwise events are only logged.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Event types.
const (
	DocumentCreated = "document.created"
	DocumentUpdated = "document.updated"
	DocumentDeleted = "document.deleted"
	ChangeNotified  = "maintenance.change_notified"
	DriftDetected   = "maintenance.drift_detected"
)

// Event is a single change notification.
type Event struct {
	ID          string         `json:"event_id"`
	Type        string         `json:"event_type"`
	AggregateID string         `json:"aggregate_id"`
	OccurredAt  time.Time      `json:"occurred_at"`
	Data        map[string]any `json:"data,omitempty"`
}

// New creates an event with a fresh id.
func New(eventType, aggregateID string, data map[string]any) Event {
	return Event{
		ID:          uuid.New().String(),
		Type:        eventType,
		AggregateID: aggregateID,
		OccurredAt:  time.Now().UTC(),
		Data:        data,
	}
}

// Publisher delivers events.
type Publisher interface {
	Publish(ctx context.Context, events ...Event) error
}

// LogPublisher writes events to the log.
type LogPublisher struct {
	logger *zap.Logger
}

// NewLogPublisher creates a LogPublisher.
func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogPublisher{logger: logger}
}

// Publish logs each event at info level.
func (p *LogPublisher) Publish(ctx context.Context, events ...Event) error {
	for _, e := range events {
		p.logger.Info("Event published",
			zap.String("event_id", e.ID),
			zap.String("event_type", e.Type),
			zap.String("aggregate_id", e.AggregateID),
		)
	}
	return nil
}

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Publish records events.
func (r *Recorder) Publish(ctx context.Context, events ...Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events...)
	return nil
}

// Events returns a copy of everything recorded.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Types returns the recorded event types in order.
func (r *Recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]string, len(r.events))
	for i, e := range r.events {
		types[i] = e.Type
	}
	return types
}
