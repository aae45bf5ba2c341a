package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"go.uber.org/zap"
)

// EventBridge accepts at most 10 entries per PutEvents call.
const maxBatchSize = 10

// PutEventsAPI is the subset of the EventBridge client used here.
type PutEventsAPI interface {
	PutEvents(ctx context.Context, params *eventbridge.PutEventsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error)
}

// EventBridgePublisher publishes events to an EventBridge bus.
type EventBridgePublisher struct {
	client   PutEventsAPI
	eventBus string
	source   string
	logger   *zap.Logger
}

// NewEventBridgePublisher creates a new EventBridge publisher
func NewEventBridgePublisher(client PutEventsAPI, eventBus, source string, logger *zap.Logger) *EventBridgePublisher {
	if eventBus == "" {
		eventBus = "default"
	}
	if source == "" {
		source = "smartdocs.maintenance"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventBridgePublisher{client: client, eventBus: eventBus, source: source, logger: logger}
}

// Publish sends events in batches.
func (p *EventBridgePublisher) Publish(ctx context.Context, events ...Event) error {
	for i := 0; i < len(events); i += maxBatchSize {
		end := i + maxBatchSize
		if end > len(events) {
			end = len(events)
		}
		if err := p.publishBatch(ctx, events[i:end]); err != nil {
			return fmt.Errorf("failed to publish event batch: %w", err)
		}
	}
	return nil
}

func (p *EventBridgePublisher) publishBatch(ctx context.Context, batch []Event) error {
	entries := make([]types.PutEventsRequestEntry, 0, len(batch))
	for _, e := range batch {
		detail, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("failed to marshal event %s: %w", e.ID, err)
		}
		entries = append(entries, types.PutEventsRequestEntry{
			EventBusName: aws.String(p.eventBus),
			Source:       aws.String(p.source),
			DetailType:   aws.String(e.Type),
			Detail:       aws.String(string(detail)),
			Time:         aws.Time(e.OccurredAt),
			Resources:    []string{e.AggregateID},
		})
	}

	output, err := p.client.PutEvents(ctx, &eventbridge.PutEventsInput{Entries: entries})
	if err != nil {
		return fmt.Errorf("failed to put events: %w", err)
	}

	if output.FailedEntryCount > 0 {
		for i, entry := range output.Entries {
			if entry.ErrorCode != nil && i < len(batch) {
				p.logger.Error("Event rejected by EventBridge",
					zap.String("event_id", batch[i].ID),
					zap.String("error_code", aws.ToString(entry.ErrorCode)),
					zap.String("error_message", aws.ToString(entry.ErrorMessage)),
				)
			}
		}
		return fmt.Errorf("%d events failed to publish", output.FailedEntryCount)
	}
	return nil
}
