// Package eventbridge publishes domain events onto an EventBridge bus.
package eventbridge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"go.uber.org/zap"

	"schemstory-backend/application/ports"
)

const eventSource = "schemstory.backend"

// EventBridgeAPI is the subset of the EventBridge client the publisher uses.
type EventBridgeAPI interface {
	PutEvents(ctx context.Context, params *eventbridge.PutEventsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error)
}

// Publisher implements ports.EventPublisher against EventBridge.
type Publisher struct {
	client  EventBridgeAPI
	busName string
	logger  *zap.Logger
}

// NewPublisher creates a new Publisher for the named bus.
func NewPublisher(client EventBridgeAPI, busName string, logger *zap.Logger) ports.EventPublisher {
	return &Publisher{client: client, busName: busName, logger: logger}
}

// Publish puts one event onto the bus. The detail payload is JSON-encoded.
func (p *Publisher) Publish(ctx context.Context, eventType string, detail any) error {
	payload, err := json.Marshal(detail)
	if err != nil {
		return fmt.Errorf("failed to marshal event detail: %w", err)
	}

	out, err := p.client.PutEvents(ctx, &eventbridge.PutEventsInput{
		Entries: []types.PutEventsRequestEntry{
			{
				EventBusName: aws.String(p.busName),
				Source:       aws.String(eventSource),
				DetailType:   aws.String(eventType),
				Detail:       aws.String(string(payload)),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to put event %s: %w", eventType, err)
	}
	if out.FailedEntryCount > 0 {
		entry := out.Entries[0]
		return fmt.Errorf("event %s rejected: %s: %s",
			eventType, aws.ToString(entry.ErrorCode), aws.ToString(entry.ErrorMessage))
	}

	p.logger.Debug("event published",
		zap.String("eventType", eventType),
		zap.String("bus", p.busName),
	)
	return nil
}
