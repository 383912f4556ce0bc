package events

import (
	"context"
	"fmt"

	ce "github.com/cloudevents/sdk-go/v2"
	"github.com/cloudevents/sdk-go/v2/client"
)

// CloudEventsPublisher sends events to an HTTP sink
type CloudEventsPublisher struct {
	ceClient client.Client
	source   string
}

// NewCloudEventsPublisher creates a CloudEvents HTTP client targeting sinkURL
func NewCloudEventsPublisher(sinkURL, source string) (*CloudEventsPublisher, error) {
	ceClient, err := ce.NewClientHTTP(ce.WithTarget(sinkURL))
	if err != nil {
		return nil, fmt.Errorf("failed to create CloudEvents client: %w", err)
	}

	return &CloudEventsPublisher{
		ceClient: ceClient,
		source:   source,
	}, nil
}

// Publish sends one event
func (p *CloudEventsPublisher) Publish(ctx context.Context, e ImageGenerated) error {
	event := ce.NewEvent()
	event.SetID(e.ID)
	event.SetSource(p.source)
	event.SetType(TypeImageGenerated)
	event.SetTime(e.At)

	if err := event.SetData(ce.ApplicationJSON, e); err != nil {
		return fmt.Errorf("failed to set event data: %w", err)
	}

	result := p.ceClient.Send(ctx, event)
	if ce.IsUndelivered(result) {
		return fmt.Errorf("failed to deliver event: %w", result)
	}
	return nil
}

// Close is a no-op; the HTTP client holds no connection
func (p *CloudEventsPublisher) Close() error {
	return nil
}
