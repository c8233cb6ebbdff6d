// Package eventbus publishes domain events to the surrounding application
// over a RabbitMQ topic exchange.
package eventbus

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	sharedDomain "github.com/hourjungle/billingcore/internal/shared/domain"
)

// Publisher publishes serialized domain events.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload []byte) error
	Close() error
}

// Envelope is the wire format for a published domain event.
type Envelope struct {
	EventID       uuid.UUID       `json:"event_id"`
	AggregateID   uuid.UUID       `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	RoutingKey    string          `json:"routing_key"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Data          json.RawMessage `json:"data"`
}

// Encode wraps a domain event in an Envelope and serializes it.
func Encode(event sharedDomain.DomainEvent) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{
		EventID:       event.EventID(),
		AggregateID:   event.AggregateID(),
		AggregateType: event.AggregateType(),
		RoutingKey:    event.RoutingKey(),
		OccurredAt:    event.OccurredAt(),
		Data:          data,
	})
}
