package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/metoro-io/inventory-reservation-go/internal/inventory"
	"github.com/metoro-io/inventory-reservation-go/internal/sequence"
)

// Publisher emits reservation lifecycle events to the inventory.events topic
// exchange. It implements inventory.EventSink; the Coordinator only calls it
// after the owning critical section has been released.
type Publisher struct {
	ch       *amqp.Channel
	seq      *sequence.Counter
	producer string
}

type PublisherOptions struct {
	Producer string
}

func NewPublisher(conn *amqp.Connection, seq *sequence.Counter, opts PublisherOptions) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := declareEventsExchange(ch); err != nil {
		return nil, fmt.Errorf("declare events exchange: %w", err)
	}

	producer := opts.Producer
	if producer == "" {
		producer = "inventory-reservation-service"
	}

	return &Publisher{ch: ch, seq: seq, producer: producer}, nil
}

func (p *Publisher) Close() error {
	return p.ch.Close()
}

func (p *Publisher) ReservationCreated(ctx context.Context, res inventory.Reservation) error {
	return p.publish(ctx, ReservationCreatedRoutingKey, EventTypeReservationCreated, reservationCreatedSchema, res)
}

func (p *Publisher) ReservationReleased(ctx context.Context, res inventory.Reservation) error {
	return p.publish(ctx, ReservationReleasedRoutingKey, EventTypeReservationReleased, reservationReleasedSchema, res)
}

func (p *Publisher) ReservationExpired(ctx context.Context, res inventory.Reservation) error {
	return p.publish(ctx, ReservationExpiredRoutingKey, EventTypeReservationExpired, reservationExpiredSchema, res)
}

func (p *Publisher) publish(ctx context.Context, routingKey, eventName, schema string, res inventory.Reservation) error {
	// Events for one product share a partition, so a consumer sees that
	// product's lifecycle in order.
	seq := p.seq.Next(res.ProductID)
	env := newReservationEvent(eventName, schema, p.producer, seq, res, time.Now().UTC())

	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", eventName, err)
	}
	return p.publishJSON(ctx, routingKey, body)
}

func (p *Publisher) publishJSON(ctx context.Context, routingKey string, body []byte) error {
	pubCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return p.ch.PublishWithContext(
		pubCtx,
		EventsExchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

func newReservationEvent(eventName, schema, producer string, seq int64, res inventory.Reservation, occurredAt time.Time) ReservationEvent {
	return ReservationEvent{
		EventEnvelope: EventEnvelope{
			EventName:     eventName,
			EventVersion:  1,
			EventID:       uuid.NewString(),
			CorrelationID: res.ID,
			Producer:      producer,
			PartitionKey:  res.ProductID,
			Sequence:      seq,
			OccurredAt:    occurredAt,
			Schema:        schema,
		},
		Payload: ReservationPayload{
			ReservationID: res.ID,
			ProductID:     res.ProductID,
			Quantity:      res.Quantity,
			State:         string(res.State),
			CreatedAt:     res.CreatedAt,
			ExpiresAt:     res.ExpiresAt,
		},
	}
}
