package events

import (
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	EventsExchange = "inventory.events"

	ReservationCreatedRoutingKey  = "reservation.created.v1"
	ReservationReleasedRoutingKey = "reservation.released.v1"
	ReservationExpiredRoutingKey  = "reservation.expired.v1"
)

func declareEventsExchange(ch *amqp.Channel) error {
	return ch.ExchangeDeclare(
		EventsExchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
}
