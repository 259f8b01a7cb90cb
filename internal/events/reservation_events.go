package events

import "time"

const (
	EventTypeReservationCreated  = "ReservationCreated"
	EventTypeReservationReleased = "ReservationReleased"
	EventTypeReservationExpired  = "ReservationExpired"

	reservationCreatedSchema  = "inventory.reservation.created.v1"
	reservationReleasedSchema = "inventory.reservation.released.v1"
	reservationExpiredSchema  = "inventory.reservation.expired.v1"
)

// ReservationPayload is the payload shared by the three lifecycle events.
type ReservationPayload struct {
	ReservationID string    `json:"reservationId"`
	ProductID     string    `json:"productId"`
	Quantity      int       `json:"quantity"`
	State         string    `json:"state"`
	CreatedAt     time.Time `json:"createdAt"`
	ExpiresAt     time.Time `json:"expiresAt"`
}

// ReservationEvent is an enveloped reservation lifecycle event. The typed
// payload shadows the envelope's raw payload for marshalling.
type ReservationEvent struct {
	EventEnvelope
	Payload ReservationPayload `json:"payload"`
}
