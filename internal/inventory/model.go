package inventory

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound            = errors.New("product not found")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrInvalidQuantity     = errors.New("invalid quantity")
	ErrInsufficientStock   = errors.New("insufficient stock")

	// ErrQuantityBelowReserved rejects a restock that would set a product's
	// total below its currently reserved count.
	ErrQuantityBelowReserved = errors.New("quantity below reserved")

	// ErrInvariantViolation reports a broken 0 <= reserved <= quantity
	// invariant. It is unreachable by construction; if observed it is fatal
	// to the operation and must never be papered over.
	ErrInvariantViolation = errors.New("stock invariant violated")
)

// InsufficientStockError carries the counts a caller needs to report a
// rejected reservation. It matches ErrInsufficientStock via errors.Is.
type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// State is the lifecycle state of a reservation. ACTIVE is the only
// non-terminal state; RELEASED and EXPIRED are terminal and idempotent.
type State string

const (
	StateActive   State = "ACTIVE"
	StateReleased State = "RELEASED"
	StateExpired  State = "EXPIRED"
)

// Terminal reports whether the state admits no further transitions.
func (s State) Terminal() bool {
	return s == StateReleased || s == StateExpired
}

// StockEntry is a point-in-time copy of one product's ledger record.
type StockEntry struct {
	ProductID string
	Quantity  int
	Reserved  int
}

func (e StockEntry) Available() int { return e.Quantity - e.Reserved }

// Reservation is a claim of Quantity units against ProductID. Its quantity
// is counted in the ledger's reserved total exactly while State is ACTIVE.
type Reservation struct {
	ID        string    `json:"reservation_id"`
	ProductID string    `json:"product_id"`
	Quantity  int       `json:"quantity"`
	State     State     `json:"state"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Availability is the self-consistent snapshot returned to queries.
type Availability struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Reserved  int    `json:"reserved"`
	Available int    `json:"available"`
}
