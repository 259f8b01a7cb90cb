package inventory

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultTTL bounds how long an unconfirmed reservation holds stock before
// the sweep returns it to the available pool.
const DefaultTTL = 15 * time.Minute

// ReleaseOutcome reports what a release call actually did. Re-releasing a
// terminal reservation is a no-op for the caller, not an error.
type ReleaseOutcome string

const (
	OutcomeReleased        ReleaseOutcome = "released"
	OutcomeAlreadyReleased ReleaseOutcome = "already_released"
	OutcomeAlreadyExpired  ReleaseOutcome = "already_expired"
)

// EventSink receives lifecycle notifications after the owning critical
// section has been released; implementations may do I/O. Publish failures
// are logged by the Coordinator and never affect engine state.
type EventSink interface {
	ReservationCreated(ctx context.Context, res Reservation) error
	ReservationReleased(ctx context.Context, res Reservation) error
	ReservationExpired(ctx context.Context, res Reservation) error
}

// Coordinator owns every mutation path to the ledger's reserved counts and
// the reservation states. All of: reading availability, deciding a grant,
// writing reserved, and inserting the reservation row happen inside a single
// critical section keyed by product id, so check-then-commit is atomic per
// product while unrelated products proceed in parallel. A request holds at
// most one product's section at a time and never holds it across I/O.
type Coordinator struct {
	ledger *Ledger
	table  *Table
	sink   EventSink
	logger *log.Logger
	ttl    time.Duration
	now    func() time.Time

	locks sync.Map // product id -> chan struct{} (capacity 1)
}

type CoordinatorOptions struct {
	// TTL is how long a reservation stays ACTIVE before the sweep may
	// expire it. Defaults to DefaultTTL.
	TTL time.Duration
	// Sink receives lifecycle events; nil disables emission.
	Sink EventSink
	// Now overrides the clock, letting tests drive expiry synchronously.
	Now    func() time.Time
	Logger *log.Logger
}

func NewCoordinator(ledger *Ledger, table *Table, opts CoordinatorOptions) *Coordinator {
	c := &Coordinator{
		ledger: ledger,
		table:  table,
		sink:   opts.Sink,
		logger: opts.Logger,
		ttl:    opts.TTL,
		now:    opts.Now,
	}
	if c.ttl <= 0 {
		c.ttl = DefaultTTL
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.logger == nil {
		c.logger = log.Default()
	}
	return c
}

// acquire enters the product's critical section, honoring cancellation while
// waiting. The returned func exits the section.
func (c *Coordinator) acquire(ctx context.Context, productID string) (func(), error) {
	v, _ := c.locks.LoadOrStore(productID, make(chan struct{}, 1))
	sem := v.(chan struct{})
	select {
	case sem <- struct{}{}:
		return func() { <-sem }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Reserve grants a reservation of qty units of productID, or reports why it
// cannot. Concurrent callers for the same product are totally ordered by the
// critical section: whichever enters first is evaluated against the current
// reserved count, so grants for a product can never sum past its total.
func (c *Coordinator) Reserve(ctx context.Context, productID string, qty int) (Reservation, error) {
	if qty <= 0 {
		return Reservation{}, fmt.Errorf("%w: %d", ErrInvalidQuantity, qty)
	}

	unlock, err := c.acquire(ctx, productID)
	if err != nil {
		return Reservation{}, err
	}

	if err := c.ledger.TryReserve(productID, qty); err != nil {
		unlock()
		if errors.Is(err, ErrInvariantViolation) {
			c.logger.Printf("FATAL ledger state for %s: %v", productID, err)
		}
		return Reservation{}, err
	}

	now := c.now().UTC()
	res := Reservation{
		ID:        uuid.NewString(),
		ProductID: productID,
		Quantity:  qty,
		State:     StateActive,
		CreatedAt: now,
		ExpiresAt: now.Add(c.ttl),
	}
	c.table.Insert(res)
	unlock()

	c.emit(ctx, res, StateActive)
	return res, nil
}

// Release transitions the reservation to RELEASED and returns its quantity
// to the available pool. The terminal-state check and the ledger decrement
// share the product's critical section with any concurrent expiry, so the
// decrement happens exactly once however release and expiry race.
func (c *Coordinator) Release(ctx context.Context, reservationID string) (Reservation, ReleaseOutcome, error) {
	res, ok := c.table.Get(reservationID)
	if !ok {
		return Reservation{}, "", ErrReservationNotFound
	}
	if res.State.Terminal() {
		return res, terminalOutcome(res.State), nil
	}

	unlock, err := c.acquire(ctx, res.ProductID)
	if err != nil {
		return Reservation{}, "", err
	}

	prev, ok := c.table.MarkReleased(reservationID)
	if !ok {
		unlock()
		return Reservation{}, "", ErrReservationNotFound
	}
	if prev != StateActive {
		unlock()
		res, _ = c.table.Get(reservationID)
		return res, terminalOutcome(prev), nil
	}

	c.ledger.Release(res.ProductID, res.Quantity)
	unlock()

	res.State = StateReleased
	c.emit(ctx, res, StateReleased)
	return res, OutcomeReleased, nil
}

// Availability returns a snapshot of the product's counters taken inside the
// critical section, so the triple is consistent at a single instant.
func (c *Coordinator) Availability(ctx context.Context, productID string) (Availability, error) {
	unlock, err := c.acquire(ctx, productID)
	if err != nil {
		return Availability{}, err
	}
	defer unlock()

	entry, err := c.ledger.Get(productID)
	if err != nil {
		return Availability{}, err
	}
	return Availability{
		ProductID: productID,
		Quantity:  entry.Quantity,
		Reserved:  entry.Reserved,
		Available: entry.Available(),
	}, nil
}

// Restock sets the product's total owned units, inserting the product if it
// is new, and returns the resulting snapshot.
func (c *Coordinator) Restock(ctx context.Context, productID string, quantity int) (Availability, error) {
	if quantity < 0 {
		return Availability{}, fmt.Errorf("%w: %d", ErrInvalidQuantity, quantity)
	}

	unlock, err := c.acquire(ctx, productID)
	if err != nil {
		return Availability{}, err
	}
	defer unlock()

	if err := c.ledger.SetQuantity(productID, quantity); err != nil {
		return Availability{}, err
	}
	entry, err := c.ledger.Get(productID)
	if err != nil {
		return Availability{}, err
	}
	return Availability{
		ProductID: productID,
		Quantity:  entry.Quantity,
		Reserved:  entry.Reserved,
		Available: entry.Available(),
	}, nil
}

// SweepExpired expires every ACTIVE reservation whose expiry is not after
// now, returning each one's quantity to the available pool. Expiry uses the
// same per-product section and terminal-state check as Release, so a race
// between the two decrements reserved exactly once. Returns the number of
// reservations expired by this pass.
func (c *Coordinator) SweepExpired(ctx context.Context, now time.Time) int {
	expired := 0
	for _, res := range c.table.ListActiveExpiring(now) {
		unlock, err := c.acquire(ctx, res.ProductID)
		if err != nil {
			return expired
		}

		prev, ok := c.table.MarkExpired(res.ID)
		if !ok || prev != StateActive {
			unlock()
			continue
		}
		c.ledger.Release(res.ProductID, res.Quantity)
		unlock()

		expired++
		res.State = StateExpired
		c.emit(ctx, res, StateExpired)
	}
	return expired
}

// RunSweeper drives SweepExpired on a ticker until the context is cancelled.
func (c *Coordinator) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.logger.Printf("expiry sweeper started, interval=%s ttl=%s", interval, c.ttl)
	for {
		select {
		case <-ctx.Done():
			c.logger.Printf("expiry sweeper stopped")
			return
		case <-ticker.C:
			if n := c.SweepExpired(ctx, c.now()); n > 0 {
				c.logger.Printf("expired %d reservation(s)", n)
			}
		}
	}
}

func (c *Coordinator) emit(ctx context.Context, res Reservation, state State) {
	if c.sink == nil {
		return
	}
	var err error
	switch state {
	case StateActive:
		err = c.sink.ReservationCreated(ctx, res)
	case StateReleased:
		err = c.sink.ReservationReleased(ctx, res)
	case StateExpired:
		err = c.sink.ReservationExpired(ctx, res)
	}
	if err != nil {
		c.logger.Printf("publish reservation event id=%s state=%s: %v", res.ID, state, err)
	}
}

func terminalOutcome(s State) ReleaseOutcome {
	if s == StateExpired {
		return OutcomeAlreadyExpired
	}
	return OutcomeAlreadyReleased
}
