package inventory

import (
	"sync"
	"time"
)

// Table is the collection of outstanding reservations, keyed by reservation
// id. Like the Ledger it holds no business logic: state transitions are
// decided by the Coordinator, which calls MarkReleased/MarkExpired while
// holding the owning product's critical section.
type Table struct {
	mu   sync.RWMutex
	byID map[string]*Reservation
}

func NewTable() *Table {
	return &Table{byID: make(map[string]*Reservation)}
}

func (t *Table) Insert(res Reservation) {
	t.mu.Lock()
	defer t.mu.Unlock()
	cp := res
	t.byID[res.ID] = &cp
}

// Get returns a copy of the reservation.
func (t *Table) Get(id string) (Reservation, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	res, ok := t.byID[id]
	if !ok {
		return Reservation{}, false
	}
	return *res, true
}

// MarkReleased transitions an ACTIVE reservation to RELEASED and returns the
// state the reservation had before the call. A terminal reservation is left
// untouched, so the caller can tell from the previous state whether this call
// performed the (single) terminal transition.
func (t *Table) MarkReleased(id string) (State, bool) {
	return t.transition(id, StateReleased)
}

// MarkExpired is MarkReleased for the EXPIRED terminal state.
func (t *Table) MarkExpired(id string) (State, bool) {
	return t.transition(id, StateExpired)
}

func (t *Table) transition(id string, to State) (State, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	res, ok := t.byID[id]
	if !ok {
		return "", false
	}
	prev := res.State
	if prev == StateActive {
		res.State = to
	}
	return prev, true
}

// ListActiveExpiring returns copies of the ACTIVE reservations whose expiry
// is not after the given instant. The snapshot is taken under the table lock
// and released before returning, so the caller iterates without holding any
// cross-product lock.
func (t *Table) ListActiveExpiring(before time.Time) []Reservation {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []Reservation
	for _, res := range t.byID {
		if res.State == StateActive && !res.ExpiresAt.After(before) {
			out = append(out, *res)
		}
	}
	return out
}
