package inventory

import (
	"fmt"
	"sync"
)

// Ledger holds the authoritative per-product stock counters. It is a passive
// data holder: the internal mutex guards only the map structure (lookups and
// inserts), while mutation of a product's counters must happen inside that
// product's critical section owned by the Coordinator. The Ledger trusts its
// caller for that guarantee.
type Ledger struct {
	mu      sync.RWMutex
	entries map[string]*stockRecord
}

type stockRecord struct {
	quantity int
	reserved int
}

// NewLedger builds a ledger from the initial catalog quantities. Reserved
// counts always start at zero.
func NewLedger(initial map[string]int) *Ledger {
	entries := make(map[string]*stockRecord, len(initial))
	for productID, quantity := range initial {
		if quantity < 0 {
			quantity = 0
		}
		entries[productID] = &stockRecord{quantity: quantity}
	}
	return &Ledger{entries: entries}
}

func (l *Ledger) lookup(productID string) (*stockRecord, bool) {
	l.mu.RLock()
	rec, ok := l.entries[productID]
	l.mu.RUnlock()
	return rec, ok
}

// Get returns a copy of the product's counters.
func (l *Ledger) Get(productID string) (StockEntry, error) {
	rec, ok := l.lookup(productID)
	if !ok {
		return StockEntry{}, ErrNotFound
	}
	return StockEntry{ProductID: productID, Quantity: rec.quantity, Reserved: rec.reserved}, nil
}

// TryReserve increments the product's reserved count by qty if enough stock
// is available. On rejection nothing is mutated.
func (l *Ledger) TryReserve(productID string, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidQuantity, qty)
	}
	rec, ok := l.lookup(productID)
	if !ok {
		return ErrNotFound
	}
	if rec.reserved < 0 || rec.reserved > rec.quantity {
		return fmt.Errorf("%w: product %s reserved=%d quantity=%d",
			ErrInvariantViolation, productID, rec.reserved, rec.quantity)
	}
	available := rec.quantity - rec.reserved
	if qty > available {
		return &InsufficientStockError{ProductID: productID, Requested: qty, Available: available}
	}
	rec.reserved += qty
	return nil
}

// Release decrements the product's reserved count by qty. The count is
// clamped at zero in case a double-release bug ever reaches this layer;
// the Coordinator's terminal-state check makes that unreachable.
func (l *Ledger) Release(productID string, qty int) {
	rec, ok := l.lookup(productID)
	if !ok {
		return
	}
	rec.reserved -= qty
	if rec.reserved < 0 {
		rec.reserved = 0
	}
}

// SetQuantity sets the product's total owned units (administrative restock),
// inserting the product if it is new. It refuses to set the total below the
// currently reserved count, which would break the ledger invariant.
func (l *Ledger) SetQuantity(productID string, quantity int) error {
	if quantity < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidQuantity, quantity)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	rec, ok := l.entries[productID]
	if !ok {
		l.entries[productID] = &stockRecord{quantity: quantity}
		return nil
	}
	if quantity < rec.reserved {
		return fmt.Errorf("%w: cannot set quantity %d below reserved %d for %s",
			ErrQuantityBelowReserved, quantity, rec.reserved, productID)
	}
	rec.quantity = quantity
	return nil
}
