package inventory

import (
	"errors"
	"testing"
)

func TestLedgerGet(t *testing.T) {
	l := NewLedger(map[string]int{"p1": 7})

	entry, err := l.Get("p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.Quantity != 7 || entry.Reserved != 0 || entry.Available() != 7 {
		t.Fatalf("unexpected entry: %+v", entry)
	}

	if _, err := l.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLedgerTryReserve(t *testing.T) {
	tests := map[string]struct {
		initial   map[string]int
		productID string
		qty       int
		wantErr   error
	}{
		"grants within available": {
			initial:   map[string]int{"p1": 5},
			productID: "p1",
			qty:       5,
		},
		"rejects beyond available": {
			initial:   map[string]int{"p1": 5},
			productID: "p1",
			qty:       6,
			wantErr:   ErrInsufficientStock,
		},
		"rejects zero quantity": {
			initial:   map[string]int{"p1": 5},
			productID: "p1",
			qty:       0,
			wantErr:   ErrInvalidQuantity,
		},
		"rejects negative quantity": {
			initial:   map[string]int{"p1": 5},
			productID: "p1",
			qty:       -3,
			wantErr:   ErrInvalidQuantity,
		},
		"unknown product": {
			initial:   map[string]int{"p1": 5},
			productID: "missing",
			qty:       1,
			wantErr:   ErrNotFound,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			l := NewLedger(tt.initial)
			err := l.TryReserve(tt.productID, tt.qty)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				entry, _ := l.Get(tt.productID)
				if entry.Reserved != 0 {
					t.Fatalf("rejected reserve mutated state: %+v", entry)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			entry, _ := l.Get(tt.productID)
			if entry.Reserved != tt.qty {
				t.Fatalf("reserved = %d, want %d", entry.Reserved, tt.qty)
			}
		})
	}
}

func TestLedgerTryReserveReportsCounts(t *testing.T) {
	l := NewLedger(map[string]int{"p1": 10})
	if err := l.TryReserve("p1", 8); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := l.TryReserve("p1", 5)
	var insufficient *InsufficientStockError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	if insufficient.Requested != 5 || insufficient.Available != 2 {
		t.Fatalf("unexpected counts: %+v", insufficient)
	}
}

func TestLedgerReleaseClamps(t *testing.T) {
	l := NewLedger(map[string]int{"p1": 5})
	if err := l.TryReserve("p1", 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	l.Release("p1", 4)
	entry, _ := l.Get("p1")
	if entry.Reserved != 0 {
		t.Fatalf("reserved = %d, want clamped 0", entry.Reserved)
	}

	// Releasing an unknown product is a no-op.
	l.Release("missing", 1)
}

func TestLedgerSetQuantity(t *testing.T) {
	l := NewLedger(map[string]int{"p1": 5})
	if err := l.TryReserve("p1", 4); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := l.SetQuantity("p1", 10); err != nil {
		t.Fatalf("restock: %v", err)
	}
	entry, _ := l.Get("p1")
	if entry.Quantity != 10 || entry.Reserved != 4 {
		t.Fatalf("unexpected entry after restock: %+v", entry)
	}

	if err := l.SetQuantity("p1", 3); !errors.Is(err, ErrQuantityBelowReserved) {
		t.Fatalf("expected ErrQuantityBelowReserved, got %v", err)
	}

	if err := l.SetQuantity("p2", 20); err != nil {
		t.Fatalf("insert via restock: %v", err)
	}
	entry, err := l.Get("p2")
	if err != nil || entry.Quantity != 20 {
		t.Fatalf("new product not inserted: %+v, %v", entry, err)
	}

	if err := l.SetQuantity("p3", -1); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}
}
