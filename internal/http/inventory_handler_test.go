package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/metoro-io/inventory-reservation-go/internal/inventory"
)

type fakeService struct {
	reserveRes inventory.Reservation
	reserveErr error

	releaseRes     inventory.Reservation
	releaseOutcome inventory.ReleaseOutcome
	releaseErr     error

	availability inventory.Availability
	availErr     error

	restockErr error

	lastProductID string
	lastQuantity  int
}

func (f *fakeService) Reserve(ctx context.Context, productID string, qty int) (inventory.Reservation, error) {
	f.lastProductID, f.lastQuantity = productID, qty
	return f.reserveRes, f.reserveErr
}

func (f *fakeService) Release(ctx context.Context, reservationID string) (inventory.Reservation, inventory.ReleaseOutcome, error) {
	return f.releaseRes, f.releaseOutcome, f.releaseErr
}

func (f *fakeService) Availability(ctx context.Context, productID string) (inventory.Availability, error) {
	f.lastProductID = productID
	return f.availability, f.availErr
}

func (f *fakeService) Restock(ctx context.Context, productID string, quantity int) (inventory.Availability, error) {
	f.lastProductID, f.lastQuantity = productID, quantity
	if f.restockErr != nil {
		return inventory.Availability{}, f.restockErr
	}
	return inventory.Availability{ProductID: productID, Quantity: quantity, Available: quantity}, nil
}

func doRequest(t *testing.T, svc ReservationService, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	router := NewRouter(NewHandler(svc))

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := doRequest(t, &fakeService{}, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "healthy" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestGetAvailability(t *testing.T) {
	svc := &fakeService{availability: inventory.Availability{
		ProductID: "p1", Quantity: 100, Reserved: 30, Available: 70,
	}}
	rec := doRequest(t, svc, http.MethodGet, "/inventory/p1", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "application/json") {
		t.Fatalf("expected JSON content type, got %q", ct)
	}

	var got inventory.Availability
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != svc.availability {
		t.Fatalf("body mismatch\ngot  %+v\nwant %+v", got, svc.availability)
	}
	if svc.lastProductID != "p1" {
		t.Fatalf("product id not forwarded: %q", svc.lastProductID)
	}
}

func TestGetAvailability_NotFound(t *testing.T) {
	svc := &fakeService{availErr: inventory.ErrNotFound}
	rec := doRequest(t, svc, http.MethodGet, "/inventory/missing", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestReserve(t *testing.T) {
	expires := time.Date(2025, 3, 1, 12, 15, 0, 0, time.UTC)

	tests := map[string]struct {
		body       string
		svc        *fakeService
		wantStatus int
		check      func(t *testing.T, body map[string]any)
	}{
		"success": {
			body: `{"product_id":"p1","quantity":15}`,
			svc: &fakeService{reserveRes: inventory.Reservation{
				ID: "res-1", ProductID: "p1", Quantity: 15,
				State: inventory.StateActive, ExpiresAt: expires,
			}},
			wantStatus: http.StatusOK,
			check: func(t *testing.T, body map[string]any) {
				if body["reservation_id"] != "res-1" || body["status"] != "reserved" {
					t.Fatalf("unexpected body: %+v", body)
				}
				if body["expires_at"] != "2025-03-01T12:15:00Z" {
					t.Fatalf("unexpected expires_at: %v", body["expires_at"])
				}
			},
		},
		"insufficient stock": {
			body: `{"product_id":"p1","quantity":15}`,
			svc: &fakeService{reserveErr: &inventory.InsufficientStockError{
				ProductID: "p1", Requested: 15, Available: 10,
			}},
			wantStatus: http.StatusConflict,
			check: func(t *testing.T, body map[string]any) {
				if body["requested"] != float64(15) || body["available"] != float64(10) {
					t.Fatalf("unexpected body: %+v", body)
				}
			},
		},
		"product not found": {
			body:       `{"product_id":"missing","quantity":1}`,
			svc:        &fakeService{reserveErr: inventory.ErrNotFound},
			wantStatus: http.StatusNotFound,
		},
		"zero quantity rejected before engine": {
			body:       `{"product_id":"p1","quantity":0}`,
			svc:        &fakeService{},
			wantStatus: http.StatusBadRequest,
		},
		"negative quantity": {
			body:       `{"product_id":"p1","quantity":-5}`,
			svc:        &fakeService{},
			wantStatus: http.StatusBadRequest,
		},
		"missing product id": {
			body:       `{"quantity":5}`,
			svc:        &fakeService{},
			wantStatus: http.StatusBadRequest,
		},
		"malformed json": {
			body:       `{invalid`,
			svc:        &fakeService{},
			wantStatus: http.StatusBadRequest,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			rec := doRequest(t, tt.svc, http.MethodPost, "/inventory/reserve", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d, body: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if tt.check != nil {
				var body map[string]any
				if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
					t.Fatalf("decode: %v", err)
				}
				tt.check(t, body)
			}
		})
	}
}

func TestReserve_ValidationNeverReachesEngine(t *testing.T) {
	svc := &fakeService{}
	doRequest(t, svc, http.MethodPost, "/inventory/reserve", `{"product_id":"p1","quantity":-1}`)
	if svc.lastQuantity != 0 {
		t.Fatalf("invalid quantity reached the engine: %d", svc.lastQuantity)
	}
}

func TestRelease(t *testing.T) {
	tests := map[string]struct {
		body       string
		svc        *fakeService
		wantStatus int
		wantOut    string
	}{
		"released": {
			body: `{"reservation_id":"res-1"}`,
			svc: &fakeService{
				releaseRes:     inventory.Reservation{ID: "res-1", ProductID: "p1"},
				releaseOutcome: inventory.OutcomeReleased,
			},
			wantStatus: http.StatusOK,
			wantOut:    "released",
		},
		"already released is 200": {
			body: `{"reservation_id":"res-1"}`,
			svc: &fakeService{
				releaseRes:     inventory.Reservation{ID: "res-1", ProductID: "p1"},
				releaseOutcome: inventory.OutcomeAlreadyReleased,
			},
			wantStatus: http.StatusOK,
			wantOut:    "already_released",
		},
		"already expired is 200": {
			body: `{"reservation_id":"res-1"}`,
			svc: &fakeService{
				releaseRes:     inventory.Reservation{ID: "res-1", ProductID: "p1"},
				releaseOutcome: inventory.OutcomeAlreadyExpired,
			},
			wantStatus: http.StatusOK,
			wantOut:    "already_expired",
		},
		"not found": {
			body:       `{"reservation_id":"nope"}`,
			svc:        &fakeService{releaseErr: inventory.ErrReservationNotFound},
			wantStatus: http.StatusNotFound,
		},
		"missing id": {
			body:       `{}`,
			svc:        &fakeService{},
			wantStatus: http.StatusBadRequest,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			rec := doRequest(t, tt.svc, http.MethodPost, "/inventory/release", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d, body: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if tt.wantOut != "" {
				var body map[string]string
				if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
					t.Fatalf("decode: %v", err)
				}
				if body["status"] != tt.wantOut {
					t.Fatalf("status = %q, want %q", body["status"], tt.wantOut)
				}
			}
		})
	}
}

func TestRestock(t *testing.T) {
	rec := doRequest(t, &fakeService{}, http.MethodPost, "/inventory/restock", `{"product_id":"p1","quantity":25}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got inventory.Availability
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Quantity != 25 {
		t.Fatalf("unexpected body: %+v", got)
	}

	rec = doRequest(t, &fakeService{restockErr: inventory.ErrQuantityBelowReserved},
		http.MethodPost, "/inventory/restock", `{"product_id":"p1","quantity":1}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}

	rec = doRequest(t, &fakeService{}, http.MethodPost, "/inventory/restock", `{"product_id":"p1","quantity":-2}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
