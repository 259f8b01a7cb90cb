package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/metoro-io/inventory-reservation-go/internal/inventory"
)

// ReservationService matches the Coordinator methods the facade uses.
// This allows us to fake the engine in tests.
type ReservationService interface {
	Reserve(ctx context.Context, productID string, qty int) (inventory.Reservation, error)
	Release(ctx context.Context, reservationID string) (inventory.Reservation, inventory.ReleaseOutcome, error)
	Availability(ctx context.Context, productID string) (inventory.Availability, error)
	Restock(ctx context.Context, productID string, quantity int) (inventory.Availability, error)
}

type Handler struct {
	svc ReservationService
}

func NewHandler(svc ReservationService) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *Handler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "product_id")
	avail, err := h.svc.Availability(r.Context(), productID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, avail)
}

type reserveRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type reserveResponse struct {
	ReservationID string `json:"reservation_id"`
	ProductID     string `json:"product_id"`
	Quantity      int    `json:"quantity"`
	Status        string `json:"status"`
	ExpiresAt     string `json:"expires_at"`
}

func (h *Handler) Reserve(w http.ResponseWriter, r *http.Request) {
	var req reserveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ProductID == "" {
		writeErrorMessage(w, http.StatusBadRequest, "product_id is required")
		return
	}
	if req.Quantity <= 0 {
		writeErrorMessage(w, http.StatusBadRequest, "quantity must be a positive integer")
		return
	}

	res, err := h.svc.Reserve(r.Context(), req.ProductID, req.Quantity)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, reserveResponse{
		ReservationID: res.ID,
		ProductID:     res.ProductID,
		Quantity:      res.Quantity,
		Status:        "reserved",
		ExpiresAt:     res.ExpiresAt.Format(time.RFC3339),
	})
}

type releaseRequest struct {
	ReservationID string `json:"reservation_id"`
}

func (h *Handler) Release(w http.ResponseWriter, r *http.Request) {
	var req releaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ReservationID == "" {
		writeErrorMessage(w, http.StatusBadRequest, "reservation_id is required")
		return
	}

	res, outcome, err := h.svc.Release(r.Context(), req.ReservationID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":         string(outcome),
		"reservation_id": res.ID,
		"product_id":     res.ProductID,
	})
}

type restockRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func (h *Handler) Restock(w http.ResponseWriter, r *http.Request) {
	var req restockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ProductID == "" {
		writeErrorMessage(w, http.StatusBadRequest, "product_id is required")
		return
	}
	if req.Quantity < 0 {
		writeErrorMessage(w, http.StatusBadRequest, "quantity must not be negative")
		return
	}

	avail, err := h.svc.Restock(r.Context(), req.ProductID, req.Quantity)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, avail)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeError maps the engine's error taxonomy to transport outcomes.
// Insufficient stock is an expected outcome of contention, reported as a
// conflict; only unrecognized errors become a 500.
func writeError(w http.ResponseWriter, err error) {
	var insufficient *inventory.InsufficientStockError
	switch {
	case errors.As(err, &insufficient):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":      "insufficient stock",
			"product_id": insufficient.ProductID,
			"requested":  insufficient.Requested,
			"available":  insufficient.Available,
		})
	case errors.Is(err, inventory.ErrQuantityBelowReserved):
		writeErrorMessage(w, http.StatusConflict, "quantity below reserved")
	case errors.Is(err, inventory.ErrNotFound):
		writeErrorMessage(w, http.StatusNotFound, "product not found")
	case errors.Is(err, inventory.ErrReservationNotFound):
		writeErrorMessage(w, http.StatusNotFound, "reservation not found")
	case errors.Is(err, inventory.ErrInvalidQuantity):
		writeErrorMessage(w, http.StatusBadRequest, "invalid quantity")
	default:
		writeErrorMessage(w, http.StatusInternalServerError, "internal error")
	}
}
