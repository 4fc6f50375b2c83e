package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/fjod/go_shop/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type OrderStore interface {
	ListOrdersByUserID(ctx context.Context, userID string) ([]*domain.Order, error)
	GetOrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) error
}

type OrderHandler struct {
	store OrderStore
}

func NewOrderHandler(store OrderStore) *OrderHandler {
	return &OrderHandler{store: store}
}

func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "missing user authentication")
		return
	}

	orders, err := h.store.ListOrdersByUserID(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if orders == nil {
		orders = []*domain.Order{}
	}
	respondJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "missing user authentication")
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "order id must be a UUID")
		return
	}

	order, err := h.store.GetOrderByID(r.Context(), orderID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	// Another user's order looks like a missing one.
	if order.UserID != userID {
		respondError(w, http.StatusNotFound, "order_not_found", "order not found")
		return
	}
	respondJSON(w, http.StatusOK, order)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus is the back-office transition endpoint. It refuses anything
// the order lifecycle does not allow, so a delivered order can never be
// flipped back to pending by a fat-fingered admin.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "order id must be a UUID")
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}

	target := domain.OrderStatus(req.Status)
	if !target.Valid() {
		respondError(w, http.StatusBadRequest, "invalid_status", "unknown order status")
		return
	}

	order, err := h.store.GetOrderByID(r.Context(), orderID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if !domain.CanTransitionTo(order.Status, target) {
		respondError(w, http.StatusConflict, "invalid_transition",
			"cannot move order from "+order.Status.String()+" to "+target.String())
		return
	}

	if err := h.store.UpdateOrderStatus(r.Context(), orderID, target); err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"order_id": orderID.String(),
		"status":   target.String(),
	})
}
