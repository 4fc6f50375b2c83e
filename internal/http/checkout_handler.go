package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/fjod/go_shop/internal/checkout"
	"github.com/fjod/go_shop/internal/domain"
)

type CheckoutService interface {
	StartPayment(ctx context.Context, userID string, lines []domain.CartLine) (*checkout.StartPaymentResult, error)
	CommitOrder(ctx context.Context, req *checkout.CommitRequest) (*checkout.CommitResult, error)
}

type CheckoutHandler struct {
	service CheckoutService
}

func NewCheckoutHandler(service CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{service: service}
}

// startPaymentRequest deliberately has no amount field. Anything price-shaped
// the client sends is discarded by the decoder; the charge is computed from
// the catalog.
type startPaymentRequest struct {
	Items []domain.CartLine `json:"items"`
}

type startPaymentResponse struct {
	Reference    string `json:"reference"`
	ClientSecret string `json:"client_secret"`
	AmountCents  int64  `json:"amount_cents"`
}

func (h *CheckoutHandler) StartPayment(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "missing user authentication")
		return
	}

	var req startPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}

	result, err := h.service.StartPayment(r.Context(), userID, req.Items)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, startPaymentResponse{
		Reference:    result.Reference,
		ClientSecret: result.ClientSecret,
		AmountCents:  result.AmountCents,
	})
}

type commitOrderRequest struct {
	AuthorizationRef string            `json:"authorization_reference"`
	AddressID        string            `json:"address_id"`
	Items            []domain.CartLine `json:"items"`
}

type commitOrderResponse struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

func (h *CheckoutHandler) CommitOrder(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "missing user authentication")
		return
	}

	var req commitOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}
	if req.AuthorizationRef == "" {
		respondError(w, http.StatusBadRequest, "missing_authorization", "authorization_reference is required")
		return
	}
	if req.AddressID == "" {
		respondError(w, http.StatusBadRequest, "missing_address", "address_id is required")
		return
	}

	result, err := h.service.CommitOrder(r.Context(), &checkout.CommitRequest{
		UserID:           userID,
		AuthorizationRef: req.AuthorizationRef,
		AddressID:        req.AddressID,
		Lines:            req.Items,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, commitOrderResponse{
		OrderID: result.OrderID.String(),
		Status:  result.Status.String(),
	})
}
