package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/fjod/go_shop/internal/checkout"
	"github.com/fjod/go_shop/internal/payment"
	"github.com/fjod/go_shop/internal/pricing"
	"github.com/fjod/go_shop/internal/repository"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

func getUserIDFromContext(ctx context.Context) string {
	if userID, ok := ctx.Value("user_id").(string); ok {
		return userID
	}
	return ""
}

func getRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value("request_id").(string); ok {
		return requestID
	}
	return ""
}

// handleServiceError maps the service error taxonomy to HTTP. The client must
// be able to tell "payment failed, retry payment" (402) apart from "order
// could not be placed after a successful payment, contact support" (409).
func handleServiceError(w http.ResponseWriter, err error) {
	var notSucceeded *checkout.PaymentNotSucceededError

	switch {
	case errors.Is(err, checkout.ErrUnauthenticated):
		respondError(w, http.StatusUnauthorized, "unauthenticated", "missing user authentication")
	case errors.Is(err, payment.ErrAuthorizationNotFound):
		respondError(w, http.StatusNotFound, "authorization_not_found", "payment authorization not found")
	case errors.Is(err, checkout.ErrAuthorizationOwnership):
		respondError(w, http.StatusForbidden, "authorization_ownership", "payment does not belong to user")
	case errors.As(err, &notSucceeded):
		respondError(w, http.StatusPaymentRequired, "payment_not_succeeded", notSucceeded.Error())
	case errors.Is(err, checkout.ErrAmountMismatch):
		// internal detail stays internal; the workflow already logged it
		respondError(w, http.StatusConflict, "order_failed", "order could not be placed")
	case errors.Is(err, checkout.ErrAddressNotFound):
		respondError(w, http.StatusNotFound, "address_not_found", "shipping address not found")
	case errors.Is(err, pricing.ErrProductNotFound):
		respondError(w, http.StatusNotFound, "product_not_found", "one or more products no longer exist")
	case errors.Is(err, pricing.ErrEmptyCart), errors.Is(err, pricing.ErrInvalidQuantity):
		respondError(w, http.StatusBadRequest, "invalid_cart", err.Error())
	case errors.Is(err, payment.ErrGatewayTimeout):
		respondError(w, http.StatusGatewayTimeout, "gateway_timeout", "payment gateway timed out, poll order status before retrying")
	case errors.Is(err, repository.ErrOrderNotFound):
		respondError(w, http.StatusNotFound, "order_not_found", "order not found")
	case errors.Is(err, repository.ErrProductNotFound):
		respondError(w, http.StatusNotFound, "product_not_found", "product not found")
	case errors.Is(err, repository.ErrReviewExists):
		respondError(w, http.StatusConflict, "review_exists", "product already reviewed")
	default:
		log.Printf("internal error: %v", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
