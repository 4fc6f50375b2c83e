package http

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/fjod/go_shop/internal/domain"
	"github.com/fjod/go_shop/internal/payment"
)

type Reconciler interface {
	Reconcile(ctx context.Context, event domain.WebhookEvent) error
}

// WebhookHandler receives asynchronous gateway notifications. The signature
// gate is the only authentication on this route.
type WebhookHandler struct {
	secret     string
	reconciler Reconciler
}

func NewWebhookHandler(secret string, reconciler Reconciler) *WebhookHandler {
	return &WebhookHandler{secret: secret, reconciler: reconciler}
}

func (h *WebhookHandler) HandlePaymentEvent(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_body", "failed to read request body")
		return
	}

	signature := r.Header.Get("X-Payment-Signature")
	if !payment.VerifySignature([]byte(h.secret), body, signature) {
		log.Printf("webhook rejected: bad signature (request %s)", getRequestID(r.Context()))
		respondError(w, http.StatusBadRequest, "invalid_signature", "signature verification failed")
		return
	}

	var event domain.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_payload", "malformed event payload")
		return
	}

	if err := h.reconciler.Reconcile(r.Context(), event); err != nil {
		// Non-2xx makes the gateway redeliver, which is what we want when
		// storage was unavailable.
		log.Printf("webhook processing failed for %s: %v", event.AuthorizationRef, err)
		respondError(w, http.StatusInternalServerError, "processing_failed", "event could not be processed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"received": true})
}
