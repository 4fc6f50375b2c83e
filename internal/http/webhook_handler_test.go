package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fjod/go_shop/internal/domain"
	"github.com/fjod/go_shop/internal/payment"
)

type ReconcilerMock struct {
	err error
	got []domain.WebhookEvent
}

func (m *ReconcilerMock) Reconcile(_ context.Context, event domain.WebhookEvent) error {
	m.got = append(m.got, event)
	return m.err
}

const webhookSecret = "whsec_test"

func signedWebhookRequest(body string) *http.Request {
	r := httptest.NewRequest("POST", "/api/v1/webhooks/payment", strings.NewReader(body))
	r.Header.Set("X-Payment-Signature", payment.Sign([]byte(webhookSecret), []byte(body)))
	return r
}

func TestWebhook_ValidEvent(t *testing.T) {
	mock := &ReconcilerMock{}
	handler := NewWebhookHandler(webhookSecret, mock)

	body := `{"type":"payment.succeeded","authorization_reference":"auth_123","amount":5000}`
	recorder := httptest.NewRecorder()
	handler.HandlePaymentEvent(recorder, signedWebhookRequest(body))

	if recorder.Code != http.StatusOK {
		t.Fatalf("Expected status code %d, got %d: %s", http.StatusOK, recorder.Code, recorder.Body.String())
	}
	if !strings.Contains(recorder.Body.String(), `"received":true`) {
		t.Errorf("Expected received ack, got %s", recorder.Body.String())
	}
	if len(mock.got) != 1 {
		t.Fatalf("Expected 1 reconciled event, got %d", len(mock.got))
	}
	if mock.got[0].Type != domain.WebhookEventPaymentSucceeded {
		t.Errorf("Expected event type payment.succeeded, got %s", mock.got[0].Type)
	}
	if mock.got[0].AuthorizationRef != "auth_123" {
		t.Errorf("Expected authorization auth_123, got %s", mock.got[0].AuthorizationRef)
	}
}

func TestWebhook_BadSignature(t *testing.T) {
	mock := &ReconcilerMock{}
	handler := NewWebhookHandler(webhookSecret, mock)

	body := `{"type":"payment.succeeded","authorization_reference":"auth_123"}`
	request := httptest.NewRequest("POST", "/api/v1/webhooks/payment", strings.NewReader(body))
	request.Header.Set("X-Payment-Signature", payment.Sign([]byte("wrong-secret"), []byte(body)))

	recorder := httptest.NewRecorder()
	handler.HandlePaymentEvent(recorder, request)

	if recorder.Code != http.StatusBadRequest {
		t.Errorf("Expected status code %d, got %d", http.StatusBadRequest, recorder.Code)
	}
	if len(mock.got) != 0 {
		t.Errorf("Unsigned event must never reach the reconciler")
	}
}

func TestWebhook_MissingSignature(t *testing.T) {
	handler := NewWebhookHandler(webhookSecret, &ReconcilerMock{})

	request := httptest.NewRequest("POST", "/api/v1/webhooks/payment", strings.NewReader(`{}`))
	recorder := httptest.NewRecorder()
	handler.HandlePaymentEvent(recorder, request)

	if recorder.Code != http.StatusBadRequest {
		t.Errorf("Expected status code %d, got %d", http.StatusBadRequest, recorder.Code)
	}
}

func TestWebhook_MalformedPayload(t *testing.T) {
	handler := NewWebhookHandler(webhookSecret, &ReconcilerMock{})

	recorder := httptest.NewRecorder()
	handler.HandlePaymentEvent(recorder, signedWebhookRequest(`not json at all`))

	if recorder.Code != http.StatusBadRequest {
		t.Errorf("Expected status code %d, got %d", http.StatusBadRequest, recorder.Code)
	}
}

func TestWebhook_StorageFailureTriggersRedelivery(t *testing.T) {
	mock := &ReconcilerMock{err: errors.New("db down")}
	handler := NewWebhookHandler(webhookSecret, mock)

	body := `{"type":"payment.succeeded","authorization_reference":"auth_123"}`
	recorder := httptest.NewRecorder()
	handler.HandlePaymentEvent(recorder, signedWebhookRequest(body))

	if recorder.Code != http.StatusInternalServerError {
		t.Errorf("Expected status code %d so the gateway redelivers, got %d", http.StatusInternalServerError, recorder.Code)
	}
}
