package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/fjod/go_shop/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pendingOrder(ref string) *domain.Order {
	return &domain.Order{
		ID:               uuid.New(),
		UserID:           "user-a",
		AuthorizationRef: ref,
		Status:           domain.OrderStatusPending,
	}
}

func TestReconcile_SucceededAdvancesPending(t *testing.T) {
	repo := NewMockOrderRepository()
	repo.Orders["auth_123"] = pendingOrder("auth_123")
	svc := NewService(repo, &MockGateway{}, &MockVerifier{}, &MockNotifier{})

	event := domain.WebhookEvent{Type: domain.WebhookEventPaymentSucceeded, AuthorizationRef: "auth_123"}

	err := svc.Reconcile(context.Background(), event)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusProcessing, repo.Orders["auth_123"].Status)
	require.Len(t, repo.StatusUpdates, 1)

	// duplicate delivery is a no-op returning success
	err = svc.Reconcile(context.Background(), event)
	require.NoError(t, err)
	assert.Len(t, repo.StatusUpdates, 1, "second delivery must not write again")
}

func TestReconcile_SucceededNoOrderYet(t *testing.T) {
	repo := NewMockOrderRepository()
	svc := NewService(repo, &MockGateway{}, &MockVerifier{}, &MockNotifier{})

	// commit has not finished yet; the webhook must ack and not create anything
	err := svc.Reconcile(context.Background(), domain.WebhookEvent{
		Type:             domain.WebhookEventPaymentSucceeded,
		AuthorizationRef: "auth_unknown",
	})

	require.NoError(t, err)
	assert.Empty(t, repo.Orders)
	assert.Empty(t, repo.StatusUpdates)
}

func TestReconcile_FailedCancelsPending(t *testing.T) {
	repo := NewMockOrderRepository()
	repo.Orders["auth_123"] = pendingOrder("auth_123")
	svc := NewService(repo, &MockGateway{}, &MockVerifier{}, &MockNotifier{})

	err := svc.Reconcile(context.Background(), domain.WebhookEvent{
		Type:             domain.WebhookEventPaymentFailed,
		AuthorizationRef: "auth_123",
	})

	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, repo.Orders["auth_123"].Status)
}

func TestReconcile_FailedIgnoredPastPending(t *testing.T) {
	repo := NewMockOrderRepository()
	order := pendingOrder("auth_123")
	order.Status = domain.OrderStatusShipped
	repo.Orders["auth_123"] = order
	svc := NewService(repo, &MockGateway{}, &MockVerifier{}, &MockNotifier{})

	err := svc.Reconcile(context.Background(), domain.WebhookEvent{
		Type:             domain.WebhookEventPaymentFailed,
		AuthorizationRef: "auth_123",
	})

	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusShipped, repo.Orders["auth_123"].Status)
	assert.Empty(t, repo.StatusUpdates)
}

func TestReconcile_TerminalStatusUntouched(t *testing.T) {
	repo := NewMockOrderRepository()
	order := pendingOrder("auth_123")
	order.Status = domain.OrderStatusDelivered
	repo.Orders["auth_123"] = order
	svc := NewService(repo, &MockGateway{}, &MockVerifier{}, &MockNotifier{})

	err := svc.Reconcile(context.Background(), domain.WebhookEvent{
		Type:             domain.WebhookEventPaymentSucceeded,
		AuthorizationRef: "auth_123",
	})

	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusDelivered, repo.Orders["auth_123"].Status)
}

func TestReconcile_StorageErrorPropagates(t *testing.T) {
	repo := NewMockOrderRepository()
	repo.GetErr = errors.New("connection reset")
	svc := NewService(repo, &MockGateway{}, &MockVerifier{}, &MockNotifier{})

	err := svc.Reconcile(context.Background(), domain.WebhookEvent{
		Type:             domain.WebhookEventPaymentSucceeded,
		AuthorizationRef: "auth_123",
	})

	assert.Error(t, err, "storage failure must signal the gateway to retry")
}

func TestReconcile_UnknownEventType(t *testing.T) {
	repo := NewMockOrderRepository()
	repo.Orders["auth_123"] = pendingOrder("auth_123")
	svc := NewService(repo, &MockGateway{}, &MockVerifier{}, &MockNotifier{})

	err := svc.Reconcile(context.Background(), domain.WebhookEvent{
		Type:             "payment.refunded",
		AuthorizationRef: "auth_123",
	})

	require.NoError(t, err)
	assert.Empty(t, repo.StatusUpdates)
}
