package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/fjod/go_shop/internal/domain"
	"github.com/fjod/go_shop/internal/repository"
)

// Reconcile applies an asynchronous gateway event to order state. Webhooks
// arrive at least once and possibly out of order, so every branch is safe to
// run any number of times. A nil return means the event is acknowledged;
// only storage failures propagate, which makes the gateway redeliver.
func (s *Service) Reconcile(ctx context.Context, event domain.WebhookEvent) error {
	order, err := s.repo.GetOrderByAuthorizationRef(ctx, event.AuthorizationRef)
	if errors.Is(err, repository.ErrOrderNotFound) {
		// The synchronous commit is the sole creator of orders. No order yet
		// means the commit has not finished; ack and let it win the race.
		log.Printf("no order for authorization %s yet, acknowledging %s", event.AuthorizationRef, event.Type)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to look up order for authorization %s: %w", event.AuthorizationRef, err)
	}

	switch event.Type {
	case domain.WebhookEventPaymentSucceeded:
		return s.advance(ctx, order, domain.OrderStatusProcessing)
	case domain.WebhookEventPaymentFailed:
		return s.advance(ctx, order, domain.OrderStatusCancelled)
	default:
		log.Printf("unhandled webhook event type %s for authorization %s", event.Type, event.AuthorizationRef)
		return nil
	}
}

func (s *Service) advance(ctx context.Context, order *domain.Order, to domain.OrderStatus) error {
	if order.Status != domain.OrderStatusPending || !domain.CanTransitionTo(order.Status, to) {
		// Duplicate or stale delivery: the order already moved on.
		log.Printf("order %s already %s, ignoring transition to %s", order.ID, order.Status, to)
		return nil
	}
	if err := s.repo.UpdateOrderStatus(ctx, order.ID, to); err != nil {
		return fmt.Errorf("failed to update order %s to %s: %w", order.ID, to, err)
	}
	log.Printf("order %s moved to %s", order.ID, to)
	return nil
}
