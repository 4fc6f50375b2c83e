package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/fjod/go_shop/internal/domain"
	"github.com/fjod/go_shop/internal/payment"
	"github.com/fjod/go_shop/internal/pricing"
	"github.com/fjod/go_shop/internal/repository"
	"github.com/google/uuid"
)

// OrderRepository is the storage the workflow needs. CreateOrder must insert
// the order and all line items in one transaction and return
// repository.ErrDuplicateAuthorization when the authorization reference is
// already taken.
type OrderRepository interface {
	CreateOrder(ctx context.Context, order *domain.Order) error
	GetOrderByAuthorizationRef(ctx context.Context, ref string) (*domain.Order, error)
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) error
	AddressBelongsToUser(ctx context.Context, addressID, userID string) (bool, error)
}

// Notifier delivers the post-commit confirmation. Best effort: the workflow
// logs failures and moves on.
type Notifier interface {
	OrderConfirmed(ctx context.Context, order *domain.Order) error
}

type PricingVerifier interface {
	Quote(ctx context.Context, lines []domain.CartLine) (*pricing.Quote, error)
}

type Service struct {
	repo     OrderRepository
	gateway  payment.Gateway
	pricing  PricingVerifier
	notifier Notifier
	currency string
}

func NewService(repo OrderRepository, gateway payment.Gateway, verifier PricingVerifier, notifier Notifier) *Service {
	return &Service{
		repo:     repo,
		gateway:  gateway,
		pricing:  verifier,
		notifier: notifier,
		currency: "usd",
	}
}

type StartPaymentResult struct {
	Reference    string
	ClientSecret string
	AmountCents  int64
}

// StartPayment prices the cart server-side and opens a gateway authorization
// for exactly that amount, bound to the caller via metadata. Whatever amount
// the client believes it owes is irrelevant.
func (s *Service) StartPayment(ctx context.Context, userID string, lines []domain.CartLine) (*StartPaymentResult, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}

	quote, err := s.pricing.Quote(ctx, lines)
	if err != nil {
		return nil, err
	}

	created, err := s.gateway.CreateAuthorization(ctx, quote.TotalCents(), s.currency, map[string]string{
		"user_id": userID,
	})
	if err != nil {
		return nil, err
	}

	return &StartPaymentResult{
		Reference:    created.Reference,
		ClientSecret: created.ClientSecret,
		AmountCents:  quote.TotalCents(),
	}, nil
}

type CommitRequest struct {
	UserID           string
	AuthorizationRef string
	AddressID        string
	Lines            []domain.CartLine
}

type CommitResult struct {
	OrderID uuid.UUID
	Status  domain.OrderStatus
}

// CommitOrder verifies the payment authorization against an independently
// recomputed total and persists the order with its line items atomically.
// Safe to retry: a second call with the same authorization reference returns
// the already-committed order.
func (s *Service) CommitOrder(ctx context.Context, req *CommitRequest) (*CommitResult, error) {
	if req.UserID == "" {
		return nil, ErrUnauthenticated
	}

	auth, err := s.gateway.GetAuthorization(ctx, req.AuthorizationRef)
	if err != nil {
		return nil, err
	}

	// Ownership binding: one user must not be able to redeem another's
	// authorization.
	if auth.Metadata["user_id"] != req.UserID {
		return nil, ErrAuthorizationOwnership
	}

	if auth.Status != domain.AuthorizationStatusSucceeded {
		return nil, &PaymentNotSucceededError{Status: auth.Status}
	}

	belongs, err := s.repo.AddressBelongsToUser(ctx, req.AddressID, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to check shipping address: %w", err)
	}
	if !belongs {
		return nil, ErrAddressNotFound
	}

	quote, err := s.pricing.Quote(ctx, req.Lines)
	if err != nil {
		return nil, err
	}

	if quote.TotalCents() != auth.Amount {
		log.Printf("AMOUNT MISMATCH: authorization %s collected %d, catalog says %d (user %s)",
			req.AuthorizationRef, auth.Amount, quote.TotalCents(), req.UserID)
		return nil, ErrAmountMismatch
	}

	order := &domain.Order{
		ID:               uuid.New(),
		UserID:           req.UserID,
		AddressID:        req.AddressID,
		AuthorizationRef: req.AuthorizationRef,
		Total:            quote.Total,
		Currency:         auth.Currency,
		Status:           domain.OrderStatusProcessing,
		Items:            quote.Items,
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}

	if err := s.repo.CreateOrder(ctx, order); err != nil {
		if errors.Is(err, repository.ErrDuplicateAuthorization) {
			// A concurrent or retried commit already created the order for
			// this authorization; return its id instead of erroring.
			existing, getErr := s.repo.GetOrderByAuthorizationRef(ctx, req.AuthorizationRef)
			if getErr != nil {
				return nil, fmt.Errorf("failed to load existing order for authorization %s: %w", req.AuthorizationRef, getErr)
			}
			log.Printf("duplicate commit for authorization %s, returning order %s", req.AuthorizationRef, existing.ID)
			return &CommitResult{OrderID: existing.ID, Status: existing.Status}, nil
		}
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	if s.notifier != nil {
		if err := s.notifier.OrderConfirmed(ctx, order); err != nil {
			log.Printf("failed to send confirmation for order %s: %v", order.ID, err)
		}
	}

	return &CommitResult{OrderID: order.ID, Status: order.Status}, nil
}
