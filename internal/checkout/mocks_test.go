package checkout

import (
	"context"

	"github.com/fjod/go_shop/internal/domain"
	"github.com/fjod/go_shop/internal/payment"
	"github.com/fjod/go_shop/internal/pricing"
	"github.com/fjod/go_shop/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MockOrderRepository implements OrderRepository for testing. It behaves like
// the real thing for duplicates: a second CreateOrder with the same
// authorization reference fails with ErrDuplicateAuthorization.
type MockOrderRepository struct {
	Orders         map[string]*domain.Order // keyed by authorization reference
	CreateErr      error
	GetErr         error
	UpdateErr      error
	StatusUpdates  []domain.OrderStatus
	AddressOwned   bool
	AddressErr     error
	CreateAttempts int
}

func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{Orders: map[string]*domain.Order{}, AddressOwned: true}
}

func (m *MockOrderRepository) CreateOrder(_ context.Context, order *domain.Order) error {
	m.CreateAttempts++
	if m.CreateErr != nil {
		return m.CreateErr
	}
	if _, exists := m.Orders[order.AuthorizationRef]; exists {
		return repository.ErrDuplicateAuthorization
	}
	stored := *order
	m.Orders[order.AuthorizationRef] = &stored
	return nil
}

func (m *MockOrderRepository) GetOrderByAuthorizationRef(_ context.Context, ref string) (*domain.Order, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	order, ok := m.Orders[ref]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	copied := *order
	return &copied, nil
}

func (m *MockOrderRepository) UpdateOrderStatus(_ context.Context, id uuid.UUID, status domain.OrderStatus) error {
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	m.StatusUpdates = append(m.StatusUpdates, status)
	for _, order := range m.Orders {
		if order.ID == id {
			order.Status = status
		}
	}
	return nil
}

func (m *MockOrderRepository) AddressBelongsToUser(_ context.Context, _, _ string) (bool, error) {
	return m.AddressOwned, m.AddressErr
}

// MockGateway implements payment.Gateway for testing
type MockGateway struct {
	Authorization *domain.Authorization
	GetErr        error
	Created       *payment.CreateAuthorizationResult
	CreateErr     error
	CreatedAmount int64
}

func (m *MockGateway) CreateAuthorization(_ context.Context, amount int64, _ string, _ map[string]string) (*payment.CreateAuthorizationResult, error) {
	m.CreatedAmount = amount
	return m.Created, m.CreateErr
}

func (m *MockGateway) GetAuthorization(_ context.Context, _ string) (*domain.Authorization, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	return m.Authorization, nil
}

// MockVerifier returns a fixed quote built from a price table, mirroring the
// real verifier's behavior closely enough for workflow tests.
type MockVerifier struct {
	Prices map[string]string
	Err    error
}

func (m *MockVerifier) Quote(_ context.Context, lines []domain.CartLine) (*pricing.Quote, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	quote := &pricing.Quote{Total: decimal.Zero}
	for _, line := range lines {
		price := decimal.RequireFromString(m.Prices[line.ProductID])
		quote.Items = append(quote.Items, domain.OrderItem{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: price,
		})
		quote.Total = quote.Total.Add(price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return quote, nil
}

// MockNotifier records confirmations
type MockNotifier struct {
	Confirmed []*domain.Order
	Err       error
}

func (m *MockNotifier) OrderConfirmed(_ context.Context, order *domain.Order) error {
	m.Confirmed = append(m.Confirmed, order)
	return m.Err
}
