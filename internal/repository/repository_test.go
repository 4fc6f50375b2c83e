package repository

import (
	"context"
	"testing"
	"time"

	"github.com/fjod/go_shop/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestDB(t *testing.T) (*Repository, func()) {
	ctx := context.Background()

	pgContainer, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)

	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	creds := &Credentials{
		Host:              host,
		Port:              port.Int(),
		User:              "testuser",
		Password:          "testpass",
		DBName:            "testdb",
		MigrationsDirPath: "./migrations",
	}

	repo, err := NewRepository(creds)
	require.NoError(t, err)

	err = repo.RunMigrations(creds)
	require.NoError(t, err)

	seedFixtures(t, repo)

	cleanup := func() {
		repo.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}

	return repo, cleanup
}

// seedFixtures satisfies the foreign keys the order tables hang off.
func seedFixtures(t *testing.T, repo *Repository) {
	t.Helper()
	statements := []string{
		`INSERT INTO users (id, email, name) VALUES ('user-123', 'buyer@example.com', 'Buyer')`,
		`INSERT INTO users (id, email, name, role) VALUES ('admin-1', 'admin@example.com', 'Admin', 'ADMIN')`,
		`INSERT INTO addresses (id, user_id, line1, city, postal_code, country)
		 VALUES ('addr-1', 'user-123', '1 Main St', 'Springfield', '12345', 'US')`,
		`INSERT INTO categories (id, name, slug) VALUES ('cat-1', 'Humidors', 'humidors')`,
		`INSERT INTO products (id, category_id, name, slug, price)
		 VALUES ('prod-1', 'cat-1', 'Travel Humidor', 'travel-humidor', 49.99)`,
		`INSERT INTO products (id, category_id, name, slug, price)
		 VALUES ('prod-2', 'cat-1', 'Desktop Humidor', 'desktop-humidor', 129.99)`,
	}
	for _, stmt := range statements {
		_, err := repo.db.Exec(stmt)
		require.NoError(t, err)
	}
}

func newTestOrder(authRef string) *domain.Order {
	return &domain.Order{
		ID:               uuid.New(),
		UserID:           "user-123",
		AddressID:        "addr-1",
		AuthorizationRef: authRef,
		Total:            decimal.RequireFromString("99.98"),
		Currency:         "usd",
		Status:           domain.OrderStatusProcessing,
		Items: []domain.OrderItem{
			{ProductID: "prod-1", Quantity: 2, UnitPrice: decimal.RequireFromString("49.99")},
		},
	}
}

func TestCreateOrder_Success(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	order := newTestOrder("auth_success")

	err := repo.CreateOrder(ctx, order)
	require.NoError(t, err)

	fetched, err := repo.GetOrderByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, fetched.ID)
	assert.Equal(t, order.UserID, fetched.UserID)
	assert.Equal(t, order.AuthorizationRef, fetched.AuthorizationRef)
	assert.True(t, order.Total.Equal(fetched.Total), "total %s != %s", order.Total, fetched.Total)
	assert.Equal(t, order.Status, fetched.Status)
	require.Len(t, fetched.Items, 1)
	assert.Equal(t, "prod-1", fetched.Items[0].ProductID)
	assert.Equal(t, 2, fetched.Items[0].Quantity)
	assert.True(t, fetched.Items[0].UnitPrice.Equal(decimal.RequireFromString("49.99")))
}

func TestCreateOrder_DuplicateAuthorization(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	first := newTestOrder("auth_dup")
	require.NoError(t, repo.CreateOrder(ctx, first))

	second := newTestOrder("auth_dup") // same authorization, different order id
	err := repo.CreateOrder(ctx, second)
	assert.ErrorIs(t, err, ErrDuplicateAuthorization)

	// The first order is still the one on record.
	fetched, err := repo.GetOrderByAuthorizationRef(ctx, "auth_dup")
	require.NoError(t, err)
	assert.Equal(t, first.ID, fetched.ID)
}

func TestCreateOrder_ItemFailureRollsBackEverything(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	order := newTestOrder("auth_rollback")
	order.Items = append(order.Items, domain.OrderItem{
		ProductID: "prod-does-not-exist",
		Quantity:  1,
		UnitPrice: decimal.RequireFromString("10.00"),
	})

	err := repo.CreateOrder(ctx, order)
	require.Error(t, err)

	// The order row must not survive the failed item insert.
	_, err = repo.GetOrderByAuthorizationRef(ctx, "auth_rollback")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestGetOrderByAuthorizationRef_NotFound(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.GetOrderByAuthorizationRef(context.Background(), "auth_missing")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestUpdateOrderStatus(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	order := newTestOrder("auth_status")
	require.NoError(t, repo.CreateOrder(ctx, order))

	require.NoError(t, repo.UpdateOrderStatus(ctx, order.ID, domain.OrderStatusShipped))

	fetched, err := repo.GetOrderByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusShipped, fetched.Status)
}

func TestUpdateOrderStatus_NotFound(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	err := repo.UpdateOrderStatus(context.Background(), uuid.New(), domain.OrderStatusShipped)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestListOrdersByUserID(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, repo.CreateOrder(ctx, newTestOrder("auth_list_1")))
	require.NoError(t, repo.CreateOrder(ctx, newTestOrder("auth_list_2")))

	orders, err := repo.ListOrdersByUserID(ctx, "user-123")
	require.NoError(t, err)
	assert.Len(t, orders, 2)
	for _, o := range orders {
		assert.NotEmpty(t, o.Items)
	}

	none, err := repo.ListOrdersByUserID(ctx, "someone-else")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestAddressBelongsToUser(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	belongs, err := repo.AddressBelongsToUser(ctx, "addr-1", "user-123")
	require.NoError(t, err)
	assert.True(t, belongs)

	belongs, err = repo.AddressBelongsToUser(ctx, "addr-1", "admin-1")
	require.NoError(t, err)
	assert.False(t, belongs)
}

func TestGetPricesByIDs(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	prices, err := repo.GetPricesByIDs(context.Background(), []string{"prod-1", "prod-2", "prod-ghost"})
	require.NoError(t, err)
	require.Len(t, prices, 2)
	assert.True(t, prices["prod-1"].Equal(decimal.RequireFromString("49.99")))
	assert.True(t, prices["prod-2"].Equal(decimal.RequireFromString("129.99")))
	_, ok := prices["prod-ghost"]
	assert.False(t, ok, "missing product must be absent, not zero")
}

func TestHasPurchased(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	purchased, err := repo.HasPurchased(ctx, "user-123", "prod-1")
	require.NoError(t, err)
	assert.False(t, purchased)

	require.NoError(t, repo.CreateOrder(ctx, newTestOrder("auth_purchase")))

	purchased, err = repo.HasPurchased(ctx, "user-123", "prod-1")
	require.NoError(t, err)
	assert.True(t, purchased)

	// A cancelled order does not count as a purchase.
	cancelled := newTestOrder("auth_cancelled")
	cancelled.Items = []domain.OrderItem{{ProductID: "prod-2", Quantity: 1, UnitPrice: decimal.RequireFromString("129.99")}}
	cancelled.Status = domain.OrderStatusCancelled
	require.NoError(t, repo.CreateOrder(ctx, cancelled))

	purchased, err = repo.HasPurchased(ctx, "user-123", "prod-2")
	require.NoError(t, err)
	assert.False(t, purchased)
}

func TestCreateReview_Duplicate(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	review := &domain.Review{ID: uuid.New(), ProductID: "prod-1", UserID: "user-123", Rating: 5, Comment: "great"}
	require.NoError(t, repo.CreateReview(ctx, review))

	again := &domain.Review{ID: uuid.New(), ProductID: "prod-1", UserID: "user-123", Rating: 1, Comment: "changed my mind"}
	err := repo.CreateReview(ctx, again)
	assert.ErrorIs(t, err, ErrReviewExists)
}

func TestIsAdmin(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	isAdmin, err := repo.IsAdmin(ctx, "admin-1")
	require.NoError(t, err)
	assert.True(t, isAdmin)

	isAdmin, err = repo.IsAdmin(ctx, "user-123")
	require.NoError(t, err)
	assert.False(t, isAdmin)
}

func TestDashboardMetrics(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, repo.CreateOrder(ctx, newTestOrder("auth_metrics_1")))

	cancelled := newTestOrder("auth_metrics_2")
	cancelled.Status = domain.OrderStatusCancelled
	require.NoError(t, repo.CreateOrder(ctx, cancelled))

	metrics, err := repo.GetDashboardMetrics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, metrics.TotalOrders)
	assert.Equal(t, 2, metrics.TotalUsers)
	assert.Equal(t, 2, metrics.TotalProducts)
	// Revenue excludes the cancelled order.
	assert.True(t, metrics.TotalRevenue.Equal(decimal.RequireFromString("99.98")),
		"revenue %s", metrics.TotalRevenue)
}

func TestListProducts_Filtering(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	all, err := repo.ListProducts(ctx, ProductFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	travel, err := repo.ListProducts(ctx, ProductFilter{Search: "travel"})
	require.NoError(t, err)
	require.Len(t, travel, 1)
	assert.Equal(t, "prod-1", travel[0].ID)

	byCategory, err := repo.ListProducts(ctx, ProductFilter{CategorySlug: "humidors"})
	require.NoError(t, err)
	assert.Len(t, byCategory, 2)

	none, err := repo.ListProducts(ctx, ProductFilter{CategorySlug: "ashtrays"})
	require.NoError(t, err)
	assert.Empty(t, none)
}
