package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type RouterDeps struct {
	Checkout CheckoutService
	Webhook  *WebhookHandler
	Orders   OrderStore
	Catalog  CatalogStore
	Cart     CartService
	Admin    AdminStore
	Roles    RoleChecker

	RequestTimeout time.Duration
}

// NewRouter assembles the full route table. Webhooks sit outside the auth
// middleware on purpose: the gateway authenticates with a signature, not a
// session.
func NewRouter(deps RouterDeps) chi.Router {
	checkoutHandler := NewCheckoutHandler(deps.Checkout)
	orderHandler := NewOrderHandler(deps.Orders)
	productHandler := NewProductHandler(deps.Catalog)
	cartHandler := NewCartHandler(deps.Cart)
	adminHandler := NewAdminHandler(deps.Admin)

	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(middleware.Timeout(deps.RequestTimeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/api/v1/webhooks/payment", deps.Webhook.HandlePaymentEvent)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(AuthMiddleware)

		r.Route("/products", func(r chi.Router) {
			r.Get("/", productHandler.ListProducts)
			r.Get("/{productID}", productHandler.GetProduct)
			r.Get("/{productID}/reviews", productHandler.ListReviews)
			r.Post("/{productID}/reviews", productHandler.CreateReview)
		})
		r.Get("/categories", productHandler.ListCategories)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Post("/items", cartHandler.AddItem)
			r.Put("/items/{productID}", cartHandler.UpdateQuantity)
			r.Delete("/items/{productID}", cartHandler.RemoveItem)
			r.Delete("/", cartHandler.ClearCart)
		})

		r.Post("/checkout/payment-intent", checkoutHandler.StartPayment)

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", checkoutHandler.CommitOrder)
			r.Get("/", orderHandler.ListOrders)
			r.Get("/{orderID}", orderHandler.GetOrder)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(AdminOnly(deps.Roles))
			r.Get("/metrics", adminHandler.Metrics)
			r.Get("/sales/monthly", adminHandler.MonthlySales)
			r.Post("/products", adminHandler.CreateProduct)
			r.Put("/products/{productID}", adminHandler.UpdateProduct)
			r.Patch("/orders/{orderID}/status", orderHandler.UpdateStatus)
		})
	})

	return r
}
