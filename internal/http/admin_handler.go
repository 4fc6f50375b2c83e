package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/fjod/go_shop/internal/domain"
	"github.com/fjod/go_shop/internal/repository"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type AdminStore interface {
	GetDashboardMetrics(ctx context.Context) (*repository.DashboardMetrics, error)
	GetMonthlySales(ctx context.Context) ([]repository.MonthlySales, error)
	CreateProduct(ctx context.Context, p *domain.Product) error
	UpdateProduct(ctx context.Context, p *domain.Product) error
}

type AdminHandler struct {
	store AdminStore
}

func NewAdminHandler(store AdminStore) *AdminHandler {
	return &AdminHandler{store: store}
}

func (h *AdminHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.store.GetDashboardMetrics(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, metrics)
}

func (h *AdminHandler) MonthlySales(w http.ResponseWriter, r *http.Request) {
	sales, err := h.store.GetMonthlySales(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if sales == nil {
		sales = []repository.MonthlySales{}
	}
	respondJSON(w, http.StatusOK, sales)
}

type productRequest struct {
	CategoryID  string          `json:"category_id"`
	Name        string          `json:"name"`
	Slug        string          `json:"slug"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"image_url"`
}

func (req *productRequest) validate() string {
	if req.Name == "" {
		return "name is required"
	}
	if req.Slug == "" {
		return "slug is required"
	}
	if req.CategoryID == "" {
		return "category_id is required"
	}
	if !req.Price.IsPositive() {
		return "price must be positive"
	}
	return ""
}

func (h *AdminHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		respondError(w, http.StatusBadRequest, "invalid_product", msg)
		return
	}

	product := &domain.Product{
		ID:          uuid.NewString(),
		CategoryID:  req.CategoryID,
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		Price:       req.Price,
		ImageURL:    req.ImageURL,
	}
	if err := h.store.CreateProduct(r.Context(), product); err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, product)
}

func (h *AdminHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		respondError(w, http.StatusBadRequest, "invalid_product", msg)
		return
	}

	product := &domain.Product{
		ID:          chi.URLParam(r, "productID"),
		CategoryID:  req.CategoryID,
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		Price:       req.Price,
		ImageURL:    req.ImageURL,
	}
	if err := h.store.UpdateProduct(r.Context(), product); err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, product)
}
