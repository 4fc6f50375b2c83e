package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/fjod/go_shop/internal/domain"
	"github.com/fjod/go_shop/internal/repository"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type CatalogStore interface {
	ListProducts(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, error)
	GetProductByID(ctx context.Context, id string) (*domain.Product, error)
	ListCategories(ctx context.Context) ([]*domain.Category, error)
	ListReviews(ctx context.Context, productID string) ([]*domain.Review, error)
	CreateReview(ctx context.Context, review *domain.Review) error
	HasPurchased(ctx context.Context, userID, productID string) (bool, error)
}

type ProductHandler struct {
	store CatalogStore
}

func NewProductHandler(store CatalogStore) *ProductHandler {
	return &ProductHandler{store: store}
}

func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("page_size"))

	products, err := h.store.ListProducts(r.Context(), repository.ProductFilter{
		CategorySlug: q.Get("category"),
		Search:       q.Get("search"),
		Page:         page,
		PageSize:     pageSize,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if products == nil {
		products = []*domain.Product{}
	}
	respondJSON(w, http.StatusOK, products)
}

func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.store.GetProductByID(r.Context(), chi.URLParam(r, "productID"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.store.ListCategories(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if categories == nil {
		categories = []*domain.Category{}
	}
	respondJSON(w, http.StatusOK, categories)
}

type reviewsResponse struct {
	Reviews       []*domain.Review `json:"reviews"`
	AverageRating float64          `json:"average_rating"`
}

func (h *ProductHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.store.ListReviews(r.Context(), chi.URLParam(r, "productID"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if reviews == nil {
		reviews = []*domain.Review{}
	}

	var avg float64
	if len(reviews) > 0 {
		sum := 0
		for _, review := range reviews {
			sum += review.Rating
		}
		avg = float64(sum) / float64(len(reviews))
	}

	respondJSON(w, http.StatusOK, reviewsResponse{Reviews: reviews, AverageRating: avg})
}

type createReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

func (h *ProductHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "missing user authentication")
		return
	}
	productID := chi.URLParam(r, "productID")

	var req createReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		respondError(w, http.StatusBadRequest, "invalid_rating", "rating must be between 1 and 5")
		return
	}

	// Reviews are purchase-gated.
	purchased, err := h.store.HasPurchased(r.Context(), userID, productID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if !purchased {
		respondError(w, http.StatusForbidden, "purchase_required", "only buyers of this product can review it")
		return
	}

	review := &domain.Review{
		ID:        uuid.New(),
		ProductID: productID,
		UserID:    userID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	}
	if err := h.store.CreateReview(r.Context(), review); err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, review)
}
