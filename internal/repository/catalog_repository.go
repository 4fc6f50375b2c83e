package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fjod/go_shop/internal/domain"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// GetPricesByIDs is the batch price read behind the pricing verifier. Missing
// ids are simply absent from the result map; the verifier decides what that
// means.
func (r *Repository) GetPricesByIDs(ctx context.Context, ids []string) (map[string]decimal.Decimal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, price FROM products WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("query prices: %w", err)
	}
	defer rows.Close()

	prices := make(map[string]decimal.Decimal, len(ids))
	for rows.Next() {
		var id string
		var price decimal.Decimal
		if err := rows.Scan(&id, &price); err != nil {
			return nil, fmt.Errorf("scan price row: %w", err)
		}
		prices[id] = price
	}
	return prices, rows.Err()
}

const productColumns = `id, category_id, name, slug, description, price, image_url, created_at`

func scanProduct(row interface{ Scan(...interface{}) error }) (*domain.Product, error) {
	var p domain.Product
	err := row.Scan(&p.ID, &p.CategoryID, &p.Name, &p.Slug, &p.Description, &p.Price, &p.ImageURL, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repository) GetProductByID(ctx context.Context, id string) (*domain.Product, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query product: %w", err)
	}
	return p, nil
}

type ProductFilter struct {
	CategorySlug string
	Search       string
	Page         int
	PageSize     int
}

func (r *Repository) ListProducts(ctx context.Context, filter ProductFilter) ([]*domain.Product, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 100 {
		filter.PageSize = 20
	}

	query := `SELECT p.id, p.category_id, p.name, p.slug, p.description, p.price, p.image_url, p.created_at
	          FROM products p`
	args := []interface{}{}

	where := ""
	if filter.CategorySlug != "" {
		args = append(args, filter.CategorySlug)
		query += ` JOIN categories c ON c.id = p.category_id`
		where = fmt.Sprintf(` WHERE c.slug = $%d`, len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		if where == "" {
			where = fmt.Sprintf(` WHERE p.name ILIKE $%d`, len(args))
		} else {
			where += fmt.Sprintf(` AND p.name ILIKE $%d`, len(args))
		}
	}
	args = append(args, filter.PageSize, (filter.Page-1)*filter.PageSize)
	query += where + fmt.Sprintf(` ORDER BY p.created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var products []*domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *Repository) CreateProduct(ctx context.Context, p *domain.Product) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO products (id, category_id, name, slug, description, price, image_url, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())`,
		p.ID, p.CategoryID, p.Name, p.Slug, p.Description, p.Price, p.ImageURL)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (r *Repository) UpdateProduct(ctx context.Context, p *domain.Product) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE products SET category_id = $1, name = $2, slug = $3, description = $4, price = $5, image_url = $6
		 WHERE id = $7`,
		p.CategoryID, p.Name, p.Slug, p.Description, p.Price, p.ImageURL, p.ID)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update product rows affected: %w", err)
	}
	if affected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *Repository) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, slug FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var categories []*domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug); err != nil {
			return nil, fmt.Errorf("scan category row: %w", err)
		}
		categories = append(categories, &c)
	}
	return categories, rows.Err()
}

func (r *Repository) CreateReview(ctx context.Context, review *domain.Review) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO reviews (id, product_id, user_id, rating, comment, created_at)
		 VALUES ($1, $2, $3, $4, $5, NOW())`,
		review.ID, review.ProductID, review.UserID, review.Rating, review.Comment)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrReviewExists
		}
		return fmt.Errorf("insert review: %w", err)
	}
	return nil
}

func (r *Repository) ListReviews(ctx context.Context, productID string) ([]*domain.Review, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, product_id, user_id, rating, comment, created_at
		 FROM reviews WHERE product_id = $1 ORDER BY created_at DESC`, productID)
	if err != nil {
		return nil, fmt.Errorf("query reviews: %w", err)
	}
	defer rows.Close()

	var reviews []*domain.Review
	for rows.Next() {
		var review domain.Review
		if err := rows.Scan(&review.ID, &review.ProductID, &review.UserID, &review.Rating, &review.Comment, &review.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan review row: %w", err)
		}
		reviews = append(reviews, &review)
	}
	return reviews, rows.Err()
}

func (r *Repository) IsAdmin(ctx context.Context, userID string) (bool, error) {
	var isAdmin bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE id = $1 AND role = 'ADMIN')`, userID).Scan(&isAdmin)
	if err != nil {
		return false, fmt.Errorf("check admin role: %w", err)
	}
	return isAdmin, nil
}
