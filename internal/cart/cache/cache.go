package cache

import (
	"context"
	"errors"

	"github.com/fjod/go_shop/internal/domain"
)

var ErrCacheMiss = errors.New("cart not in cache")

// CartCache is the read-through cache in front of the cart store
type CartCache interface {
	Get(ctx context.Context, userID string) (*domain.Cart, error)
	Set(ctx context.Context, userID string, cart *domain.Cart) error
	Delete(ctx context.Context, userID string) error
}
