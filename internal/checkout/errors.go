package checkout

import (
	"errors"
	"fmt"

	"github.com/fjod/go_shop/internal/domain"
)

var (
	ErrUnauthenticated        = errors.New("caller is not authenticated")
	ErrAuthorizationOwnership = errors.New("payment authorization belongs to another user")
	ErrAddressNotFound        = errors.New("shipping address not found for user")
	// ErrAmountMismatch means the amount the processor collected does not
	// equal what the catalog says the cart is worth. Never exposed verbatim
	// to the client.
	ErrAmountMismatch = errors.New("authorized amount does not match verified total")
)

// PaymentNotSucceededError carries the actual gateway status for diagnostics.
type PaymentNotSucceededError struct {
	Status domain.AuthorizationStatus
}

func (e *PaymentNotSucceededError) Error() string {
	return fmt.Sprintf("payment not succeeded (status: %s)", e.Status)
}
