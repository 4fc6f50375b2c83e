package pricing

import (
	"context"
	"errors"
	"fmt"

	"github.com/fjod/go_shop/internal/domain"
	"github.com/shopspring/decimal"
)

var (
	ErrEmptyCart       = errors.New("cart is empty, nothing to price")
	ErrInvalidQuantity = errors.New("quantity must be a positive integer")
	ErrProductNotFound = errors.New("product not found")
)

// PriceReader is the catalog lookup the verifier depends on. Implemented by
// the postgres catalog repository; one call covers all distinct ids.
type PriceReader interface {
	GetPricesByIDs(ctx context.Context, ids []string) (map[string]decimal.Decimal, error)
}

// Quote is the authoritative pricing of a set of cart lines: each line
// annotated with the catalog unit price, and the summed total.
type Quote struct {
	Items []domain.OrderItem
	Total decimal.Decimal
}

// TotalCents converts the total to integer minor units, rounding half away
// from zero at two decimal places. The same rule applies to every quote, so
// the comparison against the gateway's integer amount is exact.
func (q *Quote) TotalCents() int64 {
	return q.Total.Shift(2).Round(0).IntPart()
}

type Verifier struct {
	catalog PriceReader
}

func NewVerifier(catalog PriceReader) *Verifier {
	return &Verifier{catalog: catalog}
}

// Quote reprices the given lines from current catalog state. The result
// depends only on the catalog and the lines: same inputs, same total.
func (v *Verifier) Quote(ctx context.Context, lines []domain.CartLine) (*Quote, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	ids := make([]string, 0, len(lines))
	seen := make(map[string]bool, len(lines))
	for _, line := range lines {
		if line.Quantity < 1 {
			return nil, fmt.Errorf("product %s: %w", line.ProductID, ErrInvalidQuantity)
		}
		if !seen[line.ProductID] {
			seen[line.ProductID] = true
			ids = append(ids, line.ProductID)
		}
	}

	prices, err := v.catalog.GetPricesByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog prices: %w", err)
	}

	quote := &Quote{
		Items: make([]domain.OrderItem, 0, len(lines)),
		Total: decimal.Zero,
	}
	for _, line := range lines {
		price, ok := prices[line.ProductID]
		if !ok {
			return nil, fmt.Errorf("product %s: %w", line.ProductID, ErrProductNotFound)
		}
		quote.Items = append(quote.Items, domain.OrderItem{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: price,
		})
		quote.Total = quote.Total.Add(price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	return quote, nil
}
