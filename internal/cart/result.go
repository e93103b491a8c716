package cart

import (
	"fmt"

	"storefront/internal/domain"
)

// Outcome discriminates the result of a cart mutation.
type Outcome int

const (
	// Accepted means the operation was applied and the snapshot written.
	Accepted Outcome = iota
	// RejectedInsufficientStock means the stock check failed; nothing changed.
	RejectedInsufficientStock
	// Ignored means the operation was a defined no-op, e.g. SetQuantity on a
	// product that is not in the cart.
	Ignored
)

func (o Outcome) String() string {
	switch o {
	case Accepted:
		return "accepted"
	case RejectedInsufficientStock:
		return "rejected_insufficient_stock"
	case Ignored:
		return "ignored"
	default:
		return "unknown"
	}
}

func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Result is returned by every mutation so callers never have to diff state.
type Result struct {
	Outcome   Outcome `json:"outcome"`
	ProductID string  `json:"productId,omitempty"`
	// Available and Requested are set on stock rejection, both in Unit.
	Available int    `json:"available,omitempty"`
	Requested int    `json:"requested,omitempty"`
	Unit      string `json:"unit,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

func (r Result) Accepted() bool {
	return r.Outcome == Accepted
}

// Err converts a stock rejection into an *InsufficientStockError, nil otherwise.
func (r Result) Err() error {
	if r.Outcome != RejectedInsufficientStock {
		return nil
	}
	return &InsufficientStockError{
		ProductID: r.ProductID,
		Available: r.Available,
		Requested: r.Requested,
		Unit:      r.Unit,
	}
}

// InsufficientStockError is returned in strict-stock mode. It matches
// domain.ErrInsufficientStock with errors.Is.
type InsufficientStockError struct {
	ProductID string
	Available int
	Requested int
	Unit      string
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: available %d %s, requested %d", e.ProductID, e.Available, e.Unit, e.Requested)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == domain.ErrInsufficientStock
}

func rejection(p Pricing, product domain.Product, quantity int) Result {
	res := Result{
		Outcome:   RejectedInsufficientStock,
		ProductID: product.ID,
		Requested: p.Pieces(product, quantity),
		Unit:      p.Unit(product.Price),
	}
	if product.Stock != nil {
		res.Available = *product.Stock
	}
	return res
}
