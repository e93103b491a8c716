package cart

import "storefront/internal/domain"

// Operation is one of Add, Remove, SetQuantity or Clear.
type Operation interface {
	apply(p Pricing, s domain.CartState) (domain.CartState, Result)
}

// Add increments the line for Product by Quantity, creating it if needed.
type Add struct {
	Product  domain.Product
	Quantity int
}

// Remove deletes the line for ProductID if present.
type Remove struct {
	ProductID string
}

// SetQuantity replaces the quantity of an existing line.
// A quantity of zero or less removes the line.
type SetQuantity struct {
	ProductID string
	Quantity  int
}

// Clear empties the cart.
type Clear struct{}

// Apply computes the state that results from op. s is never modified; on
// rejection or no-op the returned state is s itself.
func Apply(p Pricing, s domain.CartState, op Operation) (domain.CartState, Result) {
	return op.apply(p, s)
}

func (op Add) apply(p Pricing, s domain.CartState) (domain.CartState, Result) {
	if op.Quantity <= 0 {
		return s, Result{Outcome: Ignored, ProductID: op.Product.ID, Reason: "quantity must be positive"}
	}
	idx := s.Find(op.Product.ID)
	existing := 0
	if idx >= 0 {
		existing = s.Items[idx].Quantity
	}
	if op.Quantity > MaxLineQuantity-existing {
		return s, tooLarge(op.Product.ID)
	}
	candidate := existing + op.Quantity
	if !p.Fits(op.Product, candidate) {
		return s, rejection(p, op.Product, candidate)
	}

	next := s.Clone()
	line := domain.CartLine{Product: op.Product.Clone(), Quantity: candidate}
	if idx >= 0 {
		next.Items[idx] = line
	} else {
		next.Items = append(next.Items, line)
	}
	next.Total = p.Total(next.Items)
	return next, Result{Outcome: Accepted, ProductID: op.Product.ID}
}

func (op Remove) apply(p Pricing, s domain.CartState) (domain.CartState, Result) {
	next := domain.CartState{Items: make([]domain.CartLine, 0, len(s.Items))}
	for _, line := range s.Clone().Items {
		if line.Product.ID != op.ProductID {
			next.Items = append(next.Items, line)
		}
	}
	next.Total = p.Total(next.Items)
	return next, Result{Outcome: Accepted, ProductID: op.ProductID}
}

func (op SetQuantity) apply(p Pricing, s domain.CartState) (domain.CartState, Result) {
	idx := s.Find(op.ProductID)
	if idx < 0 {
		return s, Result{Outcome: Ignored, ProductID: op.ProductID, Reason: "product not in cart"}
	}
	if op.Quantity <= 0 {
		return Remove{ProductID: op.ProductID}.apply(p, s)
	}
	if op.Quantity > MaxLineQuantity {
		return s, tooLarge(op.ProductID)
	}
	product := s.Items[idx].Product
	if !p.Fits(product, op.Quantity) {
		return s, rejection(p, product, op.Quantity)
	}

	next := s.Clone()
	next.Items[idx].Quantity = op.Quantity
	next.Total = p.Total(next.Items)
	return next, Result{Outcome: Accepted, ProductID: op.ProductID}
}

func tooLarge(productID string) Result {
	return Result{Outcome: Ignored, ProductID: productID, Reason: "quantity exceeds line limit"}
}

func (Clear) apply(_ Pricing, _ domain.CartState) (domain.CartState, Result) {
	return domain.CartState{Items: []domain.CartLine{}, Total: 0}, Result{Outcome: Accepted}
}
