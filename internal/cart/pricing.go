// Package cart holds the cart store: the lot-pricing rule, the pure state
// transitions and a Store that persists a snapshot after every mutation.
package cart

import "storefront/internal/domain"

const (
	UnitPieces = "pieces"
	UnitUnits  = "units"
)

// MaxLineQuantity caps the quantity of a single line so piece counts and
// totals stay far from integer overflow, including for unlimited stock.
const MaxLineQuantity = 100000

// Pricing is the lot rule. Products priced at or below LotThreshold are sold
// in lots of LotSize pieces and one unit of cart quantity is one lot.
type Pricing struct {
	LotThreshold int64
	LotSize      int
}

// DefaultPricing is 25-piece lots for anything priced 200 or less.
var DefaultPricing = Pricing{LotThreshold: 200, LotSize: 25}

// IsLot reports whether price falls under the lot rule.
func (p Pricing) IsLot(price int64) bool {
	return price <= p.LotThreshold
}

// Pieces converts a cart quantity into physical pieces.
func (p Pricing) Pieces(product domain.Product, quantity int) int {
	if p.IsLot(product.Price) {
		return quantity * p.LotSize
	}
	return quantity
}

// LineTotal is the monetary contribution of one line.
func (p Pricing) LineTotal(line domain.CartLine) int64 {
	if p.IsLot(line.Product.Price) {
		return line.Product.Price * int64(line.Quantity) * int64(p.LotSize)
	}
	return line.Product.Price * int64(line.Quantity)
}

// Total sums every line. It always walks the whole list.
func (p Pricing) Total(lines []domain.CartLine) int64 {
	var total int64
	for _, line := range lines {
		total += p.LineTotal(line)
	}
	return total
}

// Fits reports whether quantity stays within the product's stock.
// Products without a stock value are unlimited. The comparison divides the
// stock instead of multiplying the quantity so it cannot overflow.
func (p Pricing) Fits(product domain.Product, quantity int) bool {
	if quantity < 0 {
		return false
	}
	if product.Stock == nil {
		return true
	}
	if p.IsLot(product.Price) && p.LotSize > 0 {
		return quantity <= *product.Stock/p.LotSize
	}
	return quantity <= *product.Stock
}

// Unit names the unit stock is counted in for a product at this price.
func (p Pricing) Unit(price int64) string {
	if p.IsLot(price) {
		return UnitPieces
	}
	return UnitUnits
}

// ItemCount is the raw quantity sum used for badges. Lots are not expanded.
func ItemCount(s domain.CartState) int {
	n := 0
	for _, line := range s.Items {
		n += line.Quantity
	}
	return n
}
