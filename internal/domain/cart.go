package domain

// CartLine associates a product snapshot with a requested quantity.
// For lot-priced products the quantity counts lots, not pieces.
type CartLine struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// CartState is the whole cart. Its JSON form is the persisted snapshot.
type CartState struct {
	Items []CartLine `json:"items"`
	Total int64      `json:"total"`
}

// Clone returns a deep copy so callers cannot alias store-owned slices.
func (s CartState) Clone() CartState {
	out := CartState{Total: s.Total, Items: make([]CartLine, len(s.Items))}
	for i, line := range s.Items {
		out.Items[i] = CartLine{Product: line.Product.Clone(), Quantity: line.Quantity}
	}
	return out
}

// Find returns the index of the line for productID, or -1.
func (s CartState) Find(productID string) int {
	for i, line := range s.Items {
		if line.Product.ID == productID {
			return i
		}
	}
	return -1
}

// Clone returns a copy of p that shares no slices, maps or pointers with it.
func (p Product) Clone() Product {
	out := p
	if p.Stock != nil {
		v := *p.Stock
		out.Stock = &v
	}
	if p.WarrantyMonths != nil {
		v := *p.WarrantyMonths
		out.WarrantyMonths = &v
	}
	if p.Images != nil {
		out.Images = append([]string(nil), p.Images...)
	}
	if p.Features != nil {
		out.Features = append([]string(nil), p.Features...)
	}
	if p.Specs != nil {
		out.Specs = make(map[string]string, len(p.Specs))
		for k, v := range p.Specs {
			out.Specs[k] = v
		}
	}
	return out
}
