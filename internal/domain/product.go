package domain

import "time"

// Product is a catalog item. Price is expressed in the store's base currency,
// which has no minor unit. A nil Stock means the item is not stock-tracked.
type Product struct {
	ID                  string            `json:"_id"`
	SKU                 string            `json:"sku,omitempty"`
	Name                string            `json:"name"`
	Description         string            `json:"description,omitempty"`
	DetailedDescription string            `json:"detailedDescription,omitempty"`
	Price               int64             `json:"price"`
	Stock               *int              `json:"stock,omitempty"`
	Images              []string          `json:"images,omitempty"`
	Category            string            `json:"category,omitempty"`
	Brand               string            `json:"brand,omitempty"`
	ModelName           string            `json:"modelName,omitempty"`
	Features            []string          `json:"features,omitempty"`
	Specs               map[string]string `json:"specs,omitempty"`
	WarrantyMonths      *int              `json:"warrantyMonths,omitempty"`
	IsPromotion         bool              `json:"isPromotion,omitempty"`
	CreatedAt           time.Time         `json:"createdAt"`
	UpdatedAt           time.Time         `json:"updatedAt"`
}

// PrimaryImage returns the first image URL or an empty string.
func (p Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// ProductFilter narrows catalog listings.
type ProductFilter struct {
	Category      string
	MinPrice      *int64
	MaxPrice      *int64
	Search        string
	PromotionOnly bool
	Sort          string
}

const (
	SortNewest    = "newest"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
)
