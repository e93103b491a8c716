package product

import (
	"context"

	"storefront/internal/domain"
)

// Repository persists catalog products.
type Repository interface {
	List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	Create(ctx context.Context, p domain.Product) (*domain.Product, error)
	Update(ctx context.Context, p domain.Product) (*domain.Product, error)
	// UpsertBySKU inserts or replaces the product identified by p.SKU.
	UpsertBySKU(ctx context.Context, p domain.Product) (*domain.Product, error)
	Delete(ctx context.Context, id string) error
	// SetStock replaces the stock value; nil makes the product untracked.
	SetStock(ctx context.Context, id string, stock *int) (*domain.Product, error)
}
