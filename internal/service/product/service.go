package product

import (
	"context"
	"fmt"
	"strings"

	"storefront/internal/domain"
	productrepo "storefront/internal/repository/product"
)

type Service struct {
	repo productrepo.Repository
}

func New(repo productrepo.Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	switch filter.Sort {
	case "", domain.SortNewest, domain.SortPriceAsc, domain.SortPriceDesc:
	default:
		return nil, fmt.Errorf("%w: unknown sort %q", domain.ErrInvalidInput, filter.Sort)
	}
	if filter.MinPrice != nil && filter.MaxPrice != nil && *filter.MinPrice > *filter.MaxPrice {
		return nil, fmt.Errorf("%w: minPrice greater than maxPrice", domain.ErrInvalidInput)
	}
	return s.repo.List(ctx, filter)
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Product, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Create(ctx context.Context, p domain.Product) (*domain.Product, error) {
	if err := validate(&p); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, p)
}

func (s *Service) Update(ctx context.Context, id string, p domain.Product) (*domain.Product, error) {
	if err := validate(&p); err != nil {
		return nil, err
	}
	p.ID = id
	return s.repo.Update(ctx, p)
}

// Upsert creates or replaces the product keyed by its SKU.
func (s *Service) Upsert(ctx context.Context, p domain.Product) (*domain.Product, error) {
	if err := validate(&p); err != nil {
		return nil, err
	}
	return s.repo.UpsertBySKU(ctx, p)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// SetStock replaces the stock count. Stock is counted in pieces for
// lot-priced products and in units otherwise.
func (s *Service) SetStock(ctx context.Context, id string, stock *int) (*domain.Product, error) {
	if stock != nil && *stock < 0 {
		return nil, fmt.Errorf("%w: stock must not be negative", domain.ErrInvalidInput)
	}
	return s.repo.SetStock(ctx, id, stock)
}

func validate(p *domain.Product) error {
	p.Name = strings.TrimSpace(p.Name)
	p.SKU = strings.TrimSpace(p.SKU)
	p.Category = strings.TrimSpace(p.Category)
	switch {
	case p.Name == "":
		return fmt.Errorf("%w: name required", domain.ErrInvalidInput)
	case p.Price < 0:
		return fmt.Errorf("%w: price must not be negative", domain.ErrInvalidInput)
	case p.Stock != nil && *p.Stock < 0:
		return fmt.Errorf("%w: stock must not be negative", domain.ErrInvalidInput)
	case p.WarrantyMonths != nil && *p.WarrantyMonths < 0:
		return fmt.Errorf("%w: warranty must not be negative", domain.ErrInvalidInput)
	}
	return nil
}
