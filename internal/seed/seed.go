// Package seed loads a small demo catalog and the admin account.
package seed

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/logging"
)

type CategoryWriter interface {
	Upsert(ctx context.Context, c domain.Category) (*domain.Category, error)
}

type ProductWriter interface {
	Upsert(ctx context.Context, p domain.Product) (*domain.Product, error)
}

type AdminWriter interface {
	EnsureAdmin(ctx context.Context, email, password string) (*domain.User, error)
}

type Deps struct {
	Categories CategoryWriter
	Products   ProductWriter
	Admins     AdminWriter
}

// Admin is skipped when Password is empty.
type Admin struct {
	Email    string
	Password string
}

func intPtr(v int) *int { return &v }

var categories = []domain.Category{
	{Name: "Beignets", Slug: "beignets", Description: "Sweet fried pastries"},
	{Name: "Fatayas", Slug: "fatayas", Description: "Savoury turnovers"},
	{Name: "Quiches", Slug: "quiches", Description: "Baked tarts"},
	{Name: "Mini snacks", Slug: "mini-snacks", Description: "Party bites sold in lots"},
}

// Prices at or below the lot threshold are sold in lots; their stock is in pieces.
var products = []domain.Product{
	{
		SKU:         "BEIGNET-CHOCO",
		Name:        "Beignet au Chocolat",
		Description: "Doughnut filled with dark chocolate",
		Price:       3500,
		Stock:       intPtr(40),
		Category:    "Beignets",
		Images:      []string{"https://images.unsplash.com/photo-1551024506-0bccd828d307?w=500"},
	},
	{
		SKU:         "FATAYA-POULET",
		Name:        "Fataya au Poulet",
		Description: "Turnover with spiced chicken",
		Price:       2500,
		Stock:       intPtr(60),
		Category:    "Fatayas",
		Images:      []string{"https://images.unsplash.com/photo-1565299624946-b28f40a0ae38?w=500"},
	},
	{
		SKU:         "QUICHE-LORRAINE",
		Name:        "Quiche Lorraine",
		Description: "Bacon and cheese quiche",
		Price:       5000,
		Category:    "Quiches",
		IsPromotion: true,
	},
	{
		SKU:         "MINI-PASTEL",
		Name:        "Mini Pastel",
		Description: "Bite-size fish pastel",
		Price:       150,
		Stock:       intPtr(2000),
		Category:    "Mini snacks",
	},
	{
		SKU:         "MINI-NEM",
		Name:        "Mini Nem",
		Description: "Bite-size spring roll",
		Price:       200,
		Stock:       intPtr(24),
		Category:    "Mini snacks",
	},
}

// Apply upserts the demo catalog and ensures the admin account. It is
// idempotent: categories are keyed by slug and products by SKU.
func Apply(ctx context.Context, deps Deps, admin Admin, logger *zap.Logger) error {
	logger = logging.OrNop(logger).Named("seed")

	for _, c := range categories {
		if _, err := deps.Categories.Upsert(ctx, c); err != nil {
			return fmt.Errorf("upsert category %s: %w", c.Slug, err)
		}
	}
	for _, p := range products {
		if _, err := deps.Products.Upsert(ctx, p.Clone()); err != nil {
			return fmt.Errorf("upsert product %s: %w", p.SKU, err)
		}
	}
	logger.Info("demo catalog seeded", zap.Int("categories", len(categories)), zap.Int("products", len(products)))

	if admin.Password == "" {
		logger.Info("admin password not set, skipping admin account")
		return nil
	}
	u, err := deps.Admins.EnsureAdmin(ctx, admin.Email, admin.Password)
	if err != nil {
		return fmt.Errorf("ensure admin: %w", err)
	}
	logger.Info("admin account ready", zap.String("email", u.Email))
	return nil
}
