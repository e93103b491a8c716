package seed

import (
	"context"
	"errors"
	"testing"

	"storefront/internal/domain"
)

type recorder struct {
	categories []domain.Category
	products   []domain.Product
	admins     []string
	productErr error
}

func (r *recorder) upsertCategory(_ context.Context, c domain.Category) (*domain.Category, error) {
	r.categories = append(r.categories, c)
	return &c, nil
}

type categoryFunc func(context.Context, domain.Category) (*domain.Category, error)

func (f categoryFunc) Upsert(ctx context.Context, c domain.Category) (*domain.Category, error) {
	return f(ctx, c)
}

type productFunc func(context.Context, domain.Product) (*domain.Product, error)

func (f productFunc) Upsert(ctx context.Context, p domain.Product) (*domain.Product, error) {
	return f(ctx, p)
}

type adminFunc func(context.Context, string, string) (*domain.User, error)

func (f adminFunc) EnsureAdmin(ctx context.Context, email, password string) (*domain.User, error) {
	return f(ctx, email, password)
}

func (r *recorder) deps() Deps {
	return Deps{
		Categories: categoryFunc(r.upsertCategory),
		Products: productFunc(func(_ context.Context, p domain.Product) (*domain.Product, error) {
			if r.productErr != nil {
				return nil, r.productErr
			}
			r.products = append(r.products, p)
			return &p, nil
		}),
		Admins: adminFunc(func(_ context.Context, email, _ string) (*domain.User, error) {
			r.admins = append(r.admins, email)
			return &domain.User{Email: email, Role: domain.RoleAdmin}, nil
		}),
	}
}

func TestApplySeedsCatalogAndAdmin(t *testing.T) {
	r := &recorder{}
	if err := Apply(context.Background(), r.deps(), Admin{Email: "admin@example.com", Password: "Secret123"}, nil); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(r.categories) != len(categories) || len(r.products) != len(products) {
		t.Fatalf("unexpected counts %d categories %d products", len(r.categories), len(r.products))
	}
	if len(r.admins) != 1 || r.admins[0] != "admin@example.com" {
		t.Fatalf("expected admin ensured, got %v", r.admins)
	}
	for _, p := range r.products {
		if p.SKU == "" {
			t.Fatalf("seed products must carry a SKU: %+v", p)
		}
	}
}

func TestApplySkipsAdminWithoutPassword(t *testing.T) {
	r := &recorder{}
	if err := Apply(context.Background(), r.deps(), Admin{Email: "admin@example.com"}, nil); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(r.admins) != 0 {
		t.Fatalf("admin must not be created without a password")
	}
}

func TestApplyStopsOnProductError(t *testing.T) {
	r := &recorder{productErr: errors.New("db down")}
	if err := Apply(context.Background(), r.deps(), Admin{}, nil); err == nil {
		t.Fatalf("expected error")
	}
}
