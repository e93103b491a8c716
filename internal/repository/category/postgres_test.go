package category

import (
	"context"
	"errors"
	"testing"

	"storefront/internal/db/dbtest"
	"storefront/internal/domain"
)

func TestPostgres_CreateAndList(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(ctx, t)
	repo := NewPostgres(pool)

	cat, err := repo.Create(ctx, domain.Category{Name: "Hardware", Slug: "hardware"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if cat.ID == "" || cat.Slug != "hardware" {
		t.Fatalf("unexpected category %+v", cat)
	}

	if _, err := repo.Create(ctx, domain.Category{Name: "Dup", Slug: "hardware"}); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}

	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Name != "Hardware" {
		t.Fatalf("unexpected list %+v", list)
	}
}

func TestPostgres_UpsertUpdatesExisting(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(ctx, t)
	repo := NewPostgres(pool)

	first, err := repo.Upsert(ctx, domain.Category{Name: "Tools", Slug: "tools"})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	second, err := repo.Upsert(ctx, domain.Category{Name: "Power tools", Slug: "tools"})
	if err != nil {
		t.Fatalf("upsert update: %v", err)
	}
	if second.ID != first.ID || second.Name != "Power tools" {
		t.Fatalf("unexpected upsert result %+v", second)
	}

	if err := repo.Delete(ctx, first.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, first.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
