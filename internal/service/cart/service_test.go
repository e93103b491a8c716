package cart

import (
	"context"
	"errors"
	"testing"

	"storefront/internal/cart"
	"storefront/internal/domain"
	"storefront/internal/repository/cartsnapshot"
)

type stubProducts struct {
	byID map[string]domain.Product
}

func (s *stubProducts) GetByID(_ context.Context, id string) (*domain.Product, error) {
	p, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func intPtr(v int) *int { return &v }

func newService(t *testing.T, cfg Config) (*Service, *stubProducts, *cartsnapshot.Memory) {
	t.Helper()
	products := &stubProducts{byID: map[string]domain.Product{
		"bolt":  {ID: "bolt", Name: "Bolt", Price: 150, Stock: intPtr(100)},
		"drill": {ID: "drill", Name: "Drill", Price: 45000, Stock: intPtr(3)},
	}}
	snaps := cartsnapshot.NewMemory()
	svc, err := New(snaps, products, cfg, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	return svc, products, snaps
}

func TestAddUsesCatalogProduct(t *testing.T) {
	svc, _, _ := newService(t, Config{})
	ctx := context.Background()
	key := svc.NewSession()

	res, v, err := svc.Add(ctx, key, "bolt", 2)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if !res.Accepted() || v.Total != 7500 || v.ItemCount != 2 || v.Key != key {
		t.Fatalf("unexpected add %+v %+v", res, v)
	}

	if _, _, err := svc.Add(ctx, key, "ghost", 1); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown product, got %v", err)
	}
}

func TestRejectionLeavesCartUnchanged(t *testing.T) {
	svc, _, _ := newService(t, Config{})
	ctx := context.Background()
	key := svc.NewSession()

	res, v, err := svc.Add(ctx, key, "bolt", 5)
	if err != nil {
		t.Fatalf("lenient mode returns no error, got %v", err)
	}
	if res.Outcome != cart.RejectedInsufficientStock || res.Available != 100 || res.Requested != 125 {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(v.Items) != 0 {
		t.Fatalf("cart changed on rejection: %+v", v)
	}
}

func TestStrictStockSurfacesError(t *testing.T) {
	svc, _, _ := newService(t, Config{StrictStock: true})
	_, _, err := svc.Add(context.Background(), svc.NewSession(), "drill", 4)
	if !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
}

func TestEvictedCartIsRehydrated(t *testing.T) {
	svc, _, _ := newService(t, Config{CacheSize: 1})
	ctx := context.Background()
	first, second := svc.NewSession(), svc.NewSession()

	if _, _, err := svc.Add(ctx, first, "drill", 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, _, err := svc.Add(ctx, second, "bolt", 1); err != nil {
		t.Fatalf("add: %v", err)
	}

	v, err := svc.Get(ctx, first)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if v.Total != 90000 || v.ItemCount != 2 {
		t.Fatalf("expected rehydrated cart, got %+v", v)
	}
}

func TestInvalidKeyIsNotFound(t *testing.T) {
	svc, _, _ := newService(t, Config{})
	if _, err := svc.Get(context.Background(), "../etc"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.Get(context.Background(), RegisterKey("front-desk")); err != nil {
		t.Fatalf("register key should be valid, got %v", err)
	}
}

func TestSetQuantityRemoveClear(t *testing.T) {
	svc, _, _ := newService(t, Config{})
	ctx := context.Background()
	key := svc.NewSession()

	if _, _, err := svc.Add(ctx, key, "bolt", 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, _, err := svc.Add(ctx, key, "drill", 1); err != nil {
		t.Fatalf("add: %v", err)
	}

	res, v, _ := svc.SetQuantity(ctx, key, "bolt", 3)
	if !res.Accepted() || v.Total != 150*3*25+45000 {
		t.Fatalf("unexpected set quantity %+v %+v", res, v)
	}
	res, _, _ = svc.SetQuantity(ctx, key, "ghost", 3)
	if res.Outcome != cart.Ignored {
		t.Fatalf("expected ignored, got %v", res.Outcome)
	}

	_, v, _ = svc.Remove(ctx, key, "drill")
	if v.Total != 11250 || len(v.Items) != 1 {
		t.Fatalf("unexpected remove %+v", v)
	}

	_, v, _ = svc.Clear(ctx, key)
	if len(v.Items) != 0 || v.Total != 0 {
		t.Fatalf("unexpected clear %+v", v)
	}
}

func TestEvictedCartInUseKeepsOneStore(t *testing.T) {
	svc, _, _ := newService(t, Config{CacheSize: 1})
	ctx := context.Background()
	a, b := svc.NewSession(), svc.NewSession()

	held, release, err := svc.acquire(ctx, a)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if _, err := svc.Get(ctx, b); err != nil {
		t.Fatalf("get: %v", err)
	}
	if svc.stores.Contains(a) {
		t.Fatalf("expected %s to be evicted", a)
	}

	if _, _, err := svc.Add(ctx, a, "bolt", 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	if held.ItemCount() != 1 {
		t.Fatalf("add went to a second store for the same key")
	}
	again, releaseAgain, err := svc.acquire(ctx, a)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if again != held {
		t.Fatalf("expected the held store back")
	}

	releaseAgain()
	release()
	if len(svc.leases) != 0 {
		t.Fatalf("leases not released: %d", len(svc.leases))
	}
}
