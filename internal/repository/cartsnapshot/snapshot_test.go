package cartsnapshot

import (
	"context"
	"errors"
	"testing"

	"storefront/internal/cart"
	"storefront/internal/db/dbtest"
)

func exerciseStore(t *testing.T, store cart.SnapshotStore) {
	t.Helper()
	ctx := context.Background()

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, cart.ErrSnapshotNotFound) {
		t.Fatalf("expected ErrSnapshotNotFound, got %v", err)
	}
	if err := store.Set(ctx, "k", []byte(`{"items":[],"total":0}`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Set(ctx, "k", []byte(`{"items":[],"total":5}`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	state, err := cart.Decode(got)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if state.Total != 5 {
		t.Fatalf("expected overwritten snapshot, got %+v", state)
	}
}

func TestMemory(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestPostgres(t *testing.T) {
	pool := dbtest.Pool(context.Background(), t)
	exerciseStore(t, NewPostgres(pool))
}
