package token

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront/internal/db/dbtest"
	"storefront/internal/domain"
)

func TestPostgres_TokenLifecycle(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(ctx, t)

	var userID string
	if err := pool.QueryRow(ctx, `INSERT INTO users (first_name, last_name, email, password_hash) VALUES ('a', 'b', 'a@b.c', 'h') RETURNING id::text`).Scan(&userID); err != nil {
		t.Fatalf("insert user: %v", err)
	}

	repo := NewPostgres(pool)
	now := time.Now().UTC()
	if err := repo.Create(ctx, Token{Token: "live", UserID: userID, ExpiresAt: now.Add(time.Hour)}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Create(ctx, Token{Token: "stale", UserID: userID, ExpiresAt: now.Add(-time.Hour)}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Create(ctx, Token{Token: "live", UserID: userID, ExpiresAt: now}); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}

	got, err := repo.Get(ctx, "live")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.UserID != userID {
		t.Fatalf("unexpected token %+v", got)
	}

	n, err := repo.DeleteExpired(ctx, now)
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 expired token, got %d", n)
	}

	if err := repo.Delete(ctx, "live"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.Get(ctx, "live"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
