package db

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"storefront/internal/domain"
)

func TestMapError(t *testing.T) {
	if got := MapError(&pgconn.PgError{Code: "23505"}); !errors.Is(got, domain.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", got)
	}
	if got := MapError(&pgconn.PgError{Code: "22P02", Message: "bad uuid"}); !errors.Is(got, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", got)
	}
	plain := errors.New("boom")
	if got := MapError(plain); got != plain {
		t.Fatalf("expected passthrough, got %v", got)
	}
}
