package order

import (
	"context"
	"time"

	"storefront/internal/domain"
)

// ListFilter narrows order listings. Empty fields match everything.
type ListFilter struct {
	Status string
	UserID string
}

// Repository persists orders and their items.
type Repository interface {
	// Create inserts the order and its items and decrements stock by each
	// item's Pieces in the same transaction. It fails with
	// domain.ErrInsufficientStock when a tracked product cannot cover an item.
	Create(ctx context.Context, o domain.Order) (*domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	List(ctx context.Context, filter ListFilter) ([]domain.Order, error)
	// UpdateStatus changes the status. Moving into cancelled returns the
	// items' pieces to stock; leaving cancelled takes them again.
	UpdateStatus(ctx context.Context, id, status string) (*domain.Order, error)
	MarkPaid(ctx context.Context, id string, at time.Time) (*domain.Order, error)
	MarkDelivered(ctx context.Context, id string, at time.Time) (*domain.Order, error)
	// Stats aggregates all orders, with per-day figures from since onwards.
	Stats(ctx context.Context, since time.Time) (*domain.OrderStats, error)
}
