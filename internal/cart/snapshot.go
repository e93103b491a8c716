package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"storefront/internal/domain"
)

var (
	// ErrSnapshotNotFound is returned by a SnapshotStore when key has no snapshot.
	ErrSnapshotNotFound = errors.New("cart snapshot not found")
	// ErrMalformedSnapshot is returned by Decode for foreign or corrupt data.
	ErrMalformedSnapshot = errors.New("malformed cart snapshot")
)

// SnapshotStore is the key-value storage the cart mirrors itself into.
// Every Set overwrites the whole snapshot for key.
type SnapshotStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, data []byte) error
}

// Encode serialises s as {"items":[{"product":{...},"quantity":n}],"total":n}.
func Encode(s domain.CartState) ([]byte, error) {
	if s.Items == nil {
		s.Items = []domain.CartLine{}
	}
	return json.Marshal(s)
}

// Decode parses a snapshot written by Encode. Data that does not describe a
// valid cart (missing ids, duplicate products, non-positive quantities) is
// rejected with ErrMalformedSnapshot.
func Decode(data []byte) (domain.CartState, error) {
	var raw struct {
		Items *[]domain.CartLine `json:"items"`
		Total *int64             `json:"total"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return domain.CartState{}, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}
	if raw.Items == nil || raw.Total == nil {
		return domain.CartState{}, fmt.Errorf("%w: missing items or total", ErrMalformedSnapshot)
	}

	seen := make(map[string]struct{}, len(*raw.Items))
	for i, line := range *raw.Items {
		if line.Product.ID == "" {
			return domain.CartState{}, fmt.Errorf("%w: line %d has no product id", ErrMalformedSnapshot, i)
		}
		if line.Quantity < 1 || line.Quantity > MaxLineQuantity {
			return domain.CartState{}, fmt.Errorf("%w: line %d quantity %d", ErrMalformedSnapshot, i, line.Quantity)
		}
		if _, dup := seen[line.Product.ID]; dup {
			return domain.CartState{}, fmt.Errorf("%w: duplicate product %s", ErrMalformedSnapshot, line.Product.ID)
		}
		seen[line.Product.ID] = struct{}{}
	}
	return domain.CartState{Items: *raw.Items, Total: *raw.Total}, nil
}
