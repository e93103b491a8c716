// Package cartsnapshot stores serialised carts by key.
package cartsnapshot

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront/internal/cart"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

// NewPostgres returns a cart.SnapshotStore backed by the cart_snapshots table.
func NewPostgres(pool *pgxpool.Pool) cart.SnapshotStore {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) Get(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := r.pool.QueryRow(ctx, `SELECT data FROM cart_snapshots WHERE key = $1`, key).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cart.ErrSnapshotNotFound
		}
		return nil, err
	}
	return data, nil
}

func (r *postgresRepo) Set(ctx context.Context, key string, data []byte) error {
	const q = `
INSERT INTO cart_snapshots (key, data, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE SET data = EXCLUDED.data, updated_at = now()
`
	_, err := r.pool.Exec(ctx, q, key, data)
	return err
}
