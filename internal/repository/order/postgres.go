package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"storefront/internal/db"
	"storefront/internal/domain"
	"storefront/internal/logging"
)

const orderColumns = `id::text, user_id::text, first_name, last_name, COALESCE(email, ''), phone, delivery_method,
       shipping_address, payment_method, items_price, tax_price, shipping_price, total_price,
       is_paid, paid_at, is_delivered, delivered_at, status, source, created_at, updated_at`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logging.OrNop(logger).Named("order_repo")}
}

func (r *postgresRepo) Create(ctx context.Context, o domain.Order) (*domain.Order, error) {
	var address []byte
	if o.ShippingAddress != nil {
		var err error
		if address, err = json.Marshal(o.ShippingAddress); err != nil {
			return nil, err
		}
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	q := `
INSERT INTO orders (user_id, first_name, last_name, email, phone, delivery_method, shipping_address,
                    payment_method, items_price, tax_price, shipping_price, total_price, status, source)
VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
RETURNING ` + orderColumns
	out, err := scanOrder(tx.QueryRow(ctx, q,
		o.UserID, o.PersonalInfo.FirstName, o.PersonalInfo.LastName, o.PersonalInfo.Email, o.PersonalInfo.Phone,
		o.DeliveryMethod, address, o.PaymentMethod, o.ItemsPrice, o.TaxPrice, o.ShippingPrice, o.TotalPrice,
		o.Status, o.Source,
	))
	if err != nil {
		return nil, db.MapError(err)
	}

	for i, item := range o.Items {
		if err := takeStock(ctx, tx, item); err != nil {
			return nil, err
		}
		var productID *string
		if item.ProductID != "" {
			productID = &item.ProductID
		}
		if _, err := tx.Exec(ctx, `
INSERT INTO order_items (order_id, product_id, position, name, quantity, price, image, pieces, line_total)
VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8, $9)
`, out.ID, productID, i, item.Name, item.Quantity, item.Price, item.Image, item.Pieces, item.LineTotal); err != nil {
			return nil, db.MapError(err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	out.Items = append([]domain.OrderItem{}, o.Items...)
	r.logger.Info("order created",
		zap.String("id", out.ID),
		zap.Int("items", len(out.Items)),
		zap.Int64("total", out.TotalPrice),
	)
	return out, nil
}

func takeStock(ctx context.Context, tx pgx.Tx, item domain.OrderItem) error {
	if item.ProductID == "" {
		return nil
	}
	var remaining *int
	err := tx.QueryRow(ctx, `
UPDATE products
SET stock = stock - $2, updated_at = now()
WHERE id = $1 AND (stock IS NULL OR stock >= $2)
RETURNING stock
`, item.ProductID, item.Pieces).Scan(&remaining)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return db.MapError(err)
	}

	var available *int
	err = tx.QueryRow(ctx, `SELECT stock FROM products WHERE id = $1`, item.ProductID).Scan(&available)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("product %s: %w", item.ProductID, domain.ErrNotFound)
	}
	if err != nil {
		return err
	}
	have := 0
	if available != nil {
		have = *available
	}
	return fmt.Errorf("product %s has %d, order needs %d: %w", item.ProductID, have, item.Pieces, domain.ErrInsufficientStock)
}

func returnStock(ctx context.Context, tx pgx.Tx, orderID string) error {
	_, err := tx.Exec(ctx, `
UPDATE products p
SET stock = p.stock + i.pieces, updated_at = now()
FROM (SELECT product_id, SUM(pieces) AS pieces FROM order_items WHERE order_id = $1 GROUP BY product_id) i
WHERE p.id = i.product_id AND p.stock IS NOT NULL
`, orderID)
	return err
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	o, err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, []*domain.Order{o}); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *postgresRepo) List(ctx context.Context, filter ListFilter) ([]domain.Order, error) {
	var (
		where []string
		args  []any
	)
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.UserID != "" {
		if _, err := uuid.Parse(filter.UserID); err != nil {
			return []domain.Order{}, nil
		}
		args = append(args, filter.UserID)
		where = append(where, fmt.Sprintf("user_id = $%d", len(args)))
	}
	q := `SELECT ` + orderColumns + ` FROM orders`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at DESC"

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		r.logger.Error("list", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var ptrs []*domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		ptrs = append(ptrs, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, ptrs); err != nil {
		return nil, err
	}

	result := make([]domain.Order, 0, len(ptrs))
	for _, o := range ptrs {
		result = append(result, *o)
	}
	return result, nil
}

func (r *postgresRepo) loadItems(ctx context.Context, orders []*domain.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]string, len(orders))
	byID := make(map[string]*domain.Order, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		byID[o.ID] = o
		o.Items = []domain.OrderItem{}
	}

	rows, err := r.pool.Query(ctx, `
SELECT order_id::text, COALESCE(product_id::text, ''), name, quantity, price, COALESCE(image, ''), pieces, line_total
FROM order_items
WHERE order_id = ANY($1::uuid[])
ORDER BY order_id, position
`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var orderID string
		var it domain.OrderItem
		if err := rows.Scan(&orderID, &it.ProductID, &it.Name, &it.Quantity, &it.Price, &it.Image, &it.Pieces, &it.LineTotal); err != nil {
			return err
		}
		if o, ok := byID[orderID]; ok {
			o.Items = append(o.Items, it)
		}
	}
	return rows.Err()
}

func (r *postgresRepo) UpdateStatus(ctx context.Context, id, status string) (*domain.Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var previous string
	if err := tx.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1 FOR UPDATE`, id).Scan(&previous); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	switch {
	case previous != domain.OrderCancelled && status == domain.OrderCancelled:
		if err := returnStock(ctx, tx, id); err != nil {
			return nil, err
		}
	case previous == domain.OrderCancelled && status != domain.OrderCancelled:
		if err := r.retakeStock(ctx, tx, id); err != nil {
			return nil, err
		}
	}

	q := `
UPDATE orders
SET status = $2,
    is_delivered = is_delivered OR $2 = 'delivered',
    delivered_at = CASE WHEN $2 = 'delivered' AND delivered_at IS NULL THEN now() ELSE delivered_at END,
    updated_at = now()
WHERE id = $1
RETURNING ` + orderColumns
	out, err := scanOrder(tx.QueryRow(ctx, q, id, status))
	if err != nil {
		return nil, db.MapError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, []*domain.Order{out}); err != nil {
		return nil, err
	}
	r.logger.Info("status changed", zap.String("id", id), zap.String("from", previous), zap.String("to", status))
	return out, nil
}

func (r *postgresRepo) retakeStock(ctx context.Context, tx pgx.Tx, orderID string) error {
	rows, err := tx.Query(ctx, `
SELECT product_id::text, SUM(pieces)::int
FROM order_items
WHERE order_id = $1 AND product_id IS NOT NULL
GROUP BY product_id
`, orderID)
	if err != nil {
		return err
	}
	var items []domain.OrderItem
	for rows.Next() {
		var it domain.OrderItem
		if err := rows.Scan(&it.ProductID, &it.Pieces); err != nil {
			rows.Close()
			return err
		}
		items = append(items, it)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}
	for _, it := range items {
		if err := takeStock(ctx, tx, it); err != nil {
			return err
		}
	}
	return nil
}

func (r *postgresRepo) MarkPaid(ctx context.Context, id string, at time.Time) (*domain.Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	q := `
UPDATE orders
SET is_paid = true, paid_at = COALESCE(paid_at, $2), updated_at = now()
WHERE id = $1
RETURNING ` + orderColumns
	return r.updateAndLoad(ctx, q, id, at)
}

func (r *postgresRepo) MarkDelivered(ctx context.Context, id string, at time.Time) (*domain.Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	q := `
UPDATE orders
SET is_delivered = true, delivered_at = COALESCE(delivered_at, $2), status = 'delivered', updated_at = now()
WHERE id = $1 AND status <> 'cancelled'
RETURNING ` + orderColumns
	out, err := r.updateAndLoad(ctx, q, id, at)
	if errors.Is(err, domain.ErrNotFound) {
		if _, getErr := r.GetByID(ctx, id); getErr == nil {
			return nil, fmt.Errorf("%w: cancelled orders cannot be delivered", domain.ErrInvalidInput)
		}
	}
	return out, err
}

func (r *postgresRepo) updateAndLoad(ctx context.Context, q string, args ...any) (*domain.Order, error) {
	out, err := scanOrder(r.pool.QueryRow(ctx, q, args...))
	if err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, []*domain.Order{out}); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *postgresRepo) Stats(ctx context.Context, since time.Time) (*domain.OrderStats, error) {
	var s domain.OrderStats
	err := r.pool.QueryRow(ctx, `
SELECT COUNT(*),
       COUNT(*) FILTER (WHERE NOT is_delivered AND status <> 'cancelled'),
       COUNT(*) FILTER (WHERE is_delivered),
       COALESCE(SUM(total_price) FILTER (WHERE status <> 'cancelled'), 0)::bigint
FROM orders
`).Scan(&s.TotalOrders, &s.PendingOrders, &s.DeliveredOrders, &s.TotalRevenue)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
SELECT date_trunc('day', created_at AT TIME ZONE 'UTC') AS day, COUNT(*), COALESCE(SUM(total_price), 0)::bigint
FROM orders
WHERE created_at >= $1 AND status <> 'cancelled'
GROUP BY day
ORDER BY day
`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var days []domain.DailyStats
	for rows.Next() {
		var d domain.DailyStats
		if err := rows.Scan(&d.Day, &d.Orders, &d.Revenue); err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	s.Daily = fillDays(since, time.Now(), days)
	return &s, nil
}

// fillDays returns one entry per UTC day from since to until inclusive,
// zero for days without orders.
func fillDays(since, until time.Time, days []domain.DailyStats) []domain.DailyStats {
	byDay := make(map[string]domain.DailyStats, len(days))
	for _, d := range days {
		byDay[d.Day.UTC().Format(time.DateOnly)] = d
	}

	start := since.UTC().Truncate(24 * time.Hour)
	end := until.UTC().Truncate(24 * time.Hour)
	out := []domain.DailyStats{}
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		d := byDay[day.Format(time.DateOnly)]
		d.Day = day
		out = append(out, d)
	}
	return out
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		o       domain.Order
		address []byte
	)
	err := row.Scan(
		&o.ID, &o.UserID, &o.PersonalInfo.FirstName, &o.PersonalInfo.LastName, &o.PersonalInfo.Email,
		&o.PersonalInfo.Phone, &o.DeliveryMethod, &address, &o.PaymentMethod, &o.ItemsPrice, &o.TaxPrice,
		&o.ShippingPrice, &o.TotalPrice, &o.IsPaid, &o.PaidAt, &o.IsDelivered, &o.DeliveredAt, &o.Status,
		&o.Source, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if len(address) > 0 && string(address) != "null" {
		o.ShippingAddress = &domain.ShippingAddress{}
		if err := json.Unmarshal(address, o.ShippingAddress); err != nil {
			return nil, fmt.Errorf("decode shipping address for %s: %w", o.ID, err)
		}
	}
	return &o, nil
}
