package product

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"storefront/internal/db"
	"storefront/internal/domain"
	"storefront/internal/logging"
)

const columns = `id::text, COALESCE(sku, ''), name, COALESCE(description, ''), COALESCE(detailed_description, ''),
       price, stock, images, COALESCE(category, ''), COALESCE(brand, ''), COALESCE(model_name, ''),
       features, specs, warranty_months, is_promotion, created_at, updated_at`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logging.OrNop(logger).Named("product_repo")}
}

func (r *postgresRepo) List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.Category != "" {
		where = append(where, "category = "+arg(filter.Category))
	}
	if filter.MinPrice != nil {
		where = append(where, "price >= "+arg(*filter.MinPrice))
	}
	if filter.MaxPrice != nil {
		where = append(where, "price <= "+arg(*filter.MaxPrice))
	}
	if filter.PromotionOnly {
		where = append(where, "is_promotion")
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		p := arg("%" + s + "%")
		where = append(where, fmt.Sprintf("(name ILIKE %[1]s OR brand ILIKE %[1]s OR category ILIKE %[1]s)", p))
	}

	q := "SELECT " + columns + " FROM products"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	switch filter.Sort {
	case domain.SortPriceAsc:
		q += " ORDER BY price ASC, created_at DESC"
	case domain.SortPriceDesc:
		q += " ORDER BY price DESC, created_at DESC"
	default:
		q += " ORDER BY created_at DESC"
	}

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		r.logger.Error("list", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	result := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("list rows", zap.Error(err))
		return nil, err
	}
	r.logger.Debug("list", zap.Int("count", len(result)))
	return result, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	p, err := scanProduct(r.pool.QueryRow(ctx, "SELECT "+columns+" FROM products WHERE id = $1", id))
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			r.logger.Error("get", zap.String("id", id), zap.Error(err))
		}
		return nil, err
	}
	return p, nil
}

func (r *postgresRepo) Create(ctx context.Context, p domain.Product) (*domain.Product, error) {
	enc, err := encodeJSON(p)
	if err != nil {
		return nil, err
	}
	q := `
INSERT INTO products (sku, name, description, detailed_description, price, stock, images, category, brand,
                      model_name, features, specs, warranty_months, is_promotion)
VALUES (NULLIF($1, ''), $2, NULLIF($3, ''), NULLIF($4, ''), $5, $6, $7, NULLIF($8, ''), NULLIF($9, ''),
        NULLIF($10, ''), $11, $12, $13, $14)
RETURNING ` + columns
	out, err := scanProduct(r.pool.QueryRow(ctx, q,
		p.SKU, p.Name, p.Description, p.DetailedDescription, p.Price, p.Stock, enc.images, p.Category, p.Brand,
		p.ModelName, enc.features, enc.specs, p.WarrantyMonths, p.IsPromotion,
	))
	if err != nil {
		r.logger.Error("create", zap.String("name", p.Name), zap.Error(err))
		return nil, db.MapError(err)
	}
	r.logger.Info("created", zap.String("id", out.ID), zap.String("name", out.Name))
	return out, nil
}

func (r *postgresRepo) Update(ctx context.Context, p domain.Product) (*domain.Product, error) {
	if _, err := uuid.Parse(p.ID); err != nil {
		return nil, domain.ErrNotFound
	}
	enc, err := encodeJSON(p)
	if err != nil {
		return nil, err
	}
	q := `
UPDATE products SET
    sku = NULLIF($2, ''),
    name = $3,
    description = NULLIF($4, ''),
    detailed_description = NULLIF($5, ''),
    price = $6,
    stock = $7,
    images = $8,
    category = NULLIF($9, ''),
    brand = NULLIF($10, ''),
    model_name = NULLIF($11, ''),
    features = $12,
    specs = $13,
    warranty_months = $14,
    is_promotion = $15,
    updated_at = now()
WHERE id = $1
RETURNING ` + columns
	out, err := scanProduct(r.pool.QueryRow(ctx, q,
		p.ID, p.SKU, p.Name, p.Description, p.DetailedDescription, p.Price, p.Stock, enc.images, p.Category,
		p.Brand, p.ModelName, enc.features, enc.specs, p.WarrantyMonths, p.IsPromotion,
	))
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			r.logger.Error("update", zap.String("id", p.ID), zap.Error(err))
		}
		return nil, db.MapError(err)
	}
	return out, nil
}

func (r *postgresRepo) UpsertBySKU(ctx context.Context, p domain.Product) (*domain.Product, error) {
	if p.SKU == "" {
		return nil, fmt.Errorf("%w: sku required for upsert", domain.ErrInvalidInput)
	}
	enc, err := encodeJSON(p)
	if err != nil {
		return nil, err
	}
	q := `
INSERT INTO products (sku, name, description, detailed_description, price, stock, images, category, brand,
                      model_name, features, specs, warranty_months, is_promotion)
VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, $6, $7, NULLIF($8, ''), NULLIF($9, ''),
        NULLIF($10, ''), $11, $12, $13, $14)
ON CONFLICT (sku) DO UPDATE SET
    name = EXCLUDED.name,
    description = EXCLUDED.description,
    detailed_description = EXCLUDED.detailed_description,
    price = EXCLUDED.price,
    stock = EXCLUDED.stock,
    images = EXCLUDED.images,
    category = EXCLUDED.category,
    brand = EXCLUDED.brand,
    model_name = EXCLUDED.model_name,
    features = EXCLUDED.features,
    specs = EXCLUDED.specs,
    warranty_months = EXCLUDED.warranty_months,
    is_promotion = EXCLUDED.is_promotion,
    updated_at = now()
RETURNING ` + columns
	out, err := scanProduct(r.pool.QueryRow(ctx, q,
		p.SKU, p.Name, p.Description, p.DetailedDescription, p.Price, p.Stock, enc.images, p.Category, p.Brand,
		p.ModelName, enc.features, enc.specs, p.WarrantyMonths, p.IsPromotion,
	))
	if err != nil {
		r.logger.Error("upsert", zap.String("sku", p.SKU), zap.Error(err))
		return nil, db.MapError(err)
	}
	r.logger.Debug("upserted", zap.String("sku", out.SKU), zap.String("id", out.ID))
	return out, nil
}

func (r *postgresRepo) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrNotFound
	}
	cmd, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("delete", zap.String("id", id), zap.Error(err))
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	r.logger.Info("deleted", zap.String("id", id))
	return nil
}

func (r *postgresRepo) SetStock(ctx context.Context, id string, stock *int) (*domain.Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	q := `UPDATE products SET stock = $2, updated_at = now() WHERE id = $1 RETURNING ` + columns
	out, err := scanProduct(r.pool.QueryRow(ctx, q, id, stock))
	if err != nil {
		return nil, db.MapError(err)
	}
	return out, nil
}

type jsonColumns struct {
	images   []byte
	features []byte
	specs    []byte
}

func encodeJSON(p domain.Product) (jsonColumns, error) {
	var out jsonColumns
	var err error
	images, features, specs := p.Images, p.Features, p.Specs
	if images == nil {
		images = []string{}
	}
	if features == nil {
		features = []string{}
	}
	if specs == nil {
		specs = map[string]string{}
	}
	if out.images, err = json.Marshal(images); err != nil {
		return out, err
	}
	if out.features, err = json.Marshal(features); err != nil {
		return out, err
	}
	if out.specs, err = json.Marshal(specs); err != nil {
		return out, err
	}
	return out, nil
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var (
		p                       domain.Product
		images, features, specs []byte
	)
	err := row.Scan(
		&p.ID, &p.SKU, &p.Name, &p.Description, &p.DetailedDescription,
		&p.Price, &p.Stock, &images, &p.Category, &p.Brand, &p.ModelName,
		&features, &specs, &p.WarrantyMonths, &p.IsPromotion, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if len(images) > 0 {
		if err := json.Unmarshal(images, &p.Images); err != nil {
			return nil, fmt.Errorf("decode images for %s: %w", p.ID, err)
		}
	}
	if len(features) > 0 {
		if err := json.Unmarshal(features, &p.Features); err != nil {
			return nil, fmt.Errorf("decode features for %s: %w", p.ID, err)
		}
	}
	if len(specs) > 0 {
		if err := json.Unmarshal(specs, &p.Specs); err != nil {
			return nil, fmt.Errorf("decode specs for %s: %w", p.ID, err)
		}
	}
	return &p, nil
}
