// Package importer loads catalog CSV files into the store.
package importer

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/logging"
)

type Kind string

const (
	KindProducts   Kind = "products"
	KindCategories Kind = "categories"
)

type ProductWriter interface {
	Upsert(ctx context.Context, p domain.Product) (*domain.Product, error)
}

type CategoryWriter interface {
	Upsert(ctx context.Context, c domain.Category) (*domain.Category, error)
}

// CSVImporter reads a product or category CSV and upserts every row.
// Product rows are keyed by sku; a row with an empty sku and an image adds
// that image to the product above it.
type CSVImporter struct {
	reader     *csv.Reader
	products   ProductWriter
	categories CategoryWriter
	logger     *zap.Logger
}

func NewCSVImporter(r io.Reader, products ProductWriter, categories CategoryWriter, logger *zap.Logger) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	csvr.TrimLeadingSpace = true
	return &CSVImporter{
		reader:     csvr,
		products:   products,
		categories: categories,
		logger:     logging.OrNop(logger).Named("importer"),
	}
}

// DetectKind peeks at the header line. Files with a sku or price column hold
// products; files with a slug column hold categories.
func DetectKind(r io.Reader) (Kind, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read header: %w", err)
	}
	headers, err := csv.NewReader(strings.NewReader(line)).Read()
	if err != nil {
		return "", fmt.Errorf("parse header: %w", err)
	}
	idx := headerIndex(headers)
	switch {
	case has(idx, "sku") || has(idx, "price"):
		return KindProducts, nil
	case has(idx, "slug"):
		return KindCategories, nil
	}
	return "", fmt.Errorf("%w: unrecognised csv header", domain.ErrInvalidInput)
}

// Run imports every row and returns how many entities were written.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)

	if has(index, "sku") || has(index, "price") {
		if i.products == nil {
			return 0, errors.New("product csv given but no product writer configured")
		}
		return i.runProducts(ctx, index)
	}
	if has(index, "slug") || has(index, "name") {
		if i.categories == nil {
			return 0, errors.New("category csv given but no category writer configured")
		}
		return i.runCategories(ctx, index)
	}
	return 0, fmt.Errorf("%w: unrecognised csv header", domain.ErrInvalidInput)
}

func (i *CSVImporter) runProducts(ctx context.Context, index map[string]int) (int, error) {
	var (
		current  *domain.Product
		line     = 1
		imported int
	)
	flush := func() error {
		if current == nil {
			return nil
		}
		if err := i.saveProduct(ctx, current); err != nil {
			return err
		}
		imported++
		return nil
	}

	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row: %w", err)
		}
		line++

		sku := pick(record, index, "sku")
		if sku == "" {
			// Continuation rows (images) belong to the current product.
			if img := pick(record, index, "images"); img != "" && current != nil {
				current.Images = append(current.Images, splitList(img)...)
			}
			continue
		}

		if err := flush(); err != nil {
			return imported, err
		}
		current, err = parseProduct(record, index)
		if err != nil {
			return imported, fmt.Errorf("line %d: %w", line, err)
		}
	}

	if err := flush(); err != nil {
		return imported, err
	}
	i.logger.Info("products imported", zap.Int("count", imported))
	return imported, nil
}

func (i *CSVImporter) saveProduct(ctx context.Context, p *domain.Product) error {
	if _, err := i.products.Upsert(ctx, *p); err != nil {
		return fmt.Errorf("upsert product %q: %w", p.SKU, err)
	}
	return nil
}

func (i *CSVImporter) runCategories(ctx context.Context, index map[string]int) (int, error) {
	imported := 0
	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row: %w", err)
		}

		c := domain.Category{
			Name:        pick(record, index, "name"),
			Slug:        pick(record, index, "slug"),
			Description: pick(record, index, "description"),
		}
		if c.Name == "" && c.Slug == "" {
			continue
		}
		if c.Name == "" {
			c.Name = titleFromSlug(c.Slug)
		}
		if _, err := i.categories.Upsert(ctx, c); err != nil {
			return imported, fmt.Errorf("upsert category %q: %w", c.Name, err)
		}
		imported++
	}
	i.logger.Info("categories imported", zap.Int("count", imported))
	return imported, nil
}

func parseProduct(record []string, index map[string]int) (*domain.Product, error) {
	p := &domain.Product{
		SKU:                 pick(record, index, "sku"),
		Name:                pick(record, index, "name"),
		Description:         pick(record, index, "description"),
		DetailedDescription: pick(record, index, "detailedDescription"),
		Category:            pick(record, index, "category"),
		Brand:               pick(record, index, "brand"),
		ModelName:           pick(record, index, "model"),
		Images:              splitList(pick(record, index, "images")),
		Features:            splitList(pick(record, index, "features")),
	}
	if p.Name == "" {
		return nil, fmt.Errorf("%w: product %q has no name", domain.ErrInvalidInput, p.SKU)
	}

	price, err := strconv.ParseInt(pick(record, index, "price"), 10, 64)
	if err != nil || price < 0 {
		return nil, fmt.Errorf("%w: product %q has invalid price", domain.ErrInvalidInput, p.SKU)
	}
	p.Price = price

	if v := pick(record, index, "stock"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: product %q has invalid stock %q", domain.ErrInvalidInput, p.SKU, v)
		}
		p.Stock = &n
	}
	if v := pick(record, index, "warrantyMonths"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: product %q has invalid warranty %q", domain.ErrInvalidInput, p.SKU, v)
		}
		p.WarrantyMonths = &n
	}
	if v := pick(record, index, "isPromotion"); v != "" {
		promo, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("%w: product %q has invalid isPromotion %q", domain.ErrInvalidInput, p.SKU, v)
		}
		p.IsPromotion = promo
	}
	if v := pick(record, index, "specs"); v != "" {
		p.Specs = map[string]string{}
		for _, pair := range splitList(v) {
			k, val, ok := strings.Cut(pair, "=")
			if !ok {
				return nil, fmt.Errorf("%w: product %q has invalid spec %q", domain.ErrInvalidInput, p.SKU, pair)
			}
			p.Specs[strings.TrimSpace(k)] = strings.TrimSpace(val)
		}
	}
	return p, nil
}

func titleFromSlug(slug string) string {
	words := strings.FieldsFunc(slug, func(r rune) bool { return r == '-' || r == '_' })
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ";")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	return idx
}

func has(index map[string]int, key string) bool {
	_, ok := index[key]
	return ok
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
