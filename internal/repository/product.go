package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/storefront-api/storefront/internal/domain/catalog"
)

const (
	countProductsSQL = `SELECT count(*) FROM products`

	listProductsSQL = `SELECT p.id, p.title, p.slug, p.description, c.title, s.title,
			p.price, p.image, p.image_thumbnail, p.image_preview
		FROM products p
		JOIN product_categories c ON c.id = p.category_id
		JOIN product_subcategories s ON s.id = p.subcategory_id
		ORDER BY p.title, p.id LIMIT $1 OFFSET $2`

	getProductBySlugSQL = `SELECT p.id, p.title, p.slug, p.description, c.title, s.title,
			p.price, p.image, p.image_thumbnail, p.image_preview
		FROM products p
		JOIN product_categories c ON c.id = p.category_id
		JOIN product_subcategories s ON s.id = p.subcategory_id
		WHERE p.slug = $1`

	listProductSlugsSQL = `SELECT slug FROM products`
)

var _ catalog.ProductRepository = (*ProductRepository)(nil)

// ProductRepository implements catalog.ProductRepository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns one page of products ordered by title, plus the total count.
func (r *ProductRepository) List(ctx context.Context, page catalog.Page) ([]catalog.Product, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, countProductsSQL).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting products: %w", err)
	}

	rows, err := r.pool.Query(ctx, listProductsSQL, page.Limit, page.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("listing products: %w", err)
	}
	products, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, 0, fmt.Errorf("listing products: %w", err)
	}
	return products, total, nil
}

// GetBySlug returns a single product by its unique slug.
func (r *ProductRepository) GetBySlug(ctx context.Context, slug string) (*catalog.Product, error) {
	rows, err := r.pool.Query(ctx, getProductBySlugSQL, slug)
	if err != nil {
		return nil, fmt.Errorf("getting product %q: %w", slug, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %q: %w", slug, err)
	}
	return &p, nil
}

// ListSlugs returns every product slug. Used to build the slug bloom filter.
func (r *ProductRepository) ListSlugs(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, listProductSlugsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing product slugs: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (string, error) {
		var s string
		err := row.Scan(&s)
		return s, err
	})
}

func scanProduct(row pgx.CollectableRow) (catalog.Product, error) {
	var p catalog.Product
	err := row.Scan(
		&p.ID, &p.Title, &p.Slug, &p.Description, &p.Category, &p.Subcategory,
		&p.Price, &p.Image.Original, &p.Image.Thumbnail, &p.Image.Preview,
	)
	return p, err
}
