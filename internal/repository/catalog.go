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
	countCategoriesSQL = `SELECT count(*) FROM product_categories`

	listCategoriesSQL = `SELECT id, title, slug, description, image
		FROM product_categories ORDER BY title, id LIMIT $1 OFFSET $2`

	getCategoryBySlugSQL = `SELECT id, title, slug, description, image
		FROM product_categories WHERE slug = $1`

	listSubcategoriesSQL = `SELECT id, category_id, title, slug, description, image
		FROM product_subcategories WHERE category_id = ANY($1) ORDER BY title, id`
)

var _ catalog.CategoryRepository = (*CategoryRepository)(nil)

// CategoryRepository implements catalog.CategoryRepository backed by
// PostgreSQL. Listed categories carry their subcategories, fetched in a
// single second query.
type CategoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository returns a CategoryRepository that uses the given pool.
func NewCategoryRepository(pool *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

// List returns one page of categories ordered by title, plus the total count.
func (r *CategoryRepository) List(ctx context.Context, page catalog.Page) ([]catalog.Category, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, countCategoriesSQL).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting categories: %w", err)
	}

	rows, err := r.pool.Query(ctx, listCategoriesSQL, page.Limit, page.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("listing categories: %w", err)
	}
	categories, err := pgx.CollectRows(rows, scanCategory)
	if err != nil {
		return nil, 0, fmt.Errorf("listing categories: %w", err)
	}

	if err := r.attachSubcategories(ctx, categories); err != nil {
		return nil, 0, err
	}
	return categories, total, nil
}

// GetBySlug returns a single category with its subcategories.
func (r *CategoryRepository) GetBySlug(ctx context.Context, slug string) (*catalog.Category, error) {
	rows, err := r.pool.Query(ctx, getCategoryBySlugSQL, slug)
	if err != nil {
		return nil, fmt.Errorf("getting category %q: %w", slug, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCategory)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrNotFound
		}
		return nil, fmt.Errorf("getting category %q: %w", slug, err)
	}

	categories := []catalog.Category{c}
	if err := r.attachSubcategories(ctx, categories); err != nil {
		return nil, err
	}
	return &categories[0], nil
}

// attachSubcategories fills Subcategories on every category in place.
func (r *CategoryRepository) attachSubcategories(ctx context.Context, categories []catalog.Category) error {
	if len(categories) == 0 {
		return nil
	}

	ids := make([]string, len(categories))
	index := make(map[string]int, len(categories))
	for i, c := range categories {
		ids[i] = c.ID
		index[c.ID] = i
	}

	rows, err := r.pool.Query(ctx, listSubcategoriesSQL, ids)
	if err != nil {
		return fmt.Errorf("listing subcategories: %w", err)
	}
	subs, err := pgx.CollectRows(rows, scanSubcategory)
	if err != nil {
		return fmt.Errorf("listing subcategories: %w", err)
	}

	for _, sub := range subs {
		i := index[sub.CategoryID]
		categories[i].Subcategories = append(categories[i].Subcategories, sub)
	}
	return nil
}

func scanCategory(row pgx.CollectableRow) (catalog.Category, error) {
	var c catalog.Category
	err := row.Scan(&c.ID, &c.Title, &c.Slug, &c.Description, &c.Image)
	return c, err
}

func scanSubcategory(row pgx.CollectableRow) (catalog.Subcategory, error) {
	var s catalog.Subcategory
	err := row.Scan(&s.ID, &s.CategoryID, &s.Title, &s.Slug, &s.Description, &s.Image)
	return s, err
}
