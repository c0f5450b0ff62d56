// Package catalog holds the read-only product directory: categories,
// subcategories, and products. The cart never mutates anything here.
package catalog

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested catalog entity does not exist.
var ErrNotFound = errors.New("not found")

// Category is a top-level product grouping.
type Category struct {
	ID            string
	Title         string
	Slug          string
	Description   string
	Image         string
	Subcategories []Subcategory
}

// Subcategory is a second-level grouping that belongs to exactly one Category.
type Subcategory struct {
	ID          string
	CategoryID  string
	Title       string
	Slug        string
	Description string
	Image       string
}

// Product is a catalog item available for purchase. Slug is unique across
// the whole catalog and is the identifier clients use.
type Product struct {
	ID          string
	Title       string
	Slug        string
	Description string
	Category    string
	Subcategory string
	Price       decimal.Decimal
	Image       Image
}

// Image holds the stored image variants for a product. Paths are relative;
// the HTTP layer prefixes them with the configured base URL.
type Image struct {
	Original  string
	Thumbnail string
	Preview   string
}

// Page bounds a list query. Limit of zero means the repository default.
type Page struct {
	Limit  int
	Offset int
}

// Directory resolves products by their human-readable slug. It is the only
// catalog dependency the cart service has.
type Directory interface {
	GetBySlug(ctx context.Context, slug string) (*Product, error)
}

// ProductRepository defines read operations for products.
type ProductRepository interface {
	Directory
	List(ctx context.Context, page Page) ([]Product, int, error)
	ListSlugs(ctx context.Context) ([]string, error)
}

// CategoryRepository defines read operations for the category tree.
type CategoryRepository interface {
	List(ctx context.Context, page Page) ([]Category, int, error)
	GetBySlug(ctx context.Context, slug string) (*Category, error)
}
