// Package cart owns a principal's shopping cart and its line items: additive
// accumulation on add, absolute set on update, whole-line delete on remove,
// and derived totals on every view.
package cart

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// Cart is the persistent collection of line items owned by one principal.
// There is at most one cart per principal; it is created lazily and never
// deleted (clearing removes the items, not the cart).
type Cart struct {
	ID         string
	OwnerID    string
	OwnerLabel string
}

// Item is a single (product, quantity) line within a cart, joined with the
// product data needed to render and price it.
type Item struct {
	ProductID    string
	ProductTitle string
	UnitPrice    decimal.Decimal
	Quantity     int
}

// Snapshot is the fully materialized read-only view of a cart returned by
// every operation, mutating or not.
type Snapshot struct {
	OwnerLabel    string
	Items         []SnapshotItem
	TotalQuantity int
	TotalPrice    decimal.Decimal
}

// SnapshotItem is one rendered line of a Snapshot.
type SnapshotItem struct {
	ProductTitle string
	Quantity     int
}

// NotFoundError indicates the referenced product does not exist in the
// catalog, or no line exists for it in the cart. Both conditions are
// deliberately indistinguishable to the caller: the identifier-based lookup
// failed either way.
type NotFoundError struct {
	Slug string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("product %q not found", e.Slug)
}

// Repository is the persistence boundary for carts and their items. Every
// mutation must be a single atomic statement against the store: AddQuantity
// in particular is an atomic upsert-and-increment, never a read-then-write,
// so concurrent adds to the same line both land.
//
// Deleting a cart's backing record removes all of its items (the store
// enforces cascade deletion); Clear removes the items only.
type Repository interface {
	// GetOrCreate returns the principal's cart, creating it on first call.
	// Repeated calls for the same owner return the same cart identity.
	GetOrCreate(ctx context.Context, ownerID string) (Cart, error)

	// Items lists the cart's lines joined with product title and unit price,
	// in line creation order.
	Items(ctx context.Context, cartID string) ([]Item, error)

	// AddQuantity atomically increments the line's quantity by qty, creating
	// the line at zero first if it does not exist.
	AddQuantity(ctx context.Context, cartID, productID string, qty int) error

	// SetQuantity sets the line's quantity to exactly qty. It reports whether
	// a line existed to update.
	SetQuantity(ctx context.Context, cartID, productID string, qty int) (bool, error)

	// DeleteItem removes the line entirely regardless of quantity. It reports
	// whether a line existed to delete.
	DeleteItem(ctx context.Context, cartID, productID string) (bool, error)

	// Clear removes every line belonging to the cart.
	Clear(ctx context.Context, cartID string) error
}
