package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/storefront-api/storefront/internal/domain/cart"
)

const (
	createCartSQL = `INSERT INTO carts (user_id) VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING`

	getCartByOwnerSQL = `SELECT c.id, c.user_id, u.username
		FROM carts c JOIN users u ON u.id = c.user_id
		WHERE c.user_id = $1`

	listCartItemsSQL = `SELECT ci.product_id, p.title, p.price, ci.quantity
		FROM cart_items ci JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1
		ORDER BY ci.created_at, p.title`

	// The increment happens inside a single statement so two concurrent adds
	// to the same line both land.
	addQuantitySQL = `INSERT INTO cart_items (cart_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (cart_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity`

	setQuantitySQL = `UPDATE cart_items SET quantity = $3
		WHERE cart_id = $1 AND product_id = $2`

	deleteItemSQL = `DELETE FROM cart_items
		WHERE cart_id = $1 AND product_id = $2`

	clearCartSQL = `DELETE FROM cart_items WHERE cart_id = $1`
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository backed by PostgreSQL. Cascade
// deletion of a cart's items is enforced by the cart_items foreign key.
type CartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository returns a CartRepository that uses the given pool.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

// GetOrCreate returns the owner's cart, inserting it on first access. The
// insert is a no-op on conflict, so concurrent first accesses converge on
// one row.
func (r *CartRepository) GetOrCreate(ctx context.Context, ownerID string) (cart.Cart, error) {
	if _, err := r.pool.Exec(ctx, createCartSQL, ownerID); err != nil {
		return cart.Cart{}, fmt.Errorf("creating cart for %q: %w", ownerID, err)
	}

	var c cart.Cart
	err := r.pool.QueryRow(ctx, getCartByOwnerSQL, ownerID).Scan(&c.ID, &c.OwnerID, &c.OwnerLabel)
	if err != nil {
		return cart.Cart{}, fmt.Errorf("getting cart for %q: %w", ownerID, err)
	}
	return c, nil
}

// Items lists the cart's lines joined with product data, in creation order.
func (r *CartRepository) Items(ctx context.Context, cartID string) ([]cart.Item, error) {
	rows, err := r.pool.Query(ctx, listCartItemsSQL, cartID)
	if err != nil {
		return nil, fmt.Errorf("listing items of cart %q: %w", cartID, err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (cart.Item, error) {
		var item cart.Item
		err := row.Scan(&item.ProductID, &item.ProductTitle, &item.UnitPrice, &item.Quantity)
		return item, err
	})
}

// AddQuantity upserts the line and increments its quantity atomically.
func (r *CartRepository) AddQuantity(ctx context.Context, cartID, productID string, qty int) error {
	if _, err := r.pool.Exec(ctx, addQuantitySQL, cartID, productID, qty); err != nil {
		return fmt.Errorf("adding %d of %q to cart %q: %w", qty, productID, cartID, err)
	}
	return nil
}

// SetQuantity sets the line's quantity and reports whether a line existed.
func (r *CartRepository) SetQuantity(ctx context.Context, cartID, productID string, qty int) (bool, error) {
	tag, err := r.pool.Exec(ctx, setQuantitySQL, cartID, productID, qty)
	if err != nil {
		return false, fmt.Errorf("setting %q in cart %q: %w", productID, cartID, err)
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteItem removes the line and reports whether one existed.
func (r *CartRepository) DeleteItem(ctx context.Context, cartID, productID string) (bool, error) {
	tag, err := r.pool.Exec(ctx, deleteItemSQL, cartID, productID)
	if err != nil {
		return false, fmt.Errorf("deleting %q from cart %q: %w", productID, cartID, err)
	}
	return tag.RowsAffected() > 0, nil
}

// Clear removes every line of the cart.
func (r *CartRepository) Clear(ctx context.Context, cartID string) error {
	if _, err := r.pool.Exec(ctx, clearCartSQL, cartID); err != nil {
		return fmt.Errorf("clearing cart %q: %w", cartID, err)
	}
	return nil
}
