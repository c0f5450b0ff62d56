package cart

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/storefront-api/storefront/internal/domain/catalog"
)

// Service implements the cart mutation protocol on top of the repository and
// the product directory. Every operation returns the refreshed Snapshot.
type Service struct {
	carts    Repository
	products catalog.Directory
}

// NewService creates a cart Service with the required dependencies.
func NewService(carts Repository, products catalog.Directory) *Service {
	return &Service{
		carts:    carts,
		products: products,
	}
}

// GetOrCreateCart returns the principal's cart, creating it on first access.
func (s *Service) GetOrCreateCart(ctx context.Context, ownerID string) (Cart, error) {
	c, err := s.carts.GetOrCreate(ctx, ownerID)
	if err != nil {
		return Cart{}, errors.Wrap(err, "get or create cart")
	}
	return c, nil
}

// View returns the cart's current snapshot without side effects.
func (s *Service) View(ctx context.Context, c Cart) (Snapshot, error) {
	return s.snapshot(ctx, c)
}

// AddItem resolves the product by slug and accumulates qty onto its line,
// creating the line if this is the product's first add. The accumulation is
// additive: adding 2 twice yields a line quantity of 4. Negative quantities
// are coerced to zero, so a bad add never shrinks a line.
func (s *Service) AddItem(ctx context.Context, c Cart, slug string, qty int) (Snapshot, error) {
	p, err := s.resolve(ctx, slug)
	if err != nil {
		return Snapshot{}, err
	}

	if qty < 0 {
		qty = 0
	}
	if err := s.carts.AddQuantity(ctx, c.ID, p.ID, qty); err != nil {
		return Snapshot{}, errors.Wrapf(err, "add %q to cart", slug)
	}
	return s.snapshot(ctx, c)
}

// RemoveItem deletes the product's line entirely, whatever its quantity.
// It fails with NotFoundError when the product does not exist or the cart
// has no line for it.
func (s *Service) RemoveItem(ctx context.Context, c Cart, slug string) (Snapshot, error) {
	p, err := s.resolve(ctx, slug)
	if err != nil {
		return Snapshot{}, err
	}

	deleted, err := s.carts.DeleteItem(ctx, c.ID, p.ID)
	if err != nil {
		return Snapshot{}, errors.Wrapf(err, "remove %q from cart", slug)
	}
	if !deleted {
		return Snapshot{}, &NotFoundError{Slug: slug}
	}
	return s.snapshot(ctx, c)
}

// UpdateItem sets the product's line quantity to exactly qty (an absolute
// set, not an increment). It fails with NotFoundError under the same
// conditions as RemoveItem. The quantity value itself is stored as given;
// range validation is left to the boundary layer.
func (s *Service) UpdateItem(ctx context.Context, c Cart, slug string, qty int) (Snapshot, error) {
	p, err := s.resolve(ctx, slug)
	if err != nil {
		return Snapshot{}, err
	}

	updated, err := s.carts.SetQuantity(ctx, c.ID, p.ID, qty)
	if err != nil {
		return Snapshot{}, errors.Wrapf(err, "update %q in cart", slug)
	}
	if !updated {
		return Snapshot{}, &NotFoundError{Slug: slug}
	}
	return s.snapshot(ctx, c)
}

// ClearCart removes every line from the cart. An already-empty cart is a
// valid terminal state, so clearing always succeeds.
func (s *Service) ClearCart(ctx context.Context, c Cart) (Snapshot, error) {
	if err := s.carts.Clear(ctx, c.ID); err != nil {
		return Snapshot{}, errors.Wrap(err, "clear cart")
	}
	return s.snapshot(ctx, c)
}

// resolve looks the product up in the directory, translating a catalog miss
// into the cart's own not-found error.
func (s *Service) resolve(ctx context.Context, slug string) (*catalog.Product, error) {
	p, err := s.products.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, &NotFoundError{Slug: slug}
		}
		return nil, errors.Wrapf(err, "resolve product %q", slug)
	}
	return p, nil
}

// snapshot materializes the cart view with derived totals. The total price
// is Σ(quantity × unit price) rounded to 2 decimal places.
func (s *Service) snapshot(ctx context.Context, c Cart) (Snapshot, error) {
	items, err := s.carts.Items(ctx, c.ID)
	if err != nil {
		return Snapshot{}, errors.Wrap(err, "list cart items")
	}

	snap := Snapshot{
		OwnerLabel: c.OwnerLabel,
		Items:      make([]SnapshotItem, len(items)),
		TotalPrice: decimal.Zero,
	}
	for i, item := range items {
		snap.Items[i] = SnapshotItem{
			ProductTitle: item.ProductTitle,
			Quantity:     item.Quantity,
		}
		snap.TotalQuantity += item.Quantity
		snap.TotalPrice = snap.TotalPrice.Add(
			item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))),
		)
	}
	snap.TotalPrice = snap.TotalPrice.Round(2)
	return snap, nil
}
