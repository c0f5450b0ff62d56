package cart

import (
	"context"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront-api/storefront/internal/domain/catalog"
)

// --- Mock implementations ---

type mockDirectory struct {
	bySlug map[string]*catalog.Product
	err    error
}

func (m *mockDirectory) GetBySlug(_ context.Context, slug string) (*catalog.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.bySlug[slug]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return p, nil
}

// memRepo is an in-memory Repository. Mutations take the mutex for their
// whole read-modify-write, mirroring the single-statement atomicity the real
// store provides.
type memRepo struct {
	mu       sync.Mutex
	carts    map[string]Cart // ownerID -> cart
	lines    map[string]map[string]int
	order    map[string][]string
	products map[string]*catalog.Product // productID -> product
	nextID   int
}

func newMemRepo(products ...*catalog.Product) *memRepo {
	byID := make(map[string]*catalog.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return &memRepo{
		carts:    make(map[string]Cart),
		lines:    make(map[string]map[string]int),
		order:    make(map[string][]string),
		products: byID,
	}
}

func (m *memRepo) GetOrCreate(_ context.Context, ownerID string) (Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.carts[ownerID]; ok {
		return c, nil
	}
	m.nextID++
	c := Cart{ID: string(rune('a' + m.nextID)), OwnerID: ownerID, OwnerLabel: ownerID}
	m.carts[ownerID] = c
	m.lines[c.ID] = make(map[string]int)
	return c, nil
}

func (m *memRepo) Items(_ context.Context, cartID string) ([]Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := make([]Item, 0, len(m.lines[cartID]))
	for _, productID := range m.order[cartID] {
		qty, ok := m.lines[cartID][productID]
		if !ok {
			continue
		}
		p := m.products[productID]
		items = append(items, Item{
			ProductID:    productID,
			ProductTitle: p.Title,
			UnitPrice:    p.Price,
			Quantity:     qty,
		})
	}
	return items, nil
}

func (m *memRepo) AddQuantity(_ context.Context, cartID, productID string, qty int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.lines[cartID][productID]; !ok {
		m.lines[cartID][productID] = 0
		m.order[cartID] = append(m.order[cartID], productID)
	}
	m.lines[cartID][productID] += qty
	return nil
}

func (m *memRepo) SetQuantity(_ context.Context, cartID, productID string, qty int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.lines[cartID][productID]; !ok {
		return false, nil
	}
	m.lines[cartID][productID] = qty
	return true, nil
}

func (m *memRepo) DeleteItem(_ context.Context, cartID, productID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.lines[cartID][productID]; !ok {
		return false, nil
	}
	delete(m.lines[cartID], productID)
	return true, nil
}

func (m *memRepo) Clear(_ context.Context, cartID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lines[cartID] = make(map[string]int)
	m.order[cartID] = nil
	return nil
}

// --- Helpers ---

func newCatalogProduct(id, title string, price string) *catalog.Product {
	return &catalog.Product{
		ID:    id,
		Title: title,
		Slug:  catalog.Slugify(title),
		Price: decimal.RequireFromString(price),
	}
}

func newTestService(products ...*catalog.Product) (*Service, Cart) {
	bySlug := make(map[string]*catalog.Product, len(products))
	for _, p := range products {
		bySlug[p.Slug] = p
	}
	svc := NewService(newMemRepo(products...), &mockDirectory{bySlug: bySlug})
	c, _ := svc.GetOrCreateCart(context.Background(), "alice")
	return svc, c
}

// --- Tests ---

func TestGetOrCreateCart_Idempotent(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, &mockDirectory{})

	first, err := svc.GetOrCreateCart(context.Background(), "alice")
	require.NoError(t, err)
	second, err := svc.GetOrCreateCart(context.Background(), "alice")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)

	other, err := svc.GetOrCreateCart(context.Background(), "bob")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)
}

func TestAddItem_Accumulates(t *testing.T) {
	widget := newCatalogProduct("p1", "Widget", "10.00")
	svc, c := newTestService(widget)
	ctx := context.Background()

	snap, err := svc.AddItem(ctx, c, "widget", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, snap.TotalQuantity)

	// A second add of the same product accumulates, never duplicates the line.
	snap, err = svc.AddItem(ctx, c, "widget", 3)
	require.NoError(t, err)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, 5, snap.Items[0].Quantity)
	assert.Equal(t, 5, snap.TotalQuantity)
}

func TestAddItem_NegativeQuantityCoercedToZero(t *testing.T) {
	widget := newCatalogProduct("p1", "Widget", "10.00")
	svc, c := newTestService(widget)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, c, "widget", 4)
	require.NoError(t, err)

	snap, err := svc.AddItem(ctx, c, "widget", -3)
	require.NoError(t, err)
	assert.Equal(t, 4, snap.Items[0].Quantity, "negative add must not shrink the line")
}

func TestAddItem_ProductNotFound(t *testing.T) {
	svc, c := newTestService()

	_, err := svc.AddItem(context.Background(), c, "nonexistent", 1)

	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "nonexistent", nf.Slug)
}

func TestRemoveItem(t *testing.T) {
	widget := newCatalogProduct("p1", "Widget", "10.00")
	gadget := newCatalogProduct("p2", "Gadget", "7.50")
	svc, c := newTestService(widget, gadget)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, c, "widget", 2)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, c, "gadget", 1)
	require.NoError(t, err)

	// Remove deletes the whole line regardless of quantity, and the totals
	// are recomputed without its contribution.
	snap, err := svc.RemoveItem(ctx, c, "widget")
	require.NoError(t, err)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, "Gadget", snap.Items[0].ProductTitle)
	assert.Equal(t, 1, snap.TotalQuantity)
	assert.True(t, decimal.RequireFromString("7.50").Equal(snap.TotalPrice))
}

func TestRemoveItem_NotInCart(t *testing.T) {
	widget := newCatalogProduct("p1", "Widget", "10.00")
	svc, c := newTestService(widget)

	// Product exists in the catalog but has no line in the cart: same
	// not-found class as an unknown product.
	_, err := svc.RemoveItem(context.Background(), c, "widget")

	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "widget", nf.Slug)
}

func TestUpdateItem_AbsoluteSet(t *testing.T) {
	widget := newCatalogProduct("p1", "Widget", "10.00")
	svc, c := newTestService(widget)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, c, "widget", 5)
	require.NoError(t, err)

	snap, err := svc.UpdateItem(ctx, c, "widget", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Items[0].Quantity, "update is a set, not an increment")

	// Setting again to the same value is idempotent.
	snap, err = svc.UpdateItem(ctx, c, "widget", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Items[0].Quantity)
}

func TestUpdateItem_AbsentLine(t *testing.T) {
	widget := newCatalogProduct("p1", "Widget", "10.00")
	svc, c := newTestService(widget)

	_, err := svc.UpdateItem(context.Background(), c, "widget", 3)

	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestClearCart(t *testing.T) {
	widget := newCatalogProduct("p1", "Widget", "10.00")
	gadget := newCatalogProduct("p2", "Gadget", "7.50")
	svc, c := newTestService(widget, gadget)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, c, "widget", 2)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, c, "gadget", 3)
	require.NoError(t, err)

	snap, err := svc.ClearCart(ctx, c)
	require.NoError(t, err)
	assert.Empty(t, snap.Items)
	assert.Equal(t, 0, snap.TotalQuantity)
	assert.True(t, snap.TotalPrice.IsZero())

	// Clearing an already-empty cart still succeeds.
	snap, err = svc.ClearCart(ctx, c)
	require.NoError(t, err)
	assert.Empty(t, snap.Items)
}

func TestView_TotalPriceRounded(t *testing.T) {
	// 3 × 19.99 + 2 × 0.333 = 60.636 → 60.64
	pricey := newCatalogProduct("p1", "Pricey", "19.99")
	fractional := newCatalogProduct("p2", "Fractional", "0.333")
	svc, c := newTestService(pricey, fractional)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, c, "pricey", 3)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, c, "fractional", 2)
	require.NoError(t, err)

	snap, err := svc.View(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, 5, snap.TotalQuantity)
	assert.Equal(t, "60.64", snap.TotalPrice.StringFixed(2))
}

func TestCartLifecycleScenario(t *testing.T) {
	widget := newCatalogProduct("p1", "Widget", "10.00")
	svc, c := newTestService(widget)
	ctx := context.Background()

	snap, err := svc.AddItem(ctx, c, "widget", 2)
	require.NoError(t, err)
	want := Snapshot{
		OwnerLabel:    "alice",
		Items:         []SnapshotItem{{ProductTitle: "Widget", Quantity: 2}},
		TotalQuantity: 2,
		TotalPrice:    decimal.RequireFromString("20.00"),
	}
	assert.Empty(t, cmp.Diff(want, snap, cmp.Comparer(decimal.Decimal.Equal)))

	snap, err = svc.AddItem(ctx, c, "widget", 3)
	require.NoError(t, err)
	assert.Equal(t, 5, snap.Items[0].Quantity)
	assert.Equal(t, 5, snap.TotalQuantity)

	snap, err = svc.UpdateItem(ctx, c, "widget", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Items[0].Quantity)

	snap, err = svc.RemoveItem(ctx, c, "widget")
	require.NoError(t, err)
	assert.Empty(t, snap.Items)
	assert.Equal(t, 0, snap.TotalQuantity)
	assert.True(t, snap.TotalPrice.IsZero())
}

func TestAddItem_ConcurrentAddsBothLand(t *testing.T) {
	widget := newCatalogProduct("p1", "Widget", "10.00")
	svc, c := newTestService(widget)
	ctx := context.Background()

	const workers = 16
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = svc.AddItem(ctx, c, "widget", 1)
		}()
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	snap, err := svc.View(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, workers, snap.Items[0].Quantity, "no add may be lost")
}
