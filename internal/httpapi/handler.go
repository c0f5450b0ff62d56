// Package httpapi exposes the catalog and cart operations over HTTP. The
// surface is deliberately thin: routing and serialization only, with all
// behaviour delegated to the domain services.
package httpapi

import (
	"net/http"

	"github.com/storefront-api/storefront/internal/domain/cart"
	"github.com/storefront-api/storefront/internal/domain/catalog"
	"github.com/storefront-api/storefront/pkg/httpmiddleware"
)

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// ImageBaseURL is prepended to relative image paths in responses.
	// When empty, image paths are returned as stored in the database.
	ImageBaseURL string

	// CategoryPageSize and ProductPageSize are the default list page sizes,
	// overridable per request with the page_size query parameter.
	CategoryPageSize int
	ProductPageSize  int
}

// Handler serves the versioned JSON API.
type Handler struct {
	cfg        Config
	categories catalog.CategoryRepository
	products   catalog.ProductRepository
	carts      *cart.Service
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	cfg Config,
	categories catalog.CategoryRepository,
	products catalog.ProductRepository,
	carts *cart.Service,
) *Handler {
	if cfg.CategoryPageSize <= 0 {
		cfg.CategoryPageSize = 5
	}
	if cfg.ProductPageSize <= 0 {
		cfg.ProductPageSize = 10
	}
	return &Handler{
		cfg:        cfg,
		categories: categories,
		products:   products,
		carts:      carts,
	}
}

// Routes builds the API mux. Catalog reads are public; every cart route is
// wrapped with the authn middleware, which resolves the request's principal.
func (h *Handler) Routes(authn httpmiddleware.Middleware) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/product_categories", h.listCategories)
	mux.HandleFunc("GET /api/v1/product_categories/{slug}", h.getCategory)
	mux.HandleFunc("GET /api/v1/products", h.listProducts)
	mux.HandleFunc("GET /api/v1/products/{slug}", h.getProduct)

	mux.Handle("GET /api/v1/cart", authn(http.HandlerFunc(h.viewCart)))
	mux.Handle("POST /api/v1/cart/add_item", authn(http.HandlerFunc(h.addItem)))
	mux.Handle("POST /api/v1/cart/remove_item", authn(http.HandlerFunc(h.removeItem)))
	mux.Handle("POST /api/v1/cart/update_item", authn(http.HandlerFunc(h.updateItem)))
	mux.Handle("POST /api/v1/cart/clear", authn(http.HandlerFunc(h.clearCart)))

	return mux
}
