package httpapi

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/storefront-api/storefront/internal/domain/catalog"
)

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	p := parsePageParams(r, h.cfg.CategoryPageSize)

	categories, total, err := h.categories.List(r.Context(), catalog.Page{
		Limit:  p.Size,
		Offset: p.offset(),
	})
	if err != nil {
		writeInternalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeListEnvelope(e, r, p, total, func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, c := range categories {
					h.encodeCategory(e, c)
				}
			})
		})
	})
}

func (h *Handler) getCategory(w http.ResponseWriter, r *http.Request) {
	c, err := h.categories.GetBySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, "category not found")
			return
		}
		writeInternalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		h.encodeCategory(e, *c)
	})
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	p := parsePageParams(r, h.cfg.ProductPageSize)

	products, total, err := h.products.List(r.Context(), catalog.Page{
		Limit:  p.Size,
		Offset: p.offset(),
	})
	if err != nil {
		writeInternalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeListEnvelope(e, r, p, total, func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, product := range products {
					h.encodeProduct(e, product)
				}
			})
		})
	})
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.products.GetBySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		writeInternalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		h.encodeProduct(e, *product)
	})
}

func (h *Handler) encodeCategory(e *jx.Encoder, c catalog.Category) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("title", func(e *jx.Encoder) { e.Str(c.Title) })
		e.Field("slug", func(e *jx.Encoder) { e.Str(c.Slug) })
		e.Field("subcategories", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, sub := range c.Subcategories {
					e.Obj(func(e *jx.Encoder) {
						e.Field("title", func(e *jx.Encoder) { e.Str(sub.Title) })
						e.Field("slug", func(e *jx.Encoder) { e.Str(sub.Slug) })
					})
				}
			})
		})
	})
}

func (h *Handler) encodeProduct(e *jx.Encoder, p catalog.Product) {
	base := h.cfg.ImageBaseURL
	e.Obj(func(e *jx.Encoder) {
		e.Field("title", func(e *jx.Encoder) { e.Str(p.Title) })
		e.Field("slug", func(e *jx.Encoder) { e.Str(p.Slug) })
		e.Field("product_category", func(e *jx.Encoder) { e.Str(p.Category) })
		e.Field("product_subcategory", func(e *jx.Encoder) { e.Str(p.Subcategory) })
		e.Field("price", func(e *jx.Encoder) { e.Str(p.Price.StringFixed(2)) })
		e.Field("images", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				e.Str(joinURL(base, p.Image.Original))
				e.Str(joinURL(base, p.Image.Thumbnail))
				e.Str(joinURL(base, p.Image.Preview))
			})
		})
	})
}
