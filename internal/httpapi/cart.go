package httpapi

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/storefront-api/storefront/internal/domain/cart"
)

// cartItemRequest is the body of every cart mutation. Quantity defaults to 1
// when omitted and, matching the tolerant field coercion of the previous
// backend, is accepted both as a JSON number and as a numeric string.
type cartItemRequest struct {
	Product  string
	Quantity int
}

var errBadRequest = errors.New("bad request")

func decodeCartItemRequest(r *http.Request) (cartItemRequest, error) {
	req := cartItemRequest{Quantity: 1}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<16))
	if err != nil {
		return req, errBadRequest
	}

	d := jx.DecodeBytes(body)
	err = d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "product":
			v, err := d.Str()
			if err != nil {
				return err
			}
			req.Product = v
			return nil
		case "quantity":
			return decodeQuantity(d, &req.Quantity)
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return req, errBadRequest
	}
	if req.Product == "" {
		return req, errBadRequest
	}
	return req, nil
}

func decodeQuantity(d *jx.Decoder, out *int) error {
	switch d.Next() {
	case jx.Number:
		v, err := d.Int()
		if err != nil {
			return err
		}
		*out = v
		return nil
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return err
		}
		v, err := strconv.Atoi(s)
		if err != nil {
			return err
		}
		*out = v
		return nil
	default:
		return errors.New("quantity must be an integer")
	}
}

// resolveCart maps the authenticated principal to their cart, creating it on
// first access.
func (h *Handler) resolveCart(w http.ResponseWriter, r *http.Request) (cart.Cart, bool) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		// The authn middleware guards every cart route; reaching this point
		// without a principal is a wiring bug.
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return cart.Cart{}, false
	}

	c, err := h.carts.GetOrCreateCart(r.Context(), principal.UserID)
	if err != nil {
		writeInternalError(w, r, err)
		return cart.Cart{}, false
	}
	return c, true
}

func (h *Handler) viewCart(w http.ResponseWriter, r *http.Request) {
	c, ok := h.resolveCart(w, r)
	if !ok {
		return
	}

	snap, err := h.carts.View(r.Context(), c)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}
	h.writeSnapshot(w, snap)
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	c, ok := h.resolveCart(w, r)
	if !ok {
		return
	}
	req, err := decodeCartItemRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "product is required and quantity must be an integer")
		return
	}

	snap, err := h.carts.AddItem(r.Context(), c, req.Product, req.Quantity)
	if err != nil {
		h.writeCartError(w, r, err)
		return
	}
	h.writeSnapshot(w, snap)
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	c, ok := h.resolveCart(w, r)
	if !ok {
		return
	}
	req, err := decodeCartItemRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "product is required")
		return
	}

	snap, err := h.carts.RemoveItem(r.Context(), c, req.Product)
	if err != nil {
		h.writeCartError(w, r, err)
		return
	}
	h.writeSnapshot(w, snap)
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	c, ok := h.resolveCart(w, r)
	if !ok {
		return
	}
	req, err := decodeCartItemRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "product is required and quantity must be an integer")
		return
	}

	snap, err := h.carts.UpdateItem(r.Context(), c, req.Product, req.Quantity)
	if err != nil {
		h.writeCartError(w, r, err)
		return
	}
	h.writeSnapshot(w, snap)
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	c, ok := h.resolveCart(w, r)
	if !ok {
		return
	}

	snap, err := h.carts.ClearCart(r.Context(), c)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}
	h.writeSnapshot(w, snap)
}

// writeCartError maps cart domain errors to responses. A missing product or
// line is a 404; anything else is internal.
func (h *Handler) writeCartError(w http.ResponseWriter, r *http.Request, err error) {
	var nf *cart.NotFoundError
	if errors.As(err, &nf) {
		writeError(w, http.StatusNotFound, nf.Error())
		return
	}
	writeInternalError(w, r, err)
}

func (h *Handler) writeSnapshot(w http.ResponseWriter, snap cart.Snapshot) {
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("owner_label", func(e *jx.Encoder) { e.Str(snap.OwnerLabel) })
			e.Field("items", func(e *jx.Encoder) {
				e.Arr(func(e *jx.Encoder) {
					for _, item := range snap.Items {
						e.Obj(func(e *jx.Encoder) {
							e.Field("product_title", func(e *jx.Encoder) { e.Str(item.ProductTitle) })
							e.Field("quantity", func(e *jx.Encoder) { e.Int(item.Quantity) })
						})
					}
				})
			})
			e.Field("total_quantity", func(e *jx.Encoder) { e.Int(snap.TotalQuantity) })
			e.Field("total_price", func(e *jx.Encoder) { e.Str(snap.TotalPrice.StringFixed(2)) })
		})
	})
}
