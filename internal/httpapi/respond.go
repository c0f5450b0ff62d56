package httpapi

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// writeJSON encodes a response body with the given encoder function and
// writes it with the status code.
func writeJSON(w http.ResponseWriter, status int, encode func(e *jx.Encoder)) {
	var e jx.Encoder
	encode(&e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// writeError writes the standard {code, message} error body.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("code", func(e *jx.Encoder) { e.Int(status) })
			e.Field("message", func(e *jx.Encoder) { e.Str(message) })
		})
	})
}

// writeInternalError logs the error and responds with an opaque 500.
func writeInternalError(w http.ResponseWriter, r *http.Request, err error) {
	zctx.From(r.Context()).Error("Request failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal server error")
}

// pageParams is the page-number pagination window requested by the client.
type pageParams struct {
	Page int
	Size int
}

// parsePageParams reads page and page_size from the query string, falling
// back to defaultSize. Values below 1 are treated as absent.
func parsePageParams(r *http.Request, defaultSize int) pageParams {
	p := pageParams{Page: 1, Size: defaultSize}
	q := r.URL.Query()
	if v, err := strconv.Atoi(q.Get("page")); err == nil && v > 0 {
		p.Page = v
	}
	if v, err := strconv.Atoi(q.Get("page_size")); err == nil && v > 0 {
		p.Size = v
	}
	return p
}

func (p pageParams) offset() int {
	return (p.Page - 1) * p.Size
}

// pageLink rebuilds the request URL pointing at another page number, or
// returns "" when out of range. Page one has no explicit page parameter.
func pageLink(r *http.Request, p pageParams, page, count int) string {
	if page < 1 || (page-1)*p.Size >= count {
		return ""
	}

	u := *r.URL
	q := u.Query()
	if page == 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(page))
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// encodeListEnvelope writes the paginated list body: count, next and
// previous links, and the results array.
func encodeListEnvelope(e *jx.Encoder, r *http.Request, p pageParams, count int, results func(e *jx.Encoder)) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("count", func(e *jx.Encoder) { e.Int(count) })
		e.Field("next", func(e *jx.Encoder) { encodeLink(e, pageLink(r, p, p.Page+1, count)) })
		e.Field("previous", func(e *jx.Encoder) { encodeLink(e, pageLink(r, p, p.Page-1, count)) })
		e.Field("results", results)
	})
}

func encodeLink(e *jx.Encoder, link string) {
	if link == "" {
		e.Null()
		return
	}
	e.Str(link)
}

// joinURL concatenates a base URL and a stored relative path.
func joinURL(base, path string) string {
	if base == "" || path == "" {
		return path
	}
	b, err := url.JoinPath(base, path)
	if err != nil {
		return path
	}
	return b
}
