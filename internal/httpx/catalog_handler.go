package httpx

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/ariefcatur/go-bookstore-orders/internal/catalog"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type CatalogHandler struct {
	Catalog catalog.Source
	Log     *slog.Logger
}

func (h *CatalogHandler) Register(r chi.Router) {
	r.Get("/products", h.list)
	r.Get("/products/{id}", h.get)
	r.Get("/search", h.search)
}

func (h *CatalogHandler) list(w http.ResponseWriter, r *http.Request) {
	ps, err := h.Catalog.List(r.Context())
	if err != nil {
		writeDomainError(w, h.Log, err, "Failed to list products")
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

func (h *CatalogHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_id", "invalid product id", nil)
		return
	}
	p, err := h.Catalog.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, h.Log, err, "Failed to get product")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *CatalogHandler) search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := catalog.SearchParams{Query: strings.TrimSpace(q.Get("q"))}
	for _, g := range strings.Split(q.Get("genre"), ",") {
		if g = strings.TrimSpace(g); g != "" {
			p.Genres = append(p.Genres, g)
		}
	}

	var ok bool
	if p.MinPrice, ok = priceParam(q.Get("min_price")); !ok {
		writeError(w, http.StatusBadRequest, "invalid_price", "Invalid min_price", nil)
		return
	}
	if p.MaxPrice, ok = priceParam(q.Get("max_price")); !ok {
		writeError(w, http.StatusBadRequest, "invalid_price", "Invalid max_price", nil)
		return
	}
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_limit", "Invalid limit", nil)
			return
		}
		p.Limit = n
	}

	ps, err := h.Catalog.Search(r.Context(), p)
	if err != nil {
		writeDomainError(w, h.Log, err, "Failed to search products")
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

// priceParam returns nil for an empty value and false for a malformed or negative one.
func priceParam(s string) (*decimal.Decimal, bool) {
	if s == "" {
		return nil, true
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return nil, false
	}
	return &d, true
}
