package httpx

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ariefcatur/go-bookstore-orders/internal/cart"
	"github.com/go-chi/chi/v5"
)

type CartService interface {
	Add(ctx context.Context, userID, productID int64, qty int) (created bool, err error)
	SetQuantity(ctx context.Context, userID, productID int64, qty int) error
	View(ctx context.Context, userID int64) ([]cart.Item, error)
	Remove(ctx context.Context, userID, productID int64) error
	Clear(ctx context.Context, userID int64) error
}

type CartHandler struct {
	Cart CartService
	Log  *slog.Logger
}

type addToCartReq struct {
	ProductID int64 `json:"product_id"`
	Quantity  *int  `json:"quantity"`
}

type setQuantityReq struct {
	Quantity *int `json:"quantity"`
}

func (h *CartHandler) Register(r chi.Router) {
	r.Get("/cart", h.view)
	r.Post("/cart", h.add)
	r.Delete("/cart", h.clear)
	r.Put("/cart/{product_id}", h.setQuantity)
	r.Delete("/cart/{product_id}", h.remove)
}

func (h *CartHandler) view(w http.ResponseWriter, r *http.Request) {
	items, err := h.Cart.View(r.Context(), userID(r.Context()))
	if err != nil {
		writeDomainError(w, h.Log, err, "Failed to load cart")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *CartHandler) add(w http.ResponseWriter, r *http.Request) {
	var req addToCartReq
	if !decodeJSON(w, r, &req) {
		return
	}
	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}
	if req.ProductID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_input", "product_id is required", nil)
		return
	}
	if qty <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_quantity", "Quantity must be positive", nil)
		return
	}

	created, err := h.Cart.Add(r.Context(), userID(r.Context()), req.ProductID, qty)
	if err != nil {
		writeDomainError(w, h.Log, err, "Failed to add to cart")
		return
	}
	if created {
		writeJSON(w, http.StatusCreated, message{"Item added to cart"})
		return
	}
	writeJSON(w, http.StatusOK, message{"Cart updated"})
}

func (h *CartHandler) setQuantity(w http.ResponseWriter, r *http.Request) {
	pid, ok := pathID(r, "product_id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_id", "invalid product id", nil)
		return
	}
	var req setQuantityReq
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Quantity == nil || *req.Quantity < 0 {
		writeError(w, http.StatusBadRequest, "invalid_quantity", "Quantity must be zero or positive", nil)
		return
	}

	if err := h.Cart.SetQuantity(r.Context(), userID(r.Context()), pid, *req.Quantity); err != nil {
		writeDomainError(w, h.Log, err, "Failed to update cart")
		return
	}
	writeJSON(w, http.StatusOK, message{"Cart updated"})
}

func (h *CartHandler) remove(w http.ResponseWriter, r *http.Request) {
	pid, ok := pathID(r, "product_id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_id", "invalid product id", nil)
		return
	}
	if err := h.Cart.Remove(r.Context(), userID(r.Context()), pid); err != nil {
		writeDomainError(w, h.Log, err, "Failed to remove from cart")
		return
	}
	writeJSON(w, http.StatusOK, message{"Item removed from cart"})
}

func (h *CartHandler) clear(w http.ResponseWriter, r *http.Request) {
	if err := h.Cart.Clear(r.Context(), userID(r.Context())); err != nil {
		writeDomainError(w, h.Log, err, "Failed to clear cart")
		return
	}
	writeJSON(w, http.StatusOK, message{"Cart cleared"})
}
