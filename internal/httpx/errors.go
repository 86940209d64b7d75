package httpx

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ariefcatur/go-bookstore-orders/internal/cart"
	"github.com/ariefcatur/go-bookstore-orders/internal/catalog"
	"github.com/ariefcatur/go-bookstore-orders/internal/logx"
	"github.com/ariefcatur/go-bookstore-orders/internal/orders"
)

type stockDetails struct {
	ProductID int64 `json:"product_id"`
	Requested int   `json:"requested"`
	Available int   `json:"available"`
}

// writeDomainError maps the domain errors of every handler to a response.
// Anything unrecognised is logged and reported as a 500 with fallback as message.
func writeDomainError(w http.ResponseWriter, log *slog.Logger, err error, fallback string) {
	var (
		ise *orders.InsufficientStockError
		nes *cart.NotEnoughStockError
		se  *orders.StorageError
	)
	switch {
	case errors.Is(err, orders.ErrEmptyCart):
		writeError(w, http.StatusBadRequest, "empty_cart", "Your cart is empty. Nothing to order.", nil)
	case errors.As(err, &ise):
		writeError(w, http.StatusBadRequest, "insufficient_stock",
			fmt.Sprintf("Not enough stock for product ID %d. Available: %d", ise.ProductID, ise.Available),
			stockDetails{ProductID: ise.ProductID, Requested: ise.Requested, Available: ise.Available})
	case errors.As(err, &nes):
		writeError(w, http.StatusBadRequest, "insufficient_stock", nes.Error(),
			stockDetails{ProductID: nes.ProductID, Requested: nes.Requested, Available: nes.Available})
	case errors.Is(err, catalog.ErrProductNotFound):
		writeError(w, http.StatusNotFound, "not_found", "Product not found", nil)
	case errors.Is(err, orders.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, "not_found", "Order not found", nil)
	case errors.Is(err, cart.ErrNotInCart):
		writeError(w, http.StatusNotFound, "not_found", "Item not found in cart", nil)
	case errors.Is(err, cart.ErrInvalidQuantity):
		writeError(w, http.StatusBadRequest, "invalid_quantity", "Invalid quantity", nil)
	case errors.Is(err, cart.ErrUnknownUser):
		writeError(w, http.StatusUnauthorized, "unauthorized", "Unknown user", nil)
	case errors.As(err, &se):
		log.Error("storage failure", slog.String("op", se.Op), logx.Err(err))
		writeError(w, http.StatusInternalServerError, "storage_error", fallback, nil)
	default:
		log.Error("request failed", logx.Err(err))
		writeError(w, http.StatusInternalServerError, "internal_error", fallback, nil)
	}
}
