package cart

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrNotInCart       = errors.New("item not found in cart")
	ErrInvalidQuantity = errors.New("invalid quantity")
	ErrUnknownUser     = errors.New("unknown user")
)

// Entry is one (user, product) line of a cart.
type Entry struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// Item is an Entry joined with its product for display.
type Item struct {
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Title     string          `json:"title"`
	Price     decimal.Decimal `json:"price"`
	ImageURL  string          `json:"image_url"`
	Stock     int             `json:"stock"`
}

type NotEnoughStockError struct {
	ProductID int64
	Requested int
	Available int
}

func (e *NotEnoughStockError) Error() string {
	return fmt.Sprintf("Not enough stock. Available: %d", e.Available)
}
