package catalog

import (
	"errors"

	"github.com/shopspring/decimal"
)

var ErrProductNotFound = errors.New("product not found")

type Product struct {
	ID            int64           `json:"id"`
	Title         string          `json:"title"`
	Author        string          `json:"author"`
	Genre         string          `json:"genre"`
	Description   string          `json:"description"`
	ImageURL      string          `json:"image_url"`
	YearPublished int             `json:"year_published,omitempty"`
	ISBN          string          `json:"isbn,omitempty"`
	Price         decimal.Decimal `json:"price"`
	Stock         int             `json:"stock"`
}

// StockPrice is the slice of a product the order path reads and locks.
type StockPrice struct {
	ProductID int64
	Price     decimal.Decimal
	Stock     int
}
