package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

// Only pending is written here; the rest are set by fulfillment.
const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusShipped   Status = "shipped"
	StatusCancelled Status = "cancelled"
)

type Order struct {
	ID          int64           `json:"id"`
	UserID      int64           `json:"user_id"`
	OrderDate   time.Time       `json:"order_date"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Status      Status          `json:"status"`
}

// LineItem snapshots quantity and price at commit time.
type LineItem struct {
	OrderID         int64           `json:"order_id"`
	ProductID       int64           `json:"product_id"`
	Quantity        int             `json:"quantity"`
	PriceAtPurchase decimal.Decimal `json:"price_at_purchase"`
}

// Receipt is the result of a successful placement.
type Receipt struct {
	OrderID     int64           `json:"order_id"`
	UserID      int64           `json:"user_id"`
	OrderDate   time.Time       `json:"order_date"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Lines       []LineItem      `json:"lines"`
}

// HistoryItem is a line item joined with its product for order history.
type HistoryItem struct {
	ProductID       int64           `json:"product_id"`
	Quantity        int             `json:"quantity"`
	PriceAtPurchase decimal.Decimal `json:"price_at_purchase"`
	Title           string          `json:"title"`
	Author          string          `json:"author"`
	ImageURL        string          `json:"image_url"`
}

type OrderWithItems struct {
	Order
	Items []HistoryItem `json:"items"`
}
