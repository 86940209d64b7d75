package orders

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	TopicOrderPlaced = "order.placed"
	EventOrderPlaced = "OrderPlaced"
	EventVersion     = 1
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order id
	Payload       json.RawMessage `json:"payload"`
}

type ItemPrice struct {
	ProductID int64           `json:"product_id"`
	Qty       int             `json:"qty"`
	Price     decimal.Decimal `json:"price"`
}

type OrderPlacedPayload struct {
	OrderID     int64           `json:"order_id"`
	UserID      int64           `json:"user_id"`
	Items       []ItemPrice     `json:"items"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// ProductIDs returns the products whose stock the order changed.
func (p OrderPlacedPayload) ProductIDs() []int64 {
	ids := make([]int64, 0, len(p.Items))
	for _, it := range p.Items {
		ids = append(ids, it.ProductID)
	}
	return ids
}

// NewOrderPlaced builds the event announcing a committed receipt.
func NewOrderPlaced(rc Receipt, producer, traceID string) (Envelope, error) {
	items := make([]ItemPrice, 0, len(rc.Lines))
	for _, li := range rc.Lines {
		items = append(items, ItemPrice{ProductID: li.ProductID, Qty: li.Quantity, Price: li.PriceAtPurchase})
	}
	payload, err := json.Marshal(OrderPlacedPayload{
		OrderID:     rc.OrderID,
		UserID:      rc.UserID,
		Items:       items,
		TotalAmount: rc.TotalAmount,
	})
	if err != nil {
		return Envelope{}, fmt.Errorf("encode order placed payload: %w", err)
	}
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     EventOrderPlaced,
		EventVersion:  EventVersion,
		OccurredAt:    time.Now().UTC(),
		Producer:      producer,
		TraceID:       traceID,
		CorrelationID: strconv.FormatInt(rc.OrderID, 10),
		Payload:       payload,
	}, nil
}

// PartitionKey keeps all events of one order on one partition.
func PartitionKey(orderID int64) []byte { return []byte(strconv.FormatInt(orderID, 10)) }
