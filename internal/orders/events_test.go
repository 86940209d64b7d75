package orders

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOrderPlaced(t *testing.T) {
	rc := Receipt{
		OrderID:     11,
		UserID:      7,
		TotalAmount: dec("40.00"),
		Lines: []LineItem{
			{OrderID: 11, ProductID: 1, Quantity: 3, PriceAtPurchase: dec("10.00")},
			{OrderID: 11, ProductID: 2, Quantity: 2, PriceAtPurchase: dec("5.00")},
		},
	}

	env, err := NewOrderPlaced(rc, "bookstore-api", "req-1")
	require.NoError(t, err)

	_, err = uuid.Parse(env.EventID)
	assert.NoError(t, err)
	assert.Equal(t, EventOrderPlaced, env.EventType)
	assert.Equal(t, EventVersion, env.EventVersion)
	assert.Equal(t, "11", env.CorrelationID)
	assert.Equal(t, "req-1", env.TraceID)
	assert.Equal(t, []byte("11"), PartitionKey(rc.OrderID))

	var p OrderPlacedPayload
	require.NoError(t, json.Unmarshal(env.Payload, &p))
	assert.Equal(t, int64(11), p.OrderID)
	assert.Equal(t, []int64{1, 2}, p.ProductIDs())
	assert.True(t, p.TotalAmount.Equal(dec("40")))
	assert.True(t, p.Items[1].Price.Equal(dec("5")))
}
