package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestEventHeaders(t *testing.T) {
	m := kafka.Message{Headers: EventHeaders("OrderPlaced", 1)}

	typ, ok := Header(m, HeaderEventType)
	assert.True(t, ok)
	assert.Equal(t, "OrderPlaced", typ)
	ver, _ := Header(m, HeaderEventVersion)
	assert.Equal(t, "1", ver)
	_, ok = Header(m, "x-missing")
	assert.False(t, ok)
}

func TestUnwrapPayload(t *testing.T) {
	type payload struct {
		OrderID int64 `json:"order_id"`
	}

	got, err := UnwrapPayload[payload](json.RawMessage(`{"order_id":11}`))
	require.NoError(t, err)
	assert.Equal(t, int64(11), got.OrderID)

	_, err = UnwrapPayload[payload](json.RawMessage(`{"order_id":"x"}`))
	assert.ErrorContains(t, err, "decode payload")
}

func TestMustMarshal_PanicsOnUnsupported(t *testing.T) {
	assert.Equal(t, []byte(`{"a":1}`), MustMarshal(map[string]int{"a": 1}))
	assert.Panics(t, func() { MustMarshal(make(chan int)) })
}

func TestProducer_BufferFull(t *testing.T) {
	p := NewProducer([]string{"127.0.0.1:1"}, "order.placed", 1, quiet)

	require.NoError(t, p.Publish([]byte("k"), []byte("v1")))
	assert.ErrorIs(t, p.Publish([]byte("k"), []byte("v2")), ErrBufferFull)
}

func TestProducer_RejectsAfterClose(t *testing.T) {
	p := NewProducer([]string{"127.0.0.1:1"}, "order.placed", 4, quiet)
	p.Start(context.Background())

	p.Close()
	p.Close()

	assert.ErrorIs(t, p.Publish([]byte("k"), []byte("v")), ErrProducerClosed)
}

func TestProducer_StopsOnContextDone(t *testing.T) {
	p := NewProducer([]string{"127.0.0.1:1"}, "order.placed", 4, quiet)
	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx)

	cancel()
	<-p.done

	assert.ErrorIs(t, p.Publish([]byte("k"), []byte("v")), ErrProducerClosed)
	p.Close()
}

func TestWorkerFor_PinsPartitions(t *testing.T) {
	assert.Equal(t, 0, workerFor(0, 3))
	assert.Equal(t, 1, workerFor(4, 3))
	assert.Equal(t, workerFor(7, 4), workerFor(7, 4))
	assert.Equal(t, 0, workerFor(5, 1))
}

func TestConsumer_ProcessRetriesHandler(t *testing.T) {
	c := &Consumer{attempts: 3, log: quiet}
	boom := errors.New("redis timeout")

	calls := 0
	err := c.process(context.Background(), func(context.Context, kafka.Message) error {
		calls++
		if calls < 3 {
			return boom
		}
		return nil
	}, kafka.Message{})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)

	calls = 0
	err = c.process(context.Background(), func(context.Context, kafka.Message) error {
		calls++
		return boom
	}, kafka.Message{})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, calls)
}

func TestConsumer_ProcessStopsOnCancel(t *testing.T) {
	c := &Consumer{attempts: 5, backoff: time.Hour, log: quiet}
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := c.process(ctx, func(context.Context, kafka.Message) error {
		calls++
		cancel()
		return errors.New("redis timeout")
	}, kafka.Message{})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
