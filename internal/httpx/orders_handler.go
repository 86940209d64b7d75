package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	kafkax "github.com/ariefcatur/go-bookstore-orders/internal/kafka"
	"github.com/ariefcatur/go-bookstore-orders/internal/logx"
	"github.com/ariefcatur/go-bookstore-orders/internal/orders"
	"github.com/ariefcatur/go-bookstore-orders/internal/redisx"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
)

// HeaderIdempotencyKey makes a retried POST /orders replay the first receipt.
const HeaderIdempotencyKey = "Idempotency-Key"

type OrderPlacer interface {
	PlaceOrder(ctx context.Context, userID int64) (orders.Receipt, error)
}

type OrderHistory interface {
	ListByUser(ctx context.Context, userID int64) ([]orders.OrderWithItems, error)
	Get(ctx context.Context, userID, orderID int64) (orders.OrderWithItems, error)
}

type EventPublisher interface {
	Publish(key, value []byte, headers ...kafkago.Header) error
}

type OrdersHandler struct {
	Placer  OrderPlacer
	History OrderHistory
	Events  EventPublisher // optional
	Redis   redis.Cmdable
	Service string
	Timeout time.Duration
	Log     *slog.Logger
}

type placeOrderResp struct {
	OrderID     int64       `json:"order_id"`
	TotalAmount json.Number `json:"total_amount"`
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Post("/orders", h.placeOrder)
	r.Get("/orders", h.listOrders)
	r.Get("/orders/{id}", h.getOrder)
}

func (h *OrdersHandler) placeOrder(w http.ResponseWriter, r *http.Request) {
	uid := userID(r.Context())
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout())
	defer cancel()

	var idemKey string
	if k := r.Header.Get(HeaderIdempotencyKey); k != "" {
		idemKey = fmt.Sprintf(redisx.KeyIdemOrderPlace, uid, k)
		if h.replay(ctx, w, idemKey) {
			return
		}
		pending := fmt.Sprintf(redisx.KeyIdemOrderPending, uid, k)
		claimed, err := redisx.Claim(ctx, h.Redis, pending, redisx.TTLIdemPending)
		switch {
		case err != nil:
			h.Log.Warn("idempotency claim failed", logx.Err(err))
		case !claimed:
			writeError(w, http.StatusConflict, "idempotency_conflict", "A request with this Idempotency-Key is in progress", nil)
			return
		default:
			defer func() {
				if err := h.Redis.Del(context.WithoutCancel(ctx), pending).Err(); err != nil {
					h.Log.Warn("release idempotency claim failed", logx.Err(err))
				}
			}()
			// the previous holder may have stored its receipt between lookup and claim
			if h.replay(ctx, w, idemKey) {
				return
			}
		}
	}

	rc, err := h.Placer.PlaceOrder(ctx, uid)
	if err != nil {
		writeDomainError(w, h.Log, err, "Failed to place order")
		return
	}

	resp := placeOrderResp{OrderID: rc.OrderID, TotalAmount: money(rc.TotalAmount)}
	if idemKey != "" {
		if err := h.Redis.Set(ctx, idemKey, kafkax.MustMarshal(resp), redisx.TTLIdempotency).Err(); err != nil {
			h.Log.Warn("store idempotency key failed", slog.Int64(logx.KeyOrderID, rc.OrderID), logx.Err(err))
		}
	}
	h.publishPlaced(r.Context(), rc)

	h.Log.Info("order placed",
		slog.Int64(logx.KeyOrderID, rc.OrderID),
		slog.Int64(logx.KeyUserID, uid),
		slog.String("total_amount", rc.TotalAmount.StringFixed(2)))
	writeJSON(w, http.StatusCreated, resp)
}

func (h *OrdersHandler) replay(ctx context.Context, w http.ResponseWriter, key string) bool {
	b, err := h.Redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			h.Log.Warn("idempotency lookup failed", logx.Err(err))
		}
		return false
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
	return true
}

func (h *OrdersHandler) publishPlaced(ctx context.Context, rc orders.Receipt) {
	if h.Events == nil {
		return
	}
	env, err := orders.NewOrderPlaced(rc, h.Service, middleware.GetReqID(ctx))
	if err == nil {
		err = h.Events.Publish(orders.PartitionKey(rc.OrderID), kafkax.MustMarshal(env),
			kafkax.EventHeaders(orders.EventOrderPlaced, orders.EventVersion)...)
	}
	if err != nil {
		h.Log.Warn("publish order placed failed", slog.Int64(logx.KeyOrderID, rc.OrderID), logx.Err(err))
	}
}

func (h *OrdersHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout())
	defer cancel()

	list, err := h.History.ListByUser(ctx, userID(ctx))
	if err != nil {
		writeDomainError(w, h.Log, err, "Failed to load orders")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": list})
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_id", "invalid order id", nil)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout())
	defer cancel()

	o, err := h.History.Get(ctx, userID(ctx), id)
	if err != nil {
		writeDomainError(w, h.Log, err, "Failed to load order")
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) timeout() time.Duration {
	if h.Timeout <= 0 {
		return 5 * time.Second
	}
	return h.Timeout
}
