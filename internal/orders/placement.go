package orders

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/ariefcatur/go-bookstore-orders/internal/logx"
	"github.com/ariefcatur/go-bookstore-orders/internal/postgres"
	"github.com/shopspring/decimal"
)

const (
	defaultAttempts = 3
	defaultBackoff  = 25 * time.Millisecond
)

// Engine turns a user's cart into an order. Every placement runs in one transaction:
// the cart and the referenced products are locked, stock is checked against the
// locked rows, and order, line items, stock decrements and cart clearing are
// committed together or not at all.
type Engine struct {
	Tx          Transactor
	MaxAttempts int
	Backoff     time.Duration
	Retryable   func(error) bool
	Log         *slog.Logger
}

func NewEngine(tx Transactor, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		Tx:          tx,
		MaxAttempts: defaultAttempts,
		Backoff:     defaultBackoff,
		Retryable:   postgres.IsRetryable,
		Log:         log,
	}
}

// PlaceOrder returns ErrEmptyCart, *InsufficientStockError or *StorageError on
// failure. In each case no change was persisted.
func (e *Engine) PlaceOrder(ctx context.Context, userID int64) (Receipt, error) {
	attempts := max(e.MaxAttempts, 1)

	for attempt := 1; ; attempt++ {
		var rc Receipt
		err := e.Tx.InTx(ctx, func(tx Tx) error {
			var err error
			rc, err = place(ctx, tx, userID)
			return err
		})
		if err == nil {
			return rc, nil
		}
		if isOutcome(err) {
			return Receipt{}, err
		}
		if attempt >= attempts || ctx.Err() != nil || e.Retryable == nil || !e.Retryable(err) {
			return Receipt{}, storageErr("commit", err)
		}

		wait := e.Backoff << (attempt - 1)
		e.logger().Warn("placement conflict, retrying",
			slog.Int64(logx.KeyUserID, userID), slog.Int(logx.KeyAttempt, attempt), logx.Err(err))
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return Receipt{}, storageErr("retry", ctx.Err())
		}
	}
}

func (e *Engine) logger() *slog.Logger {
	if e.Log == nil {
		return slog.Default()
	}
	return e.Log
}

func place(ctx context.Context, tx Tx, userID int64) (Receipt, error) {
	entries, err := tx.LockCart(ctx, userID)
	if err != nil {
		return Receipt{}, storageErr("lock cart", err)
	}
	if len(entries) == 0 {
		return Receipt{}, ErrEmptyCart
	}

	ids := make([]int64, 0, len(entries))
	for _, en := range entries {
		ids = append(ids, en.ProductID)
	}
	slices.Sort(ids)
	stock, err := tx.LockProducts(ctx, ids)
	if err != nil {
		return Receipt{}, storageErr("lock products", err)
	}

	lines := make([]LineItem, 0, len(entries))
	total := decimal.Zero
	for _, en := range entries {
		sp, ok := stock[en.ProductID]
		if !ok {
			return Receipt{}, &InsufficientStockError{ProductID: en.ProductID, Requested: en.Quantity}
		}
		if en.Quantity > sp.Stock {
			return Receipt{}, &InsufficientStockError{
				ProductID: en.ProductID, Requested: en.Quantity, Available: sp.Stock,
			}
		}
		lines = append(lines, LineItem{ProductID: en.ProductID, Quantity: en.Quantity, PriceAtPurchase: sp.Price})
		total = total.Add(sp.Price.Mul(decimal.NewFromInt(int64(en.Quantity))))
	}

	order, err := tx.CreateOrder(ctx, userID, total, StatusPending)
	if err != nil {
		return Receipt{}, storageErr("create order", err)
	}
	for i := range lines {
		lines[i].OrderID = order.ID
		if err := tx.AddLineItem(ctx, lines[i]); err != nil {
			return Receipt{}, storageErr("add line item", err)
		}
	}
	for _, li := range lines {
		if err := tx.DecrementStock(ctx, li.ProductID, li.Quantity); err != nil {
			return Receipt{}, storageErr("decrement stock", err)
		}
	}
	if err := tx.ClearCart(ctx, userID); err != nil {
		return Receipt{}, storageErr("clear cart", err)
	}

	return Receipt{
		OrderID:     order.ID,
		UserID:      userID,
		OrderDate:   order.OrderDate,
		TotalAmount: total,
		Lines:       lines,
	}, nil
}
