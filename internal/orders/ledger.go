package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/ariefcatur/go-bookstore-orders/internal/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// Ledger is the append-only store of orders and their line items.
type Ledger struct{ DB postgres.DBTX }

func NewLedger(db postgres.DBTX) *Ledger { return &Ledger{DB: db} }

func (l *Ledger) CreateOrder(ctx context.Context, userID int64, total decimal.Decimal, status Status) (Order, error) {
	o := Order{UserID: userID, TotalAmount: total, Status: status}
	err := l.DB.QueryRow(ctx, `
		INSERT INTO orders (user_id, total_amount, status)
		VALUES ($1, $2, $3)
		RETURNING id, order_date`, userID, total, string(status)).Scan(&o.ID, &o.OrderDate)
	if err != nil {
		return Order{}, fmt.Errorf("insert order: %w", err)
	}
	return o, nil
}

func (l *Ledger) AddLineItem(ctx context.Context, li LineItem) error {
	_, err := l.DB.Exec(ctx, `
		INSERT INTO order_items (order_id, product_id, quantity, price_at_purchase)
		VALUES ($1, $2, $3, $4)`, li.OrderID, li.ProductID, li.Quantity, li.PriceAtPurchase)
	if err != nil {
		return fmt.Errorf("insert line item for product %d: %w", li.ProductID, err)
	}
	return nil
}

const orderColumns = `id, user_id, order_date, total_amount, status`

// ListByUser returns the user's orders newest first, each with its items.
func (l *Ledger) ListByUser(ctx context.Context, userID int64) ([]OrderWithItems, error) {
	rows, err := l.DB.Query(ctx, `SELECT `+orderColumns+` FROM orders
		WHERE user_id=$1 ORDER BY order_date DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders of user %d: %w", userID, err)
	}
	out := []OrderWithItems{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, OrderWithItems{Order: o, Items: []HistoryItem{}})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list orders of user %d: %w", userID, err)
	}
	if len(out) == 0 {
		return out, nil
	}

	ids := make([]int64, len(out))
	byID := make(map[int64]int, len(out))
	for i, o := range out {
		ids[i] = o.ID
		byID[o.ID] = i
	}
	items, err := l.items(ctx, ids)
	if err != nil {
		return nil, err
	}
	for orderID, its := range items {
		out[byID[orderID]].Items = its
	}
	return out, nil
}

// Get returns one order of the user; orders of other users are reported as not found.
func (l *Ledger) Get(ctx context.Context, userID, orderID int64) (OrderWithItems, error) {
	row := l.DB.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1 AND user_id=$2`, orderID, userID)
	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return OrderWithItems{}, ErrOrderNotFound
	}
	if err != nil {
		return OrderWithItems{}, err
	}
	items, err := l.items(ctx, []int64{orderID})
	if err != nil {
		return OrderWithItems{}, err
	}
	res := OrderWithItems{Order: o, Items: items[orderID]}
	if res.Items == nil {
		res.Items = []HistoryItem{}
	}
	return res, nil
}

func (l *Ledger) items(ctx context.Context, orderIDs []int64) (map[int64][]HistoryItem, error) {
	rows, err := l.DB.Query(ctx, `
		SELECT oi.order_id, oi.product_id, oi.quantity, oi.price_at_purchase, p.title, p.author, p.image_url
		FROM order_items oi
		JOIN products p ON oi.product_id = p.id
		WHERE oi.order_id = ANY($1)
		ORDER BY oi.order_id, oi.id`, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()

	out := make(map[int64][]HistoryItem, len(orderIDs))
	for rows.Next() {
		var (
			orderID int64
			it      HistoryItem
		)
		if err := rows.Scan(&orderID, &it.ProductID, &it.Quantity, &it.PriceAtPurchase,
			&it.Title, &it.Author, &it.ImageURL); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		out[orderID] = append(out[orderID], it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	return out, nil
}

func scanOrder(row pgx.Row) (Order, error) {
	var (
		o      Order
		status string
	)
	if err := row.Scan(&o.ID, &o.UserID, &o.OrderDate, &o.TotalAmount, &status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, err
		}
		return Order{}, fmt.Errorf("scan order: %w", err)
	}
	o.Status = Status(status)
	return o, nil
}
