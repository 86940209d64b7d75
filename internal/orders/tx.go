package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/ariefcatur/go-bookstore-orders/internal/cart"
	"github.com/ariefcatur/go-bookstore-orders/internal/catalog"
	"github.com/ariefcatur/go-bookstore-orders/internal/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// Tx is the set of storage operations a placement performs inside one transaction.
type Tx interface {
	// LockCart returns the user's cart entries, locking them.
	LockCart(ctx context.Context, userID int64) ([]cart.Entry, error)
	// LockProducts locks the given products and returns their current price and stock.
	LockProducts(ctx context.Context, ids []int64) (map[int64]catalog.StockPrice, error)
	CreateOrder(ctx context.Context, userID int64, total decimal.Decimal, status Status) (Order, error)
	AddLineItem(ctx context.Context, li LineItem) error
	DecrementStock(ctx context.Context, productID int64, qty int) error
	ClearCart(ctx context.Context, userID int64) error
}

// Transactor runs fn in a transaction that is committed only if fn returns nil.
type Transactor interface {
	InTx(ctx context.Context, fn func(Tx) error) error
}

var errStockChanged = errors.New("stock changed under lock")

type PgTransactor struct{ DB postgres.TxBeginner }

func NewPgTransactor(db postgres.TxBeginner) *PgTransactor { return &PgTransactor{DB: db} }

func (t *PgTransactor) InTx(ctx context.Context, fn func(Tx) error) error {
	return postgres.WithTx(ctx, t.DB, func(tx pgx.Tx) error {
		return fn(&pgTx{
			db:      tx,
			cart:    cart.NewStore(tx),
			catalog: catalog.NewReader(tx),
			ledger:  NewLedger(tx),
		})
	})
}

type pgTx struct {
	db      postgres.DBTX
	cart    *cart.Store
	catalog *catalog.Reader
	ledger  *Ledger
}

func (t *pgTx) LockCart(ctx context.Context, userID int64) ([]cart.Entry, error) {
	return t.cart.LockEntries(ctx, userID)
}

func (t *pgTx) LockProducts(ctx context.Context, ids []int64) (map[int64]catalog.StockPrice, error) {
	return t.catalog.LockStockAndPrice(ctx, ids)
}

func (t *pgTx) CreateOrder(ctx context.Context, userID int64, total decimal.Decimal, status Status) (Order, error) {
	return t.ledger.CreateOrder(ctx, userID, total, status)
}

func (t *pgTx) AddLineItem(ctx context.Context, li LineItem) error {
	return t.ledger.AddLineItem(ctx, li)
}

// DecrementStock is conditional on stock still covering qty; with the row lock held
// it always matches, otherwise the transaction is aborted.
func (t *pgTx) DecrementStock(ctx context.Context, productID int64, qty int) error {
	ct, err := t.db.Exec(ctx, `UPDATE products SET stock = stock - $2 WHERE id = $1 AND stock >= $2`,
		productID, qty)
	if postgres.IsCheckViolation(err) {
		return fmt.Errorf("decrement stock of product %d: %w: %w", productID, errStockChanged, err)
	}
	if err != nil {
		return fmt.Errorf("decrement stock of product %d: %w", productID, err)
	}
	if ct.RowsAffected() != 1 {
		return fmt.Errorf("decrement stock of product %d: %w", productID, errStockChanged)
	}
	return nil
}

func (t *pgTx) ClearCart(ctx context.Context, userID int64) error {
	_, err := t.cart.Clear(ctx, userID)
	return err
}
