package orders

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// decimalArg matches a decimal query argument by value, ignoring its scale.
type decimalArg string

func (d decimalArg) Match(v any) bool {
	want := decimal.RequireFromString(string(d))
	switch got := v.(type) {
	case decimal.Decimal:
		return got.Equal(want)
	case string:
		parsed, err := decimal.NewFromString(got)
		return err == nil && parsed.Equal(want)
	}
	return false
}

var (
	readCommitted = pgx.TxOptions{IsoLevel: pgx.ReadCommitted}

	orderCols = []string{"id", "user_id", "order_date", "total_amount", "status"}
	itemCols  = []string{"order_id", "product_id", "quantity", "price_at_purchase", "title", "author", "image_url"}
	placedAt  = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
)

func TestLedger_CreateOrder(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`INSERT INTO orders \(user_id, total_amount, status\)`).
		WithArgs(int64(7), decimalArg("40.00"), "pending").
		WillReturnRows(pgxmock.NewRows([]string{"id", "order_date"}).AddRow(int64(11), placedAt))

	o, err := NewLedger(mock).CreateOrder(context.Background(), 7, dec("40"), StatusPending)

	require.NoError(t, err)
	assert.Equal(t, int64(11), o.ID)
	assert.Equal(t, placedAt, o.OrderDate)
	assert.Equal(t, StatusPending, o.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedger_AddLineItem_WrapsError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	boom := errors.New("fk violation")
	mock.ExpectExec(`INSERT INTO order_items`).
		WithArgs(int64(11), int64(1), 3, decimalArg("10")).
		WillReturnError(boom)

	err = NewLedger(mock).AddLineItem(context.Background(), LineItem{
		OrderID: 11, ProductID: 1, Quantity: 3, PriceAtPurchase: dec("10.00"),
	})

	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "product 1")
}

func TestLedger_ListByUser_GroupsItems(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`FROM orders\s+WHERE user_id=\$1 ORDER BY order_date DESC, id DESC`).
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows(orderCols).
			AddRow(int64(12), int64(7), placedAt.Add(time.Hour), "5.00", "pending").
			AddRow(int64(11), int64(7), placedAt, "40.00", "shipped"))
	mock.ExpectQuery(`FROM order_items oi`).
		WithArgs([]int64{12, 11}).
		WillReturnRows(pgxmock.NewRows(itemCols).
			AddRow(int64(11), int64(1), 3, "10.00", "Dune", "Frank Herbert", "dune.jpg").
			AddRow(int64(11), int64(2), 2, "5.00", "Emma", "Jane Austen", "emma.jpg").
			AddRow(int64(12), int64(2), 1, "5.00", "Emma", "Jane Austen", "emma.jpg"))

	got, err := NewLedger(mock).ListByUser(context.Background(), 7)

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(12), got[0].ID)
	assert.Len(t, got[0].Items, 1)
	assert.Equal(t, StatusShipped, got[1].Status)
	require.Len(t, got[1].Items, 2)
	assert.Equal(t, "Dune", got[1].Items[0].Title)
	assert.True(t, got[1].Items[0].PriceAtPurchase.Equal(dec("10")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedger_ListByUser_NoOrdersSkipsItems(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`FROM orders`).WithArgs(int64(7)).WillReturnRows(pgxmock.NewRows(orderCols))

	got, err := NewLedger(mock).ListByUser(context.Background(), 7)

	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedger_Get(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`FROM orders WHERE id=\$1 AND user_id=\$2`).
			WithArgs(int64(11), int64(7)).
			WillReturnRows(pgxmock.NewRows(orderCols).AddRow(int64(11), int64(7), placedAt, "40.00", "pending"))
		mock.ExpectQuery(`FROM order_items oi`).
			WithArgs([]int64{11}).
			WillReturnRows(pgxmock.NewRows(itemCols))

		got, err := NewLedger(mock).Get(context.Background(), 7, 11)

		require.NoError(t, err)
		assert.True(t, got.TotalAmount.Equal(dec("40")))
		assert.NotNil(t, got.Items)
	})

	t.Run("other user", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`FROM orders WHERE id=\$1 AND user_id=\$2`).
			WithArgs(int64(11), int64(8)).
			WillReturnRows(pgxmock.NewRows(orderCols))

		_, err = NewLedger(mock).Get(context.Background(), 8, 11)

		assert.ErrorIs(t, err, ErrOrderNotFound)
	})
}

func TestPgTransactor_PlacesOrderInOneTransaction(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBeginTx(readCommitted)
	mock.ExpectExec(`SELECT 1 FROM users WHERE id=\$1 FOR UPDATE`).
		WithArgs(int64(7)).WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectQuery(`FROM cart_items WHERE user_id=\$1 ORDER BY product_id FOR UPDATE`).
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"product_id", "quantity"}).AddRow(int64(1), 3).AddRow(int64(2), 2))
	mock.ExpectQuery(`WHERE id = ANY\(\$1\)`).
		WithArgs([]int64{1, 2}).
		WillReturnRows(pgxmock.NewRows([]string{"id", "price", "stock"}).
			AddRow(int64(1), "10.00", 5).
			AddRow(int64(2), "5.00", 4))
	mock.ExpectQuery(`INSERT INTO orders`).
		WithArgs(int64(7), decimalArg("40"), "pending").
		WillReturnRows(pgxmock.NewRows([]string{"id", "order_date"}).AddRow(int64(11), placedAt))
	mock.ExpectExec(`INSERT INTO order_items`).WithArgs(int64(11), int64(1), 3, decimalArg("10")).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO order_items`).WithArgs(int64(11), int64(2), 2, decimalArg("5")).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`UPDATE products SET stock = stock - \$2 WHERE id = \$1 AND stock >= \$2`).
		WithArgs(int64(1), 3).WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`UPDATE products SET stock = stock - \$2 WHERE id = \$1 AND stock >= \$2`).
		WithArgs(int64(2), 2).WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`DELETE FROM cart_items WHERE user_id=\$1`).
		WithArgs(int64(7)).WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mock.ExpectCommit()

	rc, err := NewEngine(NewPgTransactor(mock), nil).PlaceOrder(context.Background(), 7)

	require.NoError(t, err)
	assert.Equal(t, int64(11), rc.OrderID)
	assert.True(t, rc.TotalAmount.Equal(dec("40")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgTransactor_StockChangedRollsBack(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBeginTx(readCommitted)
	mock.ExpectExec(`FROM users WHERE id=\$1 FOR UPDATE`).
		WithArgs(int64(7)).WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectQuery(`FROM cart_items WHERE user_id=\$1 ORDER BY product_id FOR UPDATE`).WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"product_id", "quantity"}).AddRow(int64(1), 1))
	mock.ExpectQuery(`WHERE id = ANY\(\$1\)`).WithArgs([]int64{1}).
		WillReturnRows(pgxmock.NewRows([]string{"id", "price", "stock"}).AddRow(int64(1), "10.00", 1))
	mock.ExpectQuery(`INSERT INTO orders`).WithArgs(int64(7), decimalArg("10"), "pending").
		WillReturnRows(pgxmock.NewRows([]string{"id", "order_date"}).AddRow(int64(11), placedAt))
	mock.ExpectExec(`INSERT INTO order_items`).WithArgs(int64(11), int64(1), 1, decimalArg("10")).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`UPDATE products`).WithArgs(int64(1), 1).WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	_, err = NewEngine(NewPgTransactor(mock), nil).PlaceOrder(context.Background(), 7)

	var se *StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "decrement stock", se.Op)
	assert.ErrorIs(t, err, errStockChanged)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgTx_DecrementStock_CheckViolation(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`UPDATE products SET stock = stock - \$2`).WithArgs(int64(1), 2).
		WillReturnError(&pgconn.PgError{Code: "23514"})

	err = (&pgTx{db: mock}).DecrementStock(context.Background(), 1, 2)

	assert.ErrorIs(t, err, errStockChanged)
	var pgErr *pgconn.PgError
	assert.ErrorAs(t, err, &pgErr)
}

func TestStorageError_Message(t *testing.T) {
	err := storageErr("lock cart", fmt.Errorf("conn: %w", context.DeadlineExceeded))
	assert.Equal(t, "storage: lock cart: conn: context deadline exceeded", err.Error())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Same(t, err, storageErr("commit", err))
}
