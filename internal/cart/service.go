package cart

import (
	"context"

	"github.com/ariefcatur/go-bookstore-orders/internal/catalog"
	"github.com/ariefcatur/go-bookstore-orders/internal/postgres"
	"github.com/jackc/pgx/v5"
)

type DB interface {
	postgres.DBTX
	postgres.TxBeginner
}

// Service implements the cart mutations that check stock. Stock is checked when the
// cart changes; the authoritative check happens again at order time.
type Service struct{ DB DB }

func NewService(db DB) *Service { return &Service{DB: db} }

// Add increases the quantity of a line, creating it when absent. created reports
// whether a new line was inserted.
func (s *Service) Add(ctx context.Context, userID, productID int64, qty int) (created bool, err error) {
	if qty <= 0 {
		return false, ErrInvalidQuantity
	}
	err = postgres.WithTx(ctx, s.DB, func(tx pgx.Tx) error {
		sp, err := catalog.NewReader(tx).StockAndPrice(ctx, productID)
		if err != nil {
			return err
		}
		st := NewStore(tx)
		cur, found, err := st.quantity(ctx, userID, productID)
		if err != nil {
			return err
		}
		if cur+qty > sp.Stock {
			return &NotEnoughStockError{ProductID: productID, Requested: cur + qty, Available: sp.Stock}
		}
		if found {
			_, err = st.update(ctx, userID, productID, cur+qty)
			return err
		}
		created = true
		return st.insert(ctx, userID, productID, qty)
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

// SetQuantity replaces the quantity of an existing line; zero removes it.
func (s *Service) SetQuantity(ctx context.Context, userID, productID int64, qty int) error {
	if qty < 0 {
		return ErrInvalidQuantity
	}
	return postgres.WithTx(ctx, s.DB, func(tx pgx.Tx) error {
		sp, err := catalog.NewReader(tx).StockAndPrice(ctx, productID)
		if err != nil {
			return err
		}
		st := NewStore(tx)
		if qty == 0 {
			_, err := st.DB.Exec(ctx, `DELETE FROM cart_items WHERE user_id=$1 AND product_id=$2`, userID, productID)
			return err
		}
		if qty > sp.Stock {
			return &NotEnoughStockError{ProductID: productID, Requested: qty, Available: sp.Stock}
		}
		ok, err := st.update(ctx, userID, productID, qty)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotInCart
		}
		return nil
	})
}

func (s *Service) View(ctx context.Context, userID int64) ([]Item, error) {
	return NewStore(s.DB).View(ctx, userID)
}

func (s *Service) Remove(ctx context.Context, userID, productID int64) error {
	return NewStore(s.DB).Remove(ctx, userID, productID)
}

func (s *Service) Clear(ctx context.Context, userID int64) error {
	_, err := NewStore(s.DB).Clear(ctx, userID)
	return err
}
