package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/ariefcatur/go-bookstore-orders/internal/postgres"
	"github.com/jackc/pgx/v5"
)

// Store is the cart_items table bound to a pool or to a caller's transaction.
type Store struct{ DB postgres.DBTX }

func NewStore(db postgres.DBTX) *Store { return &Store{DB: db} }

func (s *Store) ListEntries(ctx context.Context, userID int64) ([]Entry, error) {
	return s.entries(ctx, `SELECT product_id, quantity FROM cart_items WHERE user_id=$1 ORDER BY product_id`, userID)
}

// LockEntries is ListEntries that also locks the cart until the transaction ends.
// The user row is locked first: cart inserts take a KEY SHARE lock on it through the
// foreign key, so no line can be added between reading the cart and clearing it.
// A concurrent placement by the same user waits and then sees the cleared cart.
func (s *Store) LockEntries(ctx context.Context, userID int64) ([]Entry, error) {
	if _, err := s.DB.Exec(ctx, `SELECT 1 FROM users WHERE id=$1 FOR UPDATE`, userID); err != nil {
		return nil, fmt.Errorf("lock user %d: %w", userID, err)
	}
	return s.entries(ctx, `SELECT product_id, quantity FROM cart_items WHERE user_id=$1 ORDER BY product_id FOR UPDATE`, userID)
}

func (s *Store) entries(ctx context.Context, sql string, userID int64) ([]Entry, error) {
	rows, err := s.DB.Query(ctx, sql, userID)
	if err != nil {
		return nil, fmt.Errorf("list cart of user %d: %w", userID, err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ProductID, &e.Quantity); err != nil {
			return nil, fmt.Errorf("scan cart entry: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list cart of user %d: %w", userID, err)
	}
	return out, nil
}

func (s *Store) View(ctx context.Context, userID int64) ([]Item, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT ci.product_id, ci.quantity, p.title, p.price, p.image_url, p.stock
		FROM cart_items ci
		JOIN products p ON ci.product_id = p.id
		WHERE ci.user_id = $1
		ORDER BY ci.product_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("view cart of user %d: %w", userID, err)
	}
	defer rows.Close()

	out := []Item{}
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ProductID, &it.Quantity, &it.Title, &it.Price, &it.ImageURL, &it.Stock); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// Clear deletes every entry of the user and returns how many were removed.
func (s *Store) Clear(ctx context.Context, userID int64) (int64, error) {
	ct, err := s.DB.Exec(ctx, `DELETE FROM cart_items WHERE user_id=$1`, userID)
	if err != nil {
		return 0, fmt.Errorf("clear cart of user %d: %w", userID, err)
	}
	return ct.RowsAffected(), nil
}

func (s *Store) Remove(ctx context.Context, userID, productID int64) error {
	ct, err := s.DB.Exec(ctx, `DELETE FROM cart_items WHERE user_id=$1 AND product_id=$2`, userID, productID)
	if err != nil {
		return fmt.Errorf("remove product %d from cart: %w", productID, err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotInCart
	}
	return nil
}

// quantity returns the current quantity of a line, locking it; found=false when absent.
func (s *Store) quantity(ctx context.Context, userID, productID int64) (qty int, found bool, err error) {
	err = s.DB.QueryRow(ctx, `SELECT quantity FROM cart_items WHERE user_id=$1 AND product_id=$2 FOR UPDATE`,
		userID, productID).Scan(&qty)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read cart line: %w", err)
	}
	return qty, true, nil
}

func (s *Store) insert(ctx context.Context, userID, productID int64, qty int) error {
	_, err := s.DB.Exec(ctx, `INSERT INTO cart_items (user_id, product_id, quantity) VALUES ($1, $2, $3)`,
		userID, productID, qty)
	if postgres.IsForeignKeyViolation(err) {
		return ErrUnknownUser
	}
	if err != nil {
		return fmt.Errorf("insert cart line: %w", err)
	}
	return nil
}

func (s *Store) update(ctx context.Context, userID, productID int64, qty int) (bool, error) {
	ct, err := s.DB.Exec(ctx, `UPDATE cart_items SET quantity=$3 WHERE user_id=$1 AND product_id=$2`,
		userID, productID, qty)
	if err != nil {
		return false, fmt.Errorf("update cart line: %w", err)
	}
	return ct.RowsAffected() == 1, nil
}
