package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/ariefcatur/go-bookstore-orders/internal/postgres"
	"github.com/jackc/pgx/v5"
)

const productColumns = `id, title, author, genre, description, image_url,
	COALESCE(year_published, 0), COALESCE(isbn, ''), price, stock`

type Reader struct{ DB postgres.DBTX }

func NewReader(db postgres.DBTX) *Reader { return &Reader{DB: db} }

func (r *Reader) Get(ctx context.Context, id int64) (*Product, error) {
	row := r.DB.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id=$1`, id)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("get product %d: %w", id, err)
	}
	return &p, nil
}

func (r *Reader) List(ctx context.Context) ([]Product, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return collectProducts(rows)
}

// StockAndPrice reads a single product's price and stock without locking.
func (r *Reader) StockAndPrice(ctx context.Context, id int64) (StockPrice, error) {
	sp := StockPrice{ProductID: id}
	err := r.DB.QueryRow(ctx, `SELECT price, stock FROM products WHERE id=$1`, id).Scan(&sp.Price, &sp.Stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return StockPrice{}, ErrProductNotFound
		}
		return StockPrice{}, fmt.Errorf("stock of product %d: %w", id, err)
	}
	return sp, nil
}

// LockStockAndPrice row-locks the given products until the surrounding transaction
// ends. NO KEY UPDATE leaves cart inserts referencing the products unblocked. Locks are taken in ascending id order so overlapping callers cannot deadlock.
// Ids that do not exist are absent from the result.
func (r *Reader) LockStockAndPrice(ctx context.Context, ids []int64) (map[int64]StockPrice, error) {
	out := make(map[int64]StockPrice, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.DB.Query(ctx, `
		SELECT id, price, stock FROM products
		WHERE id = ANY($1)
		ORDER BY id
		FOR NO KEY UPDATE`, ids)
	if err != nil {
		return nil, fmt.Errorf("lock products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var sp StockPrice
		if err := rows.Scan(&sp.ProductID, &sp.Price, &sp.Stock); err != nil {
			return nil, fmt.Errorf("scan locked product: %w", err)
		}
		out[sp.ProductID] = sp
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("lock products: %w", err)
	}
	return out, nil
}

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Title, &p.Author, &p.Genre, &p.Description, &p.ImageURL,
		&p.YearPublished, &p.ISBN, &p.Price, &p.Stock)
	return p, err
}

func collectProducts(rows pgx.Rows) ([]Product, error) {
	defer rows.Close()
	out := []Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return out, nil
}
