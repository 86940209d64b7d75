package catalog

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSearch_NoFilters(t *testing.T) {
	sql, args := buildSearch(SearchParams{})

	assert.Contains(t, sql, "WHERE 1=1 ORDER BY title")
	assert.NotContains(t, sql, "LIMIT")
	assert.Empty(t, args)
}

func TestBuildSearch_AllFilters(t *testing.T) {
	lo := decimal.RequireFromString("5")
	hi := decimal.RequireFromString("20")

	sql, args := buildSearch(SearchParams{
		Query:    "Dune  Herbert",
		Genres:   []string{" Science Fiction", "", "classic"},
		MinPrice: &lo,
		MaxPrice: &hi,
		Limit:    10,
	})

	assert.Contains(t, sql, "(title ILIKE $1 OR author ILIKE $1 OR description ILIKE $1) OR (title ILIKE $2")
	assert.Contains(t, sql, "(genre ILIKE $3 OR genre ILIKE $4)")
	assert.Contains(t, sql, "price >= $5")
	assert.Contains(t, sql, "price <= $6")
	assert.Contains(t, sql, "ORDER BY title LIMIT $7")
	assert.Equal(t, []any{"%dune%", "%herbert%", "%science fiction%", "%classic%", lo, hi, 10}, args)
}

func TestReader_Search(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`ILIKE`).
		WithArgs("%dune%").
		WillReturnRows(pgxmock.NewRows(productCols).
			AddRow(int64(1), "Dune", "Frank Herbert", "Science Fiction", "Spice.", "dune.jpg", 1965, "", "10.00", 4))

	ps, err := NewReader(mock).Search(context.Background(), SearchParams{Query: "dune"})

	require.NoError(t, err)
	require.Len(t, ps, 1)
	assert.Equal(t, "Dune", ps[0].Title)
}
