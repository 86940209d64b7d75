package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type SearchParams struct {
	Query    string
	Genres   []string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Limit    int
}

// Search matches any keyword of Query against title, author or description and any of
// Genres against genre, case-insensitively. Results are ordered by title.
func (r *Reader) Search(ctx context.Context, p SearchParams) ([]Product, error) {
	sql, args := buildSearch(p)
	rows, err := r.DB.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	return collectProducts(rows)
}

func buildSearch(p SearchParams) (string, []any) {
	var (
		sb   strings.Builder
		args []any
	)
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	sb.WriteString(`SELECT ` + productColumns + ` FROM products WHERE 1=1`)

	if kws := strings.Fields(strings.ToLower(p.Query)); len(kws) > 0 {
		conds := make([]string, 0, len(kws))
		for _, kw := range kws {
			ph := next("%" + kw + "%")
			conds = append(conds, fmt.Sprintf("(title ILIKE %[1]s OR author ILIKE %[1]s OR description ILIKE %[1]s)", ph))
		}
		sb.WriteString(" AND (" + strings.Join(conds, " OR ") + ")")
	}

	var genres []string
	for _, g := range p.Genres {
		if g = strings.TrimSpace(strings.ToLower(g)); g != "" {
			genres = append(genres, "genre ILIKE "+next("%"+g+"%"))
		}
	}
	if len(genres) > 0 {
		sb.WriteString(" AND (" + strings.Join(genres, " OR ") + ")")
	}

	if p.MinPrice != nil {
		sb.WriteString(" AND price >= " + next(*p.MinPrice))
	}
	if p.MaxPrice != nil {
		sb.WriteString(" AND price <= " + next(*p.MaxPrice))
	}

	sb.WriteString(" ORDER BY title")
	if p.Limit > 0 {
		sb.WriteString(" LIMIT " + next(p.Limit))
	}
	return sb.String(), args
}
