package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ariefcatur/go-bookstore-orders/internal/logx"
	"github.com/ariefcatur/go-bookstore-orders/internal/redisx"
	"github.com/redis/go-redis/v9"
)

type Source interface {
	Get(ctx context.Context, id int64) (*Product, error)
	List(ctx context.Context) ([]Product, error)
	Search(ctx context.Context, p SearchParams) ([]Product, error)
}

// CachedReader serves single-product reads cache-aside from Redis. Redis failures are
// logged and fall through to the source.
type CachedReader struct {
	src Source
	rdb redis.Cmdable
	ttl time.Duration
	log *slog.Logger
}

func NewCachedReader(src Source, rdb redis.Cmdable, ttl time.Duration, log *slog.Logger) *CachedReader {
	if ttl <= 0 {
		ttl = redisx.TTLProduct
	}
	if log == nil {
		log = slog.Default()
	}
	return &CachedReader{src: src, rdb: rdb, ttl: ttl, log: log}
}

func (c *CachedReader) Get(ctx context.Context, id int64) (*Product, error) {
	key := fmt.Sprintf(redisx.KeyProduct, id)

	data, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		if string(data) == redisx.NotFoundMarker {
			return nil, ErrProductNotFound
		}
		var p Product
		if err := json.Unmarshal(data, &p); err == nil {
			return &p, nil
		}
		c.log.Warn("corrupt cached product, reading db", slog.Int64(logx.KeyProductID, id))
	case errors.Is(err, redis.Nil):
	default:
		c.log.Warn("redis get failed, reading db", slog.Int64(logx.KeyProductID, id), logx.Err(err))
	}

	p, err := c.src.Get(ctx, id)
	if errors.Is(err, ErrProductNotFound) {
		if setErr := c.rdb.Set(ctx, key, redisx.NotFoundMarker, redisx.TTLNotFound).Err(); setErr != nil {
			c.log.Warn("cache notfound failed", slog.Int64(logx.KeyProductID, id), logx.Err(setErr))
		}
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	if b, err := json.Marshal(p); err == nil {
		if setErr := c.rdb.Set(ctx, key, b, c.ttl).Err(); setErr != nil {
			c.log.Warn("cache product failed", slog.Int64(logx.KeyProductID, id), logx.Err(setErr))
		}
	}
	return p, nil
}

func (c *CachedReader) List(ctx context.Context) ([]Product, error) { return c.src.List(ctx) }

func (c *CachedReader) Search(ctx context.Context, p SearchParams) ([]Product, error) {
	return c.src.Search(ctx, p)
}

// Invalidate evicts cached entries for products whose stock or price changed.
func (c *CachedReader) Invalidate(ctx context.Context, ids ...int64) error {
	return Evictor{RDB: c.rdb}.Invalidate(ctx, ids...)
}

// Evictor drops cached products without needing a database source.
type Evictor struct{ RDB redis.Cmdable }

func (e Evictor) Invalidate(ctx context.Context, ids ...int64) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, fmt.Sprintf(redisx.KeyProduct, id))
	}
	if err := e.RDB.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("invalidate products: %w", err)
	}
	return nil
}
