// Package inventory keeps derived stock views in step with committed orders.
package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	kafkax "github.com/ariefcatur/go-bookstore-orders/internal/kafka"
	"github.com/ariefcatur/go-bookstore-orders/internal/logx"
	"github.com/ariefcatur/go-bookstore-orders/internal/orders"
	"github.com/ariefcatur/go-bookstore-orders/internal/redisx"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
)

type Evictor interface {
	Invalidate(ctx context.Context, ids ...int64) error
}

type Service struct {
	Cache Evictor
	Redis redis.Cmdable
	Name  string // dedup namespace
	Log   *slog.Logger
}

// HandleOrderPlaced evicts the cached products of a placed order. Each event is
// applied once per namespace; malformed messages are logged and acknowledged.
func (s *Service) HandleOrderPlaced(ctx context.Context, m kafkago.Message) error {
	if typ, ok := kafkax.Header(m, kafkax.HeaderEventType); ok && typ != orders.EventOrderPlaced {
		return nil
	}

	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		s.Log.Warn("dropping undecodable event", slog.Int64("offset", m.Offset), logx.Err(err))
		return nil
	}
	if env.EventType != orders.EventOrderPlaced {
		return nil
	}
	p, err := kafkax.UnwrapPayload[orders.OrderPlacedPayload](env.Payload)
	if err != nil {
		s.Log.Warn("dropping event with bad payload", slog.String(logx.KeyEventID, env.EventID), logx.Err(err))
		return nil
	}

	dkey := fmt.Sprintf(redisx.KeyDedup, s.Name, env.EventID)
	claimed, err := redisx.Claim(ctx, s.Redis, dkey, redisx.TTLDedup)
	if err != nil {
		return fmt.Errorf("claim event %s: %w", env.EventID, err)
	}
	if !claimed {
		s.Log.Debug("duplicate event", slog.String(logx.KeyEventID, env.EventID))
		return nil
	}

	if err := s.Cache.Invalidate(ctx, p.ProductIDs()...); err != nil {
		// release so the redelivery is not skipped
		_ = s.Redis.Del(context.WithoutCancel(ctx), dkey).Err()
		return err
	}
	s.Log.Info("order stock synced",
		slog.Int64(logx.KeyOrderID, p.OrderID),
		slog.String(logx.KeyEventID, env.EventID),
		slog.Int("products", len(p.Items)))
	return nil
}
