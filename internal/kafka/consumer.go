package kafka

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/ariefcatur/go-bookstore-orders/internal/logx"
	"github.com/segmentio/kafka-go"
)

// Handler returns nil only when the message was processed and its offset may be committed.
type Handler func(ctx context.Context, m kafka.Message) error

const (
	defaultHandleAttempts = 3
	defaultHandleBackoff  = 200 * time.Millisecond
)

type Consumer struct {
	r        *kafka.Reader
	workers  int
	attempts int
	backoff  time.Duration
	log      *slog.Logger
}

func NewConsumer(brokers []string, group, topic string, workers int, log *slog.Logger) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		GroupID:        group,
		Topic:          topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0, // manual commit
	})
	if workers <= 0 {
		workers = 1
	}
	if log == nil {
		log = slog.Default()
	}
	return &Consumer{
		r:        r,
		workers:  workers,
		attempts: defaultHandleAttempts,
		backoff:  defaultHandleBackoff,
		log:      log.With(slog.String("topic", topic), slog.String("group", group)),
	}
}

// Start fetches messages and fans them out to the worker pool until ctx is done.
// Every partition is served by exactly one worker, so offsets are committed in order.
// A message whose handler keeps failing is logged and skipped; on shutdown the
// in-flight messages are left uncommitted and redelivered on restart.
func (c *Consumer) Start(ctx context.Context, h Handler) error {
	jobs := make([]chan kafka.Message, c.workers)
	var wg sync.WaitGroup
	for i := range jobs {
		jobs[i] = make(chan kafka.Message, 4)
		wg.Add(1)
		go func(in <-chan kafka.Message) {
			defer wg.Done()
			for m := range in {
				if ctx.Err() != nil {
					continue
				}
				c.handle(ctx, h, m)
			}
		}(jobs[i])
	}
	defer func() {
		for _, ch := range jobs {
			close(ch)
		}
		wg.Wait()
		if err := c.r.Close(); err != nil {
			c.log.Warn("kafka reader close failed", logx.Err(err))
		}
	}()

	for {
		m, err := c.r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		select {
		case jobs[workerFor(m.Partition, c.workers)] <- m:
		case <-ctx.Done():
			return nil
		}
	}
}

func workerFor(partition, workers int) int {
	if partition < 0 {
		partition = -partition
	}
	return partition % workers
}

func (c *Consumer) handle(ctx context.Context, h Handler, m kafka.Message) {
	log := c.log.With(slog.Int("partition", m.Partition), slog.Int64("offset", m.Offset))
	if err := c.process(ctx, h, m); err != nil {
		if ctx.Err() != nil {
			return
		}
		log.Error("handler failed, skipping message", logx.Err(err))
	}
	if err := c.r.CommitMessages(context.WithoutCancel(ctx), m); err != nil {
		log.Error("commit failed", logx.Err(err))
	}
}

// process runs h until it succeeds, the attempts are used up or ctx is done.
func (c *Consumer) process(ctx context.Context, h Handler, m kafka.Message) error {
	attempts := max(c.attempts, 1)
	var err error
	for attempt := 1; ; attempt++ {
		if err = h(ctx, m); err == nil {
			return nil
		}
		if attempt >= attempts {
			return err
		}
		c.log.Warn("handler failed, retrying", slog.Int(logx.KeyAttempt, attempt), logx.Err(err))
		select {
		case <-time.After(c.backoff << (attempt - 1)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
