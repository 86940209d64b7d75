package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ariefcatur/go-bookstore-orders/internal/catalog"
	"github.com/ariefcatur/go-bookstore-orders/internal/config"
	"github.com/ariefcatur/go-bookstore-orders/internal/inventory"
	kafkax "github.com/ariefcatur/go-bookstore-orders/internal/kafka"
	"github.com/ariefcatur/go-bookstore-orders/internal/logx"
	"github.com/ariefcatur/go-bookstore-orders/internal/orders"
	"github.com/ariefcatur/go-bookstore-orders/internal/redisx"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	log := logx.New(os.Stdout, cfg.LogLevel, cfg.ServiceName+"-inventory")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Error("redis ping", logx.Err(err))
		os.Exit(1)
	}

	svc := &inventory.Service{
		Cache: catalog.Evictor{RDB: rdb},
		Redis: rdb,
		Name:  "inventory",
		Log:   log,
	}

	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.InventoryGroup, orders.TopicOrderPlaced, cfg.InventoryWork, log)
	log.Info("inventory consumer started",
		"group", cfg.InventoryGroup, "topic", orders.TopicOrderPlaced, "workers", cfg.InventoryWork)

	// Start returns once ctx is cancelled and in-flight handlers are done
	if err := cons.Start(ctx, svc.HandleOrderPlaced); err != nil {
		log.Error("consumer exit", logx.Err(err))
		os.Exit(1)
	}
	log.Info("inventory consumer stopped")
}
