// cmd/historian is an asynchronous worker that pops game actions from the Redis queue and
// persists them to Postgres, marking games abandoned once their actions stop.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jason-s-yu/cah/internal/cache"
	"github.com/jason-s-yu/cah/internal/config"
	"github.com/jason-s-yu/cah/internal/database"
	"github.com/jason-s-yu/cah/internal/historian"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.ConnectDB(ctx, cfg.ConnString())
	if err != nil {
		logger.Fatalf("database: %v", err)
	}
	defer pool.Close()
	repo := database.NewRepository(pool)
	if err := repo.Migrate(ctx); err != nil {
		logger.Fatalf("database: %v", err)
	}

	rdb, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		logger.Fatalf("redis: %v", err)
	}
	defer rdb.Close()

	entry := logger.WithField("component", "historian")
	svc := historian.NewService(
		cache.NewActionQueue(rdb, cfg.HistorianQueueName, entry),
		repo,
		historian.Options{
			BatchSize:     cfg.HistorianBatchSize,
			FlushInterval: cfg.HistorianFlushInterval,
			Inactivity:    cfg.GameInactivityTimeout,
			Logger:        entry,
		},
	)
	svc.Run(ctx)
}
