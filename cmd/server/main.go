// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jason-s-yu/cah/internal/auth"
	"github.com/jason-s-yu/cah/internal/cache"
	"github.com/jason-s-yu/cah/internal/config"
	"github.com/jason-s-yu/cah/internal/database"
	"github.com/jason-s-yu/cah/internal/game"
	"github.com/jason-s-yu/cah/internal/handlers"
	"github.com/jason-s-yu/cah/internal/models"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.Warnf("unknown log level %q, using info", cfg.LogLevel)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// init db connection
	pool, err := database.ConnectDB(ctx, cfg.ConnString())
	if err != nil {
		logger.Fatalf("database: %v", err)
	}
	defer pool.Close()
	repo := database.NewRepository(pool)
	if err := repo.Migrate(ctx); err != nil {
		logger.Fatalf("database: %v", err)
	}

	cards, err := repo.LoadCards(ctx)
	if err != nil {
		logger.Fatalf("load cards: %v", err)
	}
	catalog := models.NewCatalog(cards)
	logger.Infof("loaded %d cards", catalog.Len())

	// action log
	rdb, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		logger.Fatalf("redis: %v", err)
	}
	defer rdb.Close()
	actions := cache.NewActionQueue(rdb, cfg.HistorianQueueName, logrus.NewEntry(logger))
	defer actions.Close()

	// init auth keys
	ttl, err := auth.ParseTokenExpireTime(cfg.TokenExpireTime)
	if err != nil {
		logger.Fatalf("auth: %v", err)
	}
	var signer *auth.Signer
	if cfg.AuthPrivateKeyPath != "" && cfg.AuthPublicKeyPath != "" {
		signer, err = auth.NewSignerFromPath(cfg.AuthPrivateKeyPath, cfg.AuthPublicKeyPath, ttl)
	} else {
		logger.Warn("no signing keys configured, issued tokens will not survive a restart")
		signer, err = auth.NewSigner(ttl)
	}
	if err != nil {
		logger.Fatalf("auth: %v", err)
	}

	rules := game.DefaultRules().WithPhases(cfg.PlayPhase, cfg.PickPhase, cfg.FinishDelay)
	if err := rules.Validate(); err != nil {
		logger.Fatalf("rules: %v", err)
	}

	svc := game.NewService(game.Options{
		Rules:     rules,
		Catalog:   catalog,
		Tokens:    signer,
		Repo:      repo,
		Publisher: actions,
		Logger:    logrus.NewEntry(logger),
	})

	// pick up games that were running when the last process stopped
	active, err := repo.LoadActiveGames(ctx)
	if err != nil {
		logger.Fatalf("load games: %v", err)
	}
	if _, err := svc.Restore(ctx, active); err != nil {
		logger.Fatalf("restore games: %v", err)
	}
	logger.Infof("%d games in memory", svc.Games().Len())

	go pruneLoop(ctx, svc, cfg.FinishedGameTTL)

	server := &http.Server{
		Handler:      handlers.NewRouter(svc, logger),
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
	}

	l, err := net.Listen("tcp", ":"+cfg.Port)
	if err != nil {
		logger.Fatalf("failed to listen: %v", err)
	}
	logger.Infof("listening on %s", l.Addr())

	errc := make(chan error, 1)
	go func() {
		errc <- server.Serve(l)
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("failed to serve: %v", err)
		}
	case <-ctx.Done():
		logger.Info("terminating")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Errorf("shutdown: %v", err)
		}
	}
}

// pruneLoop drops finished games from memory once they are older than ttl.
func pruneLoop(ctx context.Context, svc *game.Service, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	ticker := time.NewTicker(ttl / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			svc.PruneFinished(ttl)
		}
	}
}
