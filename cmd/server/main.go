package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/apartalo/live-commerce/internal/adapter/handler"
	"github.com/apartalo/live-commerce/internal/adapter/messenger"
	"github.com/apartalo/live-commerce/internal/adapter/sse"
	"github.com/apartalo/live-commerce/internal/adapter/storage"
	"github.com/apartalo/live-commerce/internal/config"
	"github.com/apartalo/live-commerce/internal/core/live"
	"github.com/apartalo/live-commerce/internal/core/service"
	"github.com/apartalo/live-commerce/internal/core/store"
)

func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Logger()
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// MySQL
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("open mysql")
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("ping mysql")
	}
	log.Info().Msg("connected to mysql")

	// Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		PoolSize: cfg.RedisPoolSize,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatal().Err(err).Msg("ping redis")
	}
	log.Info().Msg("connected to redis")

	// Adapters
	inventory := storage.NewRedisAdapter(rdb)
	mysqlStore := storage.NewMySQLAdapter(db)
	outbound := messenger.NewLogMessenger(log)
	hub := sse.NewHub(log)

	// Core state
	sessions := store.NewSessionStore(log)
	carts := store.NewCartStore()
	registry := live.NewRegistry(log)
	ledger := live.NewLedger(log)
	stock := service.NewStockCoordinator(inventory, cfg.ReserveTimeout, log)

	conversation := service.NewConversation(service.ConversationDeps{
		Sessions:  sessions,
		Carts:     carts,
		Registry:  registry,
		Ledger:    ledger,
		Stock:     stock,
		Inventory: inventory,
		Orders:    mysqlStore,
		Clients:   mysqlStore,
		Sellers:   mysqlStore,
		Carriers:  mysqlStore,
		Messenger: outbound,
		Catalog:   hub,

		LiveTTL:      cfg.LiveTTL,
		PlatformName: cfg.PlatformName,
		Logger:       log,
	})

	broadcast := service.NewBroadcast(registry, ledger, inventory, mysqlStore, outbound, hub, log)

	// Background sweepers
	go registry.RunSweeper(ctx, cfg.LiveSweepInterval)
	go sessions.RunSweeper(ctx, cfg.SessionSweepInterval, cfg.SessionInactivity)

	// HTTP server
	httpHandler := handler.NewHTTPHandler(conversation, broadcast, ledger, hub, log)
	httpServer := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: httpHandler.Router(),
	}

	go func() {
		log.Info().Str("addr", cfg.ServerAddr).Msg("http server listening")
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			log.Error().Err(err).Msg("http server error")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
	log.Info().Msg("http server stopped")

	hub.Stop()
	rdb.Close()
	db.Close()
	log.Info().Msg("connections closed")
}
