// main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"cinema-ledger/cmd"
	"cinema-ledger/internal/data/memory"
	"cinema-ledger/internal/data/repository"
	"cinema-ledger/internal/wire"
	"cinema-ledger/pkg/cache"
	"cinema-ledger/pkg/database"
	"cinema-ledger/pkg/utils"

	"go.uber.org/zap"
)

func main() {
	// Load config
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App.LogPath, config.App.Name, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.String("storage", config.App.StorageDriver),
		zap.Bool("debug", config.App.Debug),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clock := utils.SystemClock{}

	var repos *repository.Repository
	switch config.App.StorageDriver {
	case "memory":
		logger.Warn("Using in-memory storage, data is lost on exit")
		repos = memory.NewRepository(clock)
	default:
		db, err := database.InitDB(config.Database)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer db.Close()

		logger.Info("Database connected successfully")

		if config.Database.AutoMigrate {
			if err := database.RunMigrations(ctx, db, logger); err != nil {
				logger.Fatal("Failed to run migrations", zap.Error(err))
			}
		}

		repos = repository.NewRepository(db, database.TxConfig{
			LockTimeout:  config.Database.LockTimeout,
			MaxRetries:   config.Database.TxMaxRetries,
			RetryBackoff: config.Database.TxRetryBackoff,
		}, logger)
	}

	var listings cache.Cache = cache.NewNoop()
	if config.Cache.RedisAddr != "" {
		client, err := cache.NewRedisClient(config.Cache)
		if err != nil {
			logger.Fatal("Failed to connect to redis", zap.Error(err))
		}
		defer client.Close()

		listings = cache.NewRedisCache(client, config.App.Name, config.Cache.TTL, logger)
		logger.Info("Listing cache enabled", zap.String("redis", config.Cache.RedisAddr))
	}

	// Wire all dependencies
	app := wire.Wiring(repos, listings, clock, config, logger)

	if err := cmd.APIServer(ctx, app.Router, config.App.Port, logger); err != nil {
		logger.Error("Server stopped with error", zap.Error(err))
	}
	logger.Info("Server stopped")
}
