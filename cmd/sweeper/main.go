package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/coursehive/forumcore/internal/db"
	"github.com/coursehive/forumcore/internal/privileges"
	"github.com/coursehive/forumcore/internal/store"
	"github.com/coursehive/forumcore/internal/topics"
	"github.com/coursehive/forumcore/pkg/config"
	"github.com/coursehive/forumcore/pkg/logging"
	"github.com/coursehive/forumcore/pkg/telemetry"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logging.InitLogger(&cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logging.GetLogger().Sync()

	logger := logging.GetLogger()
	logger.Info("Starting Forumcore Pin-Expiry Sweeper")

	// Initialize telemetry
	telemetryShutdown, err := telemetry.Init(&cfg.Telemetry)
	if err != nil {
		logger.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer telemetryShutdown()

	// Connect to the role and ACL database
	database, err := db.New(&cfg.Database, cfg.Logging.Level)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	// Connect to the topic store
	topicStore, err := store.NewRedis(&cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to topic store", zap.Error(err))
	}
	defer topicStore.Close()

	repo := db.NewRepository(database.DB)
	users := db.NewUserRepository(repo)
	categories := db.NewCategoryRepository(repo)
	data := topics.NewData(topicStore)
	resolver := privileges.NewResolver(data, categories, users, &cfg.Forum, logger)
	manager := topics.NewManager(topicStore, data, resolver, users, &cfg.Forum, logger)

	sweeper := topics.NewSweeper(manager, categories, topicStore, cfg.Forum.PinExpirySweepInterval, logger)

	ctx, cancel := context.WithCancel(context.Background())
	go sweeper.Run(ctx)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down sweeper...")
	cancel()
	// Let an in-flight sweep finish its current topic batch
	time.Sleep(100 * time.Millisecond)
	logger.Info("Sweeper exited")
}
