package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/coursehive/forumcore/internal/api"
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
	logger.Info("Starting Forumcore API Server")

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

	// Wire the engine
	repo := db.NewRepository(database.DB)
	users := db.NewUserRepository(repo)
	categories := db.NewCategoryRepository(repo)
	data := topics.NewData(topicStore)
	resolver := privileges.NewResolver(data, categories, users, &cfg.Forum, logger)
	manager := topics.NewManager(topicStore, data, resolver, users, &cfg.Forum, logger)
	manager.SetTeaserUpdater(topics.NewStoreTeaser(topicStore))

	// Create Gin router
	if cfg.Logging.Level == "DEBUG" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	api.NewRouter(manager, resolver).SetupRoutes(engine)

	// Create HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: engine,
	}

	// Start server in goroutine
	go func() {
		logger.Info("Server starting", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
