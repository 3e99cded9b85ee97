package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/modchat/modchat/internal/api"
	"github.com/modchat/modchat/internal/checkpoint"
	checkpointmongo "github.com/modchat/modchat/internal/checkpoint/mongo"
	checkpointmysql "github.com/modchat/modchat/internal/checkpoint/mysql"
	checkpointpostgres "github.com/modchat/modchat/internal/checkpoint/postgres"
	checkpointsqlite "github.com/modchat/modchat/internal/checkpoint/sqlite"
	"github.com/modchat/modchat/internal/config"
	"github.com/modchat/modchat/internal/logging"
	"github.com/modchat/modchat/internal/repository/postgres"
	"github.com/modchat/modchat/internal/repository/redis"
)

func main() {
	// Load .env file - try multiple locations
	envPaths := []string{".env", "../.env", "../../.env"}
	for _, p := range envPaths {
		if err := godotenv.Load(p); err == nil {
			fmt.Printf("Loaded .env from: %s\n", p)
			break
		}
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	if err := logging.Setup(cfg.Logging); err != nil {
		log.Fatal().Err(err).Msg("Failed to set up logging")
	}

	log.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Msg("Starting chat gateway")

	// Initialize database when one is configured
	var db *postgres.DB
	if cfg.Database.Enabled() {
		if err := postgres.RunMigrations(cfg.Database.URL, "file://migrations"); err != nil {
			log.Fatal().Err(err).Msg("Failed to run migrations")
		}

		db, err = postgres.NewDB(context.Background(), cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer db.Close()
	}

	// Initialize Redis when one is configured
	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.NewClient(cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer redisClient.Close()
	}

	// Open the conversation checkpoint store
	registry := checkpoint.NewRegistry()
	registry.Register("sqlite", checkpointsqlite.New)
	registry.Register("postgres", checkpointpostgres.New)
	registry.Register("postgresql", checkpointpostgres.New)
	registry.Register("mysql", checkpointmysql.New)
	registry.Register("mongodb", checkpointmongo.New)

	store, err := registry.Open(context.Background(), cfg.Checkpoint.EffectiveDSN())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open checkpoint store")
	}
	defer store.Close()

	// Initialize router
	router := api.NewRouter(cfg, db, redisClient, store)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Msgf("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
