package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Santhosh-Rony/growdigo-qdrant/internal/api"
	"github.com/Santhosh-Rony/growdigo-qdrant/internal/api/middleware"
	"github.com/Santhosh-Rony/growdigo-qdrant/internal/config"
	"github.com/Santhosh-Rony/growdigo-qdrant/internal/logger"
	"github.com/Santhosh-Rony/growdigo-qdrant/internal/repository"
	"github.com/Santhosh-Rony/growdigo-qdrant/internal/repository/redis"
	"github.com/Santhosh-Rony/growdigo-qdrant/internal/service"
)

const storeConnectTimeout = 30 * time.Second

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// newLimiter connects to Redis when rate limiting is enabled. The returned
// limiter is nil when it is disabled.
func newLimiter(ctx context.Context, cfg *config.Config) (middleware.Limiter, io.Closer, error) {
	if !cfg.RateLimit.Enabled {
		return nil, nopCloser{}, nil
	}

	redisClient, err := redis.NewClient(ctx, cfg.Redis)
	if err != nil {
		return nil, nil, err
	}

	log.Info().Int("requests_per_minute", cfg.RateLimit.RequestsPerMinute).Msg("Rate limiting enabled")
	return redis.NewRateLimiter(redisClient, cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst), redisClient, nil
}

func main() {
	// Load .env file - try multiple locations
	envPaths := []string{".env", "../.env", "../../.env"}
	envLoaded := false
	for _, p := range envPaths {
		if err := godotenv.Load(p); err == nil {
			fmt.Printf("Loaded .env from: %s\n", p)
			envLoaded = true
			break
		}
	}

	// Console logger until the configured one is ready
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	if !envLoaded {
		log.Debug().Msg(".env file not found in any standard location")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logCloser, err := logger.Setup(cfg.Logging, cfg.App.Environment)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up logging")
	}
	defer logCloser.Close()

	log.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Str("backend", cfg.Store.Backend).
		Str("collection", cfg.Store.Collection).
		Msg("Starting conversation API server")

	// Initialize conversation store. The backend is connected on first use so
	// the server starts, and reports through /health, while it is down.
	store := repository.DefaultRegistry().OpenLazy(cfg)
	defer func() {
		if err := store.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close conversation store")
		}
	}()

	conversationService := service.NewConversationService(store)

	// Best effort: the server starts even when the store is unavailable
	ctx, cancel := context.WithTimeout(context.Background(), storeConnectTimeout)
	conversationService.Bootstrap(ctx, cfg.Store.Collection)
	cancel()

	// Initialize rate limiter
	limiter, redisCloser, err := newLimiter(context.Background(), cfg)
	if err != nil {
		store.Close()
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisCloser.Close()

	// Initialize router
	router := api.NewRouter(cfg, conversationService, limiter)

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
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
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
