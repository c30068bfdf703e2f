package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog"

	"gameroom-server/internal/config"
	"gameroom-server/internal/history"
	"gameroom-server/internal/logging"
	"gameroom-server/internal/server"
)

const (
	ReleaseVersion = "1.0.0"
	historySize    = 500
	shutdownGrace  = 30 * time.Second
)

func gracefulShutdown(ctx context.Context, stop context.CancelFunc, logger zerolog.Logger, customServer *server.Server, httpServer *http.Server, done chan<- struct{}) {
	defer close(done)

	<-ctx.Done()
	logger.Info().Msg("Shutdown signal received, press Ctrl+C again to force")
	stop()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	// Close sockets with StatusGoingAway before the listener goes
	if err := customServer.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Error during custom shutdown")
	}

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("HTTP server forced to shutdown")
	}
}

func openHistory(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (history.Store, error) {
	if cfg.DatabaseURL == "" {
		logger.Info().Msg("No database configured, keeping match history in memory")
		return history.NewMemory(historySize), nil
	}
	return history.NewPostgres(ctx, cfg.DatabaseURL, logger)
}

func run(ctx context.Context, cfg *config.Config) error {
	if cfg.Version {
		fmt.Printf("gameroom-server v%s\n", ReleaseVersion)
		return nil
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openHistory(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open match history: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close match history")
		}
	}()

	customServer, httpServer := server.NewServer(cfg, ReleaseVersion, store, logger)

	done := make(chan struct{})
	go gracefulShutdown(ctx, stop, logger, customServer, httpServer, done)

	logger.Info().Str("addr", httpServer.Addr).Str("version", ReleaseVersion).Msg("Listening")

	err = httpServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		stop()
		<-done
		return fmt.Errorf("http server error: %w", err)
	}

	<-done
	logger.Info().Msg("Graceful shutdown complete.")
	return nil
}

func main() {
	cfg := &config.Config{}

	cmd := config.NewCommand(cfg, ReleaseVersion, run)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
