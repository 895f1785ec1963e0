package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"taskflow/internal/config"
	"taskflow/internal/handlers"
	"taskflow/internal/recordstore"
	"taskflow/internal/repository"
	"taskflow/internal/store"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "config.yaml", "server configuration file")
	flag.Parse()

	cfg := config.MustLoad(configPath)
	log := newLogger(cfg.LogLevel)

	// Initialize store
	s, err := openStore(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.Backend).Msg("failed to initialize store")
	}
	defer s.Close()

	tasks := repository.NewTaskRepository(s, log)
	categories := repository.NewCategoryRepository(s, log)
	h := handlers.New(tasks, categories, s, log)

	server := http.Server{
		Addr:              cfg.HTTP.Address,
		ReadHeaderTimeout: cfg.HTTP.Timeout,
		Handler:           handlers.NewRouter(h, cfg.HTTP.Timeout),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("address", server.Addr).Str("backend", cfg.Backend).Msg("starting server")
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown requested")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server stopped unexpectedly")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
	}
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stdout).Level(lvl).With().Timestamp().Logger()
}

func openStore(cfg config.Config, log zerolog.Logger) (store.Store, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return store.NewMemoryStore(store.WithLatency(cfg.MemoryLatency)), nil
	case config.BackendSQLite:
		// Ensure data directory exists
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		return store.NewSQLiteStore(cfg.DBPath)
	case config.BackendRemote:
		client, err := recordstore.NewClient(cfg.Records.BaseURL, cfg.Records.APIKey, cfg.Records.Timeout, log)
		if err != nil {
			return nil, err
		}
		return store.NewRecordStore(client, store.Tables{
			Task:     cfg.Records.TaskTable,
			Category: cfg.Records.CategoryTable,
		}, log), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
