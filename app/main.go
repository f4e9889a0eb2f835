package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lysyi3m/rss-desk/app/api"
	"github.com/lysyi3m/rss-desk/app/cfg"
	"github.com/lysyi3m/rss-desk/app/database"
	"github.com/lysyi3m/rss-desk/app/favorites"
	"github.com/lysyi3m/rss-desk/app/feed"
	"github.com/lysyi3m/rss-desk/app/reader"
	"github.com/lysyi3m/rss-desk/app/view"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		return
	}

	setupLogger(appCfg.Debug)

	slog.Info("Starting RSS Desk", "version", appCfg.Version, "feed", appCfg.FeedURL, "storage", appCfg.Storage)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kv, err := openStore(ctx, appCfg)
	if err != nil {
		slog.Error("Failed to open storage", "storage", appCfg.Storage, "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := kv.Close(); err != nil {
			slog.Error("Storage close error", "error", err)
		}
	}()

	favs := favorites.NewStore(kv)
	loadedFavorites := favs.Load(ctx)
	slog.Info("Favorites restored", "count", len(loadedFavorites))

	engine := view.NewEngine(time.Local, appCfg.LanguageTag())
	state := reader.NewState(engine, favs)

	fetcher := feed.NewFetcher(nil, appCfg.UserAgent, appCfg.FetchTimeoutDuration())
	loader := reader.NewLoader(appCfg.FeedURL, fetcher, feed.NewParser(), kv, state)

	loadDone := make(chan struct{})
	go func() {
		defer close(loadDone)
		// Failure is recorded in state and served as 503.
		_ = loader.Run(ctx)
	}()

	if !appCfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	handler := api.NewHandler(state, fetcher, feed.NewContentExtractor(), feed.NewGenerator(appCfg.Version))
	server := api.NewServer(handler)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("Shutdown signal received")
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down server gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	stop()
	select {
	case <-loadDone:
	case <-shutdownCtx.Done():
		slog.Warn("Feed load did not finish before shutdown")
	}

	slog.Info("RSS Desk shutdown complete")
}

func setupLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))
}

func openStore(ctx context.Context, appCfg *cfg.Cfg) (database.Store, error) {
	switch appCfg.Storage {
	case cfg.StorageRedis:
		return database.NewRedisStore(ctx, appCfg.RedisAddr, appCfg.RedisPassword, appCfg.RedisDB, appCfg.RedisPrefix)
	case cfg.StorageMemory:
		slog.Warn("Using in-memory storage, favorites will not survive a restart")
		return database.NewMemoryStore(), nil
	default:
		return database.OpenSQLiteStore(appCfg.DBPath)
	}
}
