package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/pdfmarks/internal/api"
	"github.com/dgallion1/pdfmarks/internal/config"
	"github.com/dgallion1/pdfmarks/internal/pipeline"
	"github.com/dgallion1/pdfmarks/internal/store"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize the dump cache, if configured.
	var cache *store.Store
	if cfg.CacheDBPath != "" {
		var err error
		cache, err = store.New(cfg.CacheDBPath)
		if err != nil {
			log.Error("failed to open dump cache", "path", cfg.CacheDBPath, "error", err)
			os.Exit(1)
		}
		version, err := cache.Version(ctx)
		if err != nil {
			log.Warn("failed to read dump cache schema version", "error", err)
		}
		log.Info("dump cache ready", "path", cfg.CacheDBPath, "schema_version", version, "ttl", cfg.CacheTTL)
	}

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(cfg, cache, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		orch.Stop()
		if cache != nil {
			cache.Close()
		}
	}()

	log.Info("starting pdfmarks",
		"port", cfg.Port,
		"workers", cfg.WorkerCount,
		"max_outline_depth", cfg.MaxOutlineDepth,
		"max_outline_nodes", cfg.MaxOutlineNodes,
	)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	<-stopped
}
