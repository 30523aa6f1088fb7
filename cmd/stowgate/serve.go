package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sagarc03/stowgate"
	"github.com/sagarc03/stowgate/cache"
	"github.com/sagarc03/stowgate/config"
	gatewayhttp "github.com/sagarc03/stowgate/http"
	"github.com/sagarc03/stowgate/metrics"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP gateway",
	Long:  `Start the Stowgate HTTP gateway in front of the configured object store.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Int("port", 5708, "HTTP server port (env: STOWGATE_SERVER_PORT)")
	serveCmd.Flags().Int("metrics-port", 0, "Prometheus metrics port, 0 disables (env: STOWGATE_SERVER_METRICS_PORT)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	gateway, err := stowgate.NewGateway(store, stowgate.GatewayConfig{
		PathPrefix:       cfg.Server.PathPrefix,
		IndexFile:        cfg.Server.IndexFile,
		NotFoundFile:     cfg.Server.NotFoundFile,
		DirectoryListing: cfg.Server.DirectoryListing,
		HideHiddenFiles:  cfg.Server.HideHiddenFiles,
	})
	if err != nil {
		return fmt.Errorf("create gateway: %w", err)
	}

	m := metrics.New()

	handlerConfig := gatewayhttp.HandlerConfig{
		AllowedOrigin: cfg.Server.AllowedOrigins,
		CacheControl:  cfg.Server.CacheControl,
		CORS:          cfg.CORS,
		Metrics:       m,
	}

	if cfg.Cache.Enabled {
		responseCache, err := cache.NewMemory(ctx, cache.Config{
			TTL:          time.Duration(cfg.Cache.TTL) * time.Second,
			MaxSizeMB:    cfg.Cache.MaxSizeMB,
			MaxEntrySize: int(cfg.Cache.MaxEntrySize),
		})
		if err != nil {
			return fmt.Errorf("create response cache: %w", err)
		}
		defer func() { _ = responseCache.Close() }()

		handlerConfig.Cache = responseCache
		handlerConfig.MaxCacheBody = cfg.Cache.MaxEntrySize
		slog.Info("response cache enabled", "ttl", cfg.Cache.TTL, "max_size_mb", cfg.Cache.MaxSizeMB)
	}

	handler := gatewayhttp.NewHandler(&handlerConfig, gateway)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	var metricsServer *http.Server
	if cfg.Server.MetricsPort > 0 {
		mux := http.NewServeMux()
		mux.Handle("/metrics", m.Handler())
		metricsServer = &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.MetricsPort),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			slog.Info("starting metrics server", "addr", metricsServer.Addr)
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server error", "err", err)
			}
		}()
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

		select {
		case <-sigCh:
		case <-ctx.Done():
		}

		slog.Info("shutting down server...")
		timeout := time.Duration(cfg.Server.ShutdownTimeout) * time.Second
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "err", err)
		}
		if metricsServer != nil {
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				slog.Error("metrics server shutdown error", "err", err)
			}
		}
		cancel()
	}()

	slog.Info("starting server",
		"addr", addr,
		"store", cfg.Store.Type,
		"path_prefix", cfg.Server.PathPrefix,
		"index_file", cfg.Server.IndexFile,
		"directory_listing", cfg.Server.DirectoryListing,
	)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}
