// Command slotify-stub serves a local stand-in for the Slotify booking API
// with seeded demo businesses, for developing and testing the client.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/slotify/internal/api/router"
	"github.com/wolfman30/slotify/internal/app/bootstrap"
	appconfig "github.com/wolfman30/slotify/internal/config"
	httpmiddleware "github.com/wolfman30/slotify/internal/http/middleware"
	"github.com/wolfman30/slotify/internal/stubapi"
	"github.com/wolfman30/slotify/pkg/logging"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := bootstrap.BuildLogger(cfg)
	logger.Info("starting slotify stub API",
		"port", cfg.StubPort,
		"store", cfg.StubStore,
	)

	srv, cleanup, err := setupServer(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to set up server", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	if token, err := httpmiddleware.IssueOwnerToken(cfg.StubJWTSecret, stubapi.DemoOwnerID, stubapi.DemoOwnerEmail, 24*time.Hour); err == nil {
		logger.Info("demo owner token (export as SLOTIFY_TOKEN)", "token", token)
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

// setupServer seeds the store and builds the HTTP server. The returned
// cleanup releases the store's connections.
func setupServer(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*http.Server, func(), error) {
	store, closeStore := bootstrap.BuildStubStore(ctx, cfg, logger)
	catalog := stubapi.DemoCatalog()

	seeded, err := stubapi.Seed(ctx, store, catalog, time.Now(), cfg.StubSeedDays)
	if err != nil {
		closeStore()
		return nil, nil, fmt.Errorf("seed store: %w", err)
	}
	logger.Info("seeded time slots", "count", seeded, "days", cfg.StubSeedDays)

	handler := router.New(&router.Config{
		Logger:             logger,
		Handler:            stubapi.NewHandler(catalog, store, logger),
		OwnerJWTSecret:     cfg.StubJWTSecret,
		MetricsHandler:     setupMetrics(),
		CORSAllowedOrigins: cfg.StubCORS,
		RateLimit:          cfg.StubRateLimit,
		RateBurst:          cfg.StubRateBurst,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.StubPort,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return srv, closeStore, nil
}

func setupMetrics() http.Handler {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
