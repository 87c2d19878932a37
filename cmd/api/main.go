package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/prometheus/client_golang/prometheus"

	"github.com/prodpipe/extractor/api"
	"github.com/prodpipe/extractor/db"
	"github.com/prodpipe/extractor/metrics"
	"github.com/prodpipe/extractor/tracing"
)

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("extractor service initializing", "version", "1.0.0")

	tp, err := tracing.InitTracer("prodpipe-extractor")
	if err != nil {
		logger.Warn("failed to initialize tracer, continuing without tracing", "error", err)
	} else {
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				logger.Error("error shutting down tracer", "error", err)
			}
		}()
		logger.Info("tracing initialized successfully")
	}

	defaultPort := getEnv("PORT", "8080")
	defaultSnapshotPath := getEnv("SNAPSHOT_BASE_PATH", "./snapshots")

	// Command-line flags override environment variables.
	port := flag.String("port", defaultPort, "Server port")
	snapshotPath := flag.String("snapshot-path", defaultSnapshotPath, "Base directory for HTML snapshots")
	disableCORS := flag.Bool("disable-cors", false, "Disable CORS")
	flag.Parse()

	// PostgreSQL is optional: without DB_HOST the service runs
	// stateless (extraction and scoring only).
	var dbConfig db.Config
	dbHost := getEnv("DB_HOST", "")
	if dbHost != "" {
		dbPort := getEnv("DB_PORT", "5432")
		dbUser := getEnv("DB_USER", "prodpipe")
		dbPassword := getEnv("DB_PASSWORD", "prodpipe_dev_pass")
		dbName := getEnv("DB_NAME", "prodpipe")

		dbConfig = db.Config{
			DSN: fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable", dbHost, dbPort, dbUser, dbPassword, dbName),
		}
		logger.Info("using PostgreSQL database", "host", dbHost, "port", dbPort, "database", dbName)
	} else {
		logger.Warn("DB_HOST not set, running without persistence")
	}

	config := api.Config{
		Addr:         ":" + *port,
		DBConfig:     dbConfig,
		SnapshotPath: *snapshotPath,
		CORSEnabled:  !*disableCORS,
	}

	server, err := api.NewServer(config)
	if err != nil {
		logger.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	if server.DB() != nil {
		dbMetrics := metrics.NewDatabaseMetrics(prometheus.DefaultRegisterer, "prodpipe")
		go func() {
			ticker := time.NewTicker(15 * time.Second)
			defer ticker.Stop()
			for range ticker.C {
				dbMetrics.UpdateDBStats(server.DB().DB())
			}
		}()
		logger.Info("database metrics initialized")
	}

	go func() {
		logger.Info("extractor service starting",
			"port", *port,
			"snapshot_path", *snapshotPath,
			"persistence_enabled", server.DB() != nil,
		)

		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down gracefully")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
