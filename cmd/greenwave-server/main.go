// Package main implements the greenwave REST API server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/greenwave-dev/greenwave/pkg/api"
	"github.com/greenwave-dev/greenwave/pkg/auth"
	"github.com/greenwave-dev/greenwave/pkg/cache"
	"github.com/greenwave-dev/greenwave/pkg/store"
)

const serverVersion = "1.2.0"

var (
	port      = flag.String("port", "", "Port for the API server (or set PORT)")
	dbPath    = flag.String("db", "", "Path to the SQLite database file (or set GREENWAVE_DB)")
	redisAddr = flag.String("redis", "", "Redis address for the analysis cache (or set REDIS_ADDR)")
	verbose   = flag.Bool("verbose", false, "Enable verbose logging")
	version   = flag.Bool("version", false, "Show version")
)

func main() {
	flag.Parse()

	if *version {
		fmt.Println("greenwave-server v" + serverVersion)
		return
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if *port == "" {
		*port = os.Getenv("PORT")
	}
	if *port == "" {
		*port = "8080"
	}
	if *dbPath == "" {
		*dbPath = os.Getenv("GREENWAVE_DB")
	}
	if *dbPath == "" {
		*dbPath = "greenwave.db"
	}
	if *redisAddr == "" {
		*redisAddr = os.Getenv("REDIS_ADDR")
	}

	settings := auth.SettingsFromEnv()

	logger.Info("Server configuration",
		"port", *port,
		"verbose", *verbose,
		"db", *dbPath,
		"redis", *redisAddr,
		"auth_enabled", settings.ProviderURL != "")

	st, err := store.Open(context.Background(), *dbPath, logger)
	if err != nil {
		logger.Error("Failed to open store", "db", *dbPath, "error", err)
		return
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Error("Failed to close store", "error", err)
		}
	}()

	// Redis is an accelerator, not a dependency: if it is down the API still
	// serves, recomputing analyses on every request.
	var ca *cache.Cache
	if *redisAddr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		ca, err = cache.New(ctx, *redisAddr, logger)
		cancel()
		if err != nil {
			logger.Error("Redis unavailable, analyses will be recomputed on every request",
				"addr", *redisAddr, "error", err)
		} else {
			defer func() {
				if err := ca.Close(); err != nil {
					logger.Error("Failed to close cache", "error", err)
				}
			}()
		}
	}

	server := api.New(st, ca, auth.New(settings, logger), logger, serverVersion)

	srv := &http.Server{
		Addr:              ":" + *port,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("Server starting", "port", *port)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Shutdown failed", "error", err)
	}
	logger.Info("Server stopped")
}
