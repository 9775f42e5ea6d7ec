package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/scalecode-solutions/driftchat/config"
	"github.com/scalecode-solutions/driftchat/matching"
	"github.com/scalecode-solutions/driftchat/middleware"
)

const currentVersion = "0.1.0"

var buildstamp = "dev"

func main() {
	configFile := flag.String("config", "driftchat.yaml", "Path to config file")
	flag.Parse()

	fmt.Printf("driftchat v%s (build: %s)\n", currentVersion, buildstamp)

	// Load configuration; a missing file means run with defaults.
	var cfg *config.Config
	if _, err := os.Stat(*configFile); err == nil {
		cfg, err = config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
	} else {
		cfg = config.Default()
	}

	logger, err := buildLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Initialize the engine
	queue := matching.New(cfg.Matching.FallbackAny)
	hub := NewHub(queue, logger)
	presence := NewPresenceManager(hub, logger)
	hub.SetPresence(presence)
	go hub.Run()

	handlers := NewHandlers(hub, presence, cfg, logger)

	// Initialize server
	srv := NewServer(hub, cfg, handlers, logger)
	mux := http.NewServeMux()
	srv.SetupRoutes(mux)

	corsMiddleware := middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})
	handler := corsMiddleware(mux)

	// Start HTTP server with timeouts
	httpServer := &http.Server{
		Addr:         cfg.Server.Listen,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		logger.Info("listening",
			zap.String("addr", cfg.Server.Listen),
			zap.Bool("fallback_any", cfg.Matching.FallbackAny))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer shutdownCancel()

	// Shutdown hub (closes WebSocket connections)
	hub.Shutdown()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", zap.Error(err))
		httpServer.Close() // Force close if graceful shutdown fails
	}

	logger.Info("server stopped")
}
