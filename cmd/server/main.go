package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"autofill-workbench/internal/config"
	"autofill-workbench/internal/handler"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or could not be loaded: %v", err)
	}

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Wiring
	container := config.NewContainerWithConfig(cfg)
	appLogger := container.Logger

	// Handlers
	sessionHandler := handler.NewSessionHandler(cfg.GetMaxFileSize(), appLogger)
	blobHandler := handler.NewBlobHandler(appLogger)
	sessionMiddleware := handler.NewSessionMiddleware(container.Sessions, cfg.GetSessionTTL(), appLogger)

	// Router
	router := handler.NewRouter(
		sessionHandler,
		blobHandler,
		sessionMiddleware.Middleware,
		cfg.GetAllowedOrigins(),
	)

	server := &http.Server{
		Addr:              ":" + cfg.GetServerPort(),
		Handler:           handler.RequestLogger(appLogger)(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Session janitor
	janitorCtx, stopJanitor := context.WithCancel(context.Background())
	go container.Sessions.Run(janitorCtx, janitorInterval(cfg.GetSessionTTL()))

	// Run server
	go func() {
		appLogger.Info("Server listening",
			"address", server.Addr,
			"api_base", cfg.GetAPIBase(),
			"archive", container.SupabaseClient.Enabled(),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("Server failed to start", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		appLogger.Error("Graceful shutdown failed", err)
		_ = server.Close()
	}
	stopJanitor()
	container.Sessions.Shutdown()

	appLogger.Info("Server exited")
}

// janitorInterval checks for idle sessions a few times per TTL.
func janitorInterval(ttl time.Duration) time.Duration {
	interval := ttl / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	return interval
}
