/*
Package main is the entry point for the CampusHub chat server.

It is responsible for loading configuration, initializing the global logging system,
wiring the message store, user directory and attachment storage, starting the chat Hub,
setting up the HTTP server, and gracefully handling operating system interrupt signals
(SIGINT, SIGTERM) to ensure a smooth server shutdown.
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"campushub/internal/app/chat"
	"campushub/internal/app/db"
	"campushub/internal/app/storage"
	"campushub/internal/app/user"
	"campushub/internal/configs"
	"campushub/internal/handler"
	"campushub/internal/pkg/logx"
)

func main() {
	// A .env file is optional; real environment variables take precedence.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to read .env file: %v\n", err)
		os.Exit(1)
	}

	// Load configuration from environment variables
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	logx.InitGlobalLogger(cfg.IsDevelopment())
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Dur("persist_timeout", cfg.PersistTimeout).
		Int("notification_excerpt", cfg.NotificationExcerpt).
		Msg("Configuration loaded successfully")

	// Create a context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Message store and user directory
	var (
		store     chat.MessageStore
		directory user.Directory
	)
	if cfg.DatabaseDSN != "" {
		pool, err := db.NewPool(ctx, cfg.DatabaseDSN, db.DefaultPoolSettings)
		if err != nil {
			logx.Fatal(err, "Failed to connect to database")
		}
		defer pool.Close()

		store = db.NewMessageStore(pool)
		directory = db.NewUserDirectory(pool)
		logx.Info("Using PostgreSQL message store")
	} else {
		store = chat.NewMemoryStore()
		directory = user.NewStaticDirectory()
		logx.Warn("DATABASE_URL not set, using in-memory message store. Messages are lost on restart.")
	}

	// Attachment storage is optional
	var storageService storage.StorageService
	storageCfg := storage.ServiceConfig{
		S3BucketName:      cfg.S3BucketName,
		S3Endpoint:        cfg.S3Endpoint,
		S3AccessKeyID:     cfg.S3AccessKeyID,
		S3SecretAccessKey: cfg.S3SecretAccessKey,
	}
	if storageCfg.Enabled() {
		storageService, err = storage.NewStorageService(ctx, storageCfg)
		if err != nil {
			logx.Fatal(err, "Failed to initialize attachment storage")
		}
	} else {
		logx.Info("S3 storage not configured, attachments disabled")
	}

	// Chat service and real-time Hub
	service := chat.NewService(store, directory)
	hub := chat.NewHub(service, chat.HubConfig{
		PersistTimeout: cfg.PersistTimeout,
		ExcerptLength:  cfg.NotificationExcerpt,
	})

	// Setup HTTP server and routes
	limiters := handler.NewRateLimiters()
	router := handler.Router(&handler.AppDeps{
		Hub:            hub,
		Chat:           service,
		Config:         cfg,
		StorageService: storageService,
		Limiters:       limiters,
	})

	serverAddr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logx.Info(fmt.Sprintf("CampusHub chat server starting on http://localhost%s", serverAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logx.Fatal(err, "Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with a timeout of 5 seconds.
	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Error(err, "Server forced to shutdown")
	}

	// Hijacked WebSocket connections are not covered by server.Shutdown.
	hub.Shutdown()
	limiters.Stop()

	logx.Info("Server gracefully stopped.")
}
