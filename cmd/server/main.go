package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chat-relay/auth"
	"chat-relay/history"
	"chat-relay/jobs"
	"chat-relay/moderation"
	"chat-relay/observability"
	"chat-relay/registry"
	"chat-relay/repositories"
	"chat-relay/router"
	"chat-relay/server"
	"chat-relay/workers"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and centralizes error reporting.
// This pattern is preferred over calling os.Exit or panic directly because:
// 1. It ensures all 'defer' statements (like database cleanup) are executed before the program exits.
// 2. It improves testability by decoupling the initialization logic from the main entry point.
// 3. It provides a structured way to handle graceful shutdowns for HTTP and background workers.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	replacement, err := CharacterRune(config.ModerationCharReplacement)
	if err != nil {
		return err
	}

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	//  Defer will be executed before run() returned anything to main()
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Repositories & Domain Services
	messageRepository, err := repositories.NewMessageRepository(db, log)
	if err != nil {
		return fmt.Errorf("message repository failed: %w", err)
	}
	defer messageRepository.Close()
	groupRepository := repositories.NewGroupRepository(db)
	userRepository := repositories.NewUserRepository(db)

	moderator, err := moderation.NewModerator(config.CensoredWords(), replacement)
	if err != nil {
		return fmt.Errorf("moderator failed: %w", err)
	}

	reg := registry.NewRegistry(log)
	historyService := history.NewService(messageRepository)
	messageRouter := router.NewRouter(log, reg, messageRepository, groupRepository,
		historyService, moderator, config.HistoryReplayLimit)
	tokens := auth.NewTokenManager(config.JWTSecret, config.JWTIssuer, config.AuthTokenDuration)

	monitor, err := observability.NewMonitor(log)
	if err != nil {
		return fmt.Errorf("monitor failed: %w", err)
	}

	// 4. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 5. Background Workers
	sup := workers.NewSupervisor(log)
	sup.Add(jobs.NewArchiveWorker(log, messageRepository, config.ArchiveCadence, config.ArchiveRetention))
	go sup.Run(ctx)

	// 6. HTTP Server Setup
	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	srv := server.NewServer(log, tokens, messageRouter, historyService,
		groupRepository, userRepository, reg, monitor, config.SessionBufferSize)
	httpServer := &http.Server{
		Addr:    address,
		Handler: srv.Routes(),
	}

	// Use an error channel to capture ListenAndServe() issues
	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", address, "at", time.Now().UTC())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// 7. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 8. Final Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)
	sup.Stop()
	log.Info("Program stopped cleanly")

	return nil
}
