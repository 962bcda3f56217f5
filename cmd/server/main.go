package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"roomchat/auth"
	"roomchat/gateway"
	"roomchat/internal"
	"roomchat/observability"
	"roomchat/repositories"
	"roomchat/rest"
	"roomchat/runtime"
	"roomchat/services"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting, so every defer (database close, JWKS
// shutdown) executes before the process exits.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Database (BadgerDB) for the conversation store
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.INFO))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Core components: directory, stores, registry, verifier
	directory := repositories.NewRoomDirectory()
	for _, name := range config.SeedRooms() {
		directory.Create(name)
	}
	log.Info("Room directory seeded", "rooms", directory.List())

	stats := observability.NewPipelineStats()
	registry := runtime.NewRegistry(log, stats)
	registry.InitRooms(directory.List())

	store := repositories.NewMessageStore(directory, log)
	conversations := repositories.NewConversationStore(db, log)

	verifier := auth.NewVerifier(log, config.JwksURL, config.JwtIssuer, config.JwtAudience)
	defer verifier.Close()

	// 4. Transport: realtime gate + REST boundary
	pipeline := gateway.NewPipeline(log, store, registry, stats)
	gate := gateway.NewGate(log, verifier, directory, registry, pipeline, config.ConnectionBufferSize)

	service := services.NewChatService(directory, store, conversations)
	middleware := rest.NewMiddleware(log, verifier)
	mux := rest.NewHandler(log, service).Routes(middleware)
	mux.Handle("GET /ws", gate)

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{Addr: address, Handler: mux}

	// 5. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting server", "address", address, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	// 6. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 7. Final Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("Forced shutdown", "error", err)
	}

	log.Info("Final pipeline counters", "stats", stats.Snapshot())
	log.Info("Program stopped cleanly")
	return nil
}
