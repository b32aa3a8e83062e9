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

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"chat-backend/auth"
	"chat-backend/infrastructure/server"
	"chat-backend/internal"
	"chat-backend/moderation"
	"chat-backend/observability"
	"chat-backend/realtime"
	"chat-backend/repositories"
	"chat-backend/services"
)

// Exit codes to provide meaningful status to the operating system or
// service manager.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run initializes all components and manages the server lifecycle. The
// wrapper keeps deferred cleanups running before the process exits and
// decouples initialization from the entry point.
func run() (int, error) {
	// 1. Configuration & logger
	_ = godotenv.Load()

	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	charReplacement, err := config.CharacterRune()
	if err != nil {
		return exitConfig, err
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: config.SlogLevel(),
	}))

	// 2. Storage (BadgerDB + Bluge)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	blugeWriter, err := bluge.OpenWriter(bluge.DefaultConfig(config.BlugeFilepath))
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to open bluge writer: %w", err)
	}
	defer func() {
		logger.Info("Closing Bluge...")
		_ = blugeWriter.Close()
	}()

	userRepository, err := repositories.NewUserRepository(db)
	if err != nil {
		return exitRuntime, err
	}
	defer userRepository.Close()

	roomRepository, err := repositories.NewRoomRepository(db)
	if err != nil {
		return exitRuntime, err
	}
	defer roomRepository.Close()

	messageRepository, err := repositories.NewMessageRepository(db, blugeWriter, logger, config.SearchLimit)
	if err != nil {
		return exitRuntime, err
	}
	defer messageRepository.Close()

	// 3. Realtime core
	promRegistry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(promRegistry)

	words, err := moderation.LoadEmbeddedWords()
	if err != nil {
		return exitRuntime, fmt.Errorf("loading censored words: %w", err)
	}
	moderator, err := moderation.NewModerator(words, charReplacement)
	if err != nil {
		return exitRuntime, fmt.Errorf("building moderator: %w", err)
	}
	logger.Info(fmt.Sprintf("%d censored words loaded", len(words)))

	registry := realtime.NewRegistry(logger, metrics)
	broadcaster := realtime.NewBroadcaster(registry, roomRepository, messageRepository, moderator, logger)

	// 4. Services & transport
	tokens := auth.NewTokenManager(config.JWTSecret, config.JWTIssuer, config.JWTAudience, config.TokenValidity)
	gate := auth.NewGate(roomRepository)
	authService := services.NewAuthService(userRepository, tokens)
	chatService := services.NewChatService(userRepository, roomRepository, messageRepository, broadcaster, moderator)

	sessionCfg := realtime.SessionConfig{
		SendBuffer:   config.SendBuffer,
		WriteTimeout: config.WriteTimeout,
		PongWait:     config.PongWait,
		PingInterval: config.PingInterval,
	}
	srv := server.NewServer(logger, authService, chatService, broadcaster, registry,
		gate, tokens, metrics,
		promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}),
		sessionCfg, config.Origins())

	// 5. Context & signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	httpServer := &http.Server{Addr: address, Handler: srv.Router()}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", "address", address, "at", time.Now().UTC())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 6. Wait for stop or error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errChan:
		return exitRuntime, err
	}

	// 7. Graceful shutdown: stop accepting requests, then close the
	// live sockets so their cleanup paths unregister them.
	logger.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown incomplete", "error", err)
	}
	registry.CloseAll()
	logger.Info("Server stopped cleanly")

	return exitOK, nil
}
