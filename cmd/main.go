package main

import (
	"chat-relay/ai"
	"chat-relay/api"
	"chat-relay/auth"
	"chat-relay/contract"
	"chat-relay/moderation"
	"chat-relay/runtime"
	"chat-relay/runtime/workers"
	"chat-relay/services"
	"chat-relay/transport/ws"
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run wires every component and owns the server lifecycle.
// Returning instead of exiting lets the deferred cleanups run.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if err := config.validate(); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Storage
	st, err := openStore(config, log)
	if err != nil {
		return err
	}
	defer st.close()

	// 4. Bot & Reactor
	completer, closeCompleter, err := newCompleter(ctx, config, log)
	if err != nil {
		return err
	}
	defer closeCompleter()

	bot := runtime.NewBotAdapter(completer, config.BotName, config.BotTimeout, log)
	reactor := runtime.NewReactor(log, st.users, st.messages, bot, config.ReactorBufferSize)
	if config.ModerationEnabled {
		moderator, err := newModerator(config, log)
		if err != nil {
			return err
		}
		reactor.WithModerator(moderator)
	}

	// 5. Supervision
	sup := workers.NewSupervisor(log, config.RestartInterval)
	sup.Add(
		reactor,
		workers.NewHeartbeatWorker(log, reactor, config.HeartbeatInterval),
	)
	supervised := make(chan struct{})
	go func() {
		sup.Run(ctx)
		close(supervised)
	}()

	// 6. HTTP & WebSocket
	issuer := auth.NewTokenIssuer(config.JWTSecret, config.AuthTokenDuration)
	accounts := services.NewAccountService(log, st.users, issuer, reactor)
	socket := ws.NewHandler(ctx, log, issuer, st.users, reactor, config.ConnectionBufferSize, config.AllowedOrigin)

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{
		Addr:              address,
		Handler:           api.NewRouter(api.NewAccountHandler(log, accounts), issuer, socket, func() any { return reactor.Stats() }),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", address, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// 7. Wait for Stop or Error
	var serveErr error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case serveErr = <-errChan:
	}

	// 8. Final Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP shutdown incomplete", "error", err)
	}
	stop()
	sup.Stop()
	<-supervised
	log.Info("Program stopped cleanly")

	return serveErr
}

func newCompleter(ctx context.Context, config Config, log *slog.Logger) (contract.ICompleter, func(), error) {
	if config.BotProvider == providerGemini {
		gemini, err := ai.NewGeminiCompleter(ctx, config.GeminiAPIKey, config.BotModel, log)
		if err != nil {
			return nil, nil, err
		}
		return gemini, func() { _ = gemini.Close() }, nil
	}
	client := &http.Client{Timeout: config.BotTimeout}
	return ai.NewOpenAICompleter(config.BotEndpoint, config.BotModel, client, log), func() {}, nil
}

func newModerator(config Config, log *slog.Logger) (*moderation.Moderator, error) {
	data, err := moderation.NewCensoredLoader(moderation.CensoredFolder).LoadAll("censored")
	if err != nil {
		return nil, fmt.Errorf("censored words loading failed: %w", err)
	}
	log.Info("Moderation enabled", "languages", data.Languages, "words", len(data.Words))
	return moderation.NewModerator(data.Words, config.replacementRune(), log)
}
