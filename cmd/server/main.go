package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"tictacchec/internal/app"
	"tictacchec/internal/config"
	"tictacchec/internal/lobby"
	"tictacchec/internal/ports/ws"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "", "path to a JSON game config")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	level := zerolog.InfoLevel
	if *debug {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).
		With().Timestamp().Str("service", "tictacchec").Logger()

	if err := run(*configPath, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(configPath string, log zerolog.Logger) error {
	if err := config.LoadGameConfig(configPath); err != nil {
		return err
	}
	cfg := config.GetGameConfig()
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return err
	}
	if log.GetLevel() > zerolog.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	manager := lobby.NewManager(lobby.WithLogger(log.With().Str("component", "lobby").Logger()))
	tokens := app.NewSessionTokens(cfg.SessionSecret, cfg.SessionIssuer, cfg.SessionTTL())
	if !tokens.Enabled() {
		log.Warn().Msg("session secret not set, websocket connections are anonymous")
	}
	server := ws.NewServer(cfg, manager, tokens, log.With().Str("component", "ws").Logger())

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", cfg.ListenAddr).Strs("origins", cfg.AllowedOrigins).Msg("listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		// Hijacked websocket connections are not tracked by http.Server.
		server.Shutdown(shutdownCtx)
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
