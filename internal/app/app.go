package app

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/chatrelay/internal/config"
	"github.com/vovakirdan/chatrelay/internal/core"
	"github.com/vovakirdan/chatrelay/internal/store"
	"github.com/vovakirdan/chatrelay/internal/store/memory"
	"github.com/vovakirdan/chatrelay/internal/store/sqlite"
	transporthttp "github.com/vovakirdan/chatrelay/internal/transport/http"
	"github.com/vovakirdan/chatrelay/internal/transport/tcp"
)

// App wires together core and transport layers.
type App struct {
	relay           *tcp.Server
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	hub             *core.Hub
	history         store.HistoryStore
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg config.Config, logger *zerolog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	history, err := openHistory(cfg)
	if err != nil {
		return nil, fmt.Errorf("init history: %w", err)
	}
	logger.Info().Str("driver", cfg.HistoryDriver).Msg("history store initialized")

	hub := core.NewHub(core.Options{
		MaxUsers:      cfg.MaxUsers,
		OutboundQueue: cfg.OutboundQueue,
		History:       history,
		Logger:        logger,
	})

	a := &App{
		relay:           tcp.NewServer(cfg.Addr, hub, cfg.MaxFrameBytes, logger),
		shutdownTimeout: cfg.ShutdownTimeout,
		hub:             hub,
		history:         history,
		log:             logger,
	}
	if cfg.HTTPAddr != "" {
		a.server = transporthttp.NewServer(hub, cfg, logger)
	}
	return a, nil
}

func openHistory(cfg config.Config) (store.HistoryStore, error) {
	switch cfg.HistoryDriver {
	case store.DriverSQLite:
		return sqlite.New(cfg.HistoryDSN)
	case store.DriverMemory, "":
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown history driver %q", cfg.HistoryDriver)
	}
}

// Run starts the relay and HTTP listeners and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	defer a.cleanup()

	if err := a.relay.Listen(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	relayErr := make(chan error, 1)
	go func() {
		relayErr <- a.relay.Serve(ctx)
	}()

	serverErr := make(chan error, 1)
	if a.server != nil {
		go func() {
			a.log.Info().Str("addr", a.server.Addr).Msg("http listening")
			if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
				serverErr <- err
				return
			}
			serverErr <- nil
		}()
	}

	var runErr error
	select {
	case runErr = <-relayErr:
		relayErr <- runErr
	case runErr = <-serverErr:
		serverErr <- runErr
	case <-ctx.Done():
	}
	cancel()

	a.log.Info().Msg("shutting down")
	a.hub.Close(context.WithoutCancel(ctx))

	if a.server != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer shutdownCancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil && runErr == nil {
			runErr = err
		}
		if err := <-serverErr; err != nil && runErr == nil {
			runErr = err
		}
	}

	if err := <-relayErr; err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// cleanup closes the history store.
func (a *App) cleanup() {
	if err := a.history.Close(); err != nil {
		a.log.Warn().Err(err).Msg("failed to close history store")
		return
	}
	a.log.Info().Msg("history store closed")
}
