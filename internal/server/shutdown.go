package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"olist-dashboard/internal/config"
)

const hookTimeout = 10 * time.Second

type ShutdownHook func(ctx context.Context) error

// GracefulServer runs an http.Server until SIGINT or SIGTERM, then drains
// connections and runs the registered hooks concurrently.
type GracefulServer struct {
	server *http.Server
	logger *slog.Logger
	config config.ServerConfig

	mu    sync.Mutex
	hooks []ShutdownHook
}

func NewGracefulServer(server *http.Server, logger *slog.Logger, cfg config.ServerConfig) *GracefulServer {
	return &GracefulServer{
		server: server,
		logger: logger,
		config: cfg,
	}
}

func (gs *GracefulServer) RegisterShutdownHook(fn ShutdownHook) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	gs.hooks = append(gs.hooks, fn)
}

func (gs *GracefulServer) ListenAndServe() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return gs.Run(ctx)
}

// Run serves until ctx is cancelled or the listener fails.
func (gs *GracefulServer) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)
	go func() {
		gs.logger.Info("starting server",
			"addr", gs.server.Addr,
			"read_timeout", gs.config.ReadTimeout,
			"write_timeout", gs.config.WriteTimeout,
		)
		serverErr <- gs.server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		gs.logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), gs.config.ShutdownTimeout)
	defer cancel()
	return gs.Shutdown(shutdownCtx)
}

// Shutdown stops the HTTP server and runs every hook. All failures are
// returned joined.
func (gs *GracefulServer) Shutdown(ctx context.Context) error {
	gs.logger.Info("starting graceful shutdown", "timeout", gs.config.ShutdownTimeout)

	gs.mu.Lock()
	hooks := append([]ShutdownHook(nil), gs.hooks...)
	gs.mu.Unlock()

	var (
		errMu sync.Mutex
		errs  []error
	)
	record := func(err error) {
		errMu.Lock()
		errs = append(errs, err)
		errMu.Unlock()
	}

	var g errgroup.Group
	for i, hook := range hooks {
		g.Go(func() error {
			hookCtx, cancel := context.WithTimeout(ctx, hookTimeout)
			defer cancel()

			if err := hook(hookCtx); err != nil {
				gs.logger.Error("shutdown hook failed", "hook_index", i, "error", err)
				record(fmt.Errorf("shutdown hook %d: %w", i, err))
			}
			return nil
		})
	}
	g.Go(func() error {
		if err := gs.server.Shutdown(ctx); err != nil {
			gs.logger.Error("HTTP server shutdown failed", "error", err)
			record(fmt.Errorf("http shutdown: %w", err))
			return nil
		}
		gs.logger.Info("HTTP server stopped")
		return nil
	})

	done := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		gs.logger.Warn("shutdown timeout exceeded")
		return ctx.Err()
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}
	gs.logger.Info("graceful shutdown completed")
	return nil
}
