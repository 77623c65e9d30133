package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"olist-dashboard/internal/config"
	"olist-dashboard/internal/errors"
	"olist-dashboard/internal/middleware"
	"olist-dashboard/internal/observability"
	"olist-dashboard/internal/server"
	"olist-dashboard/internal/services"
	"olist-dashboard/internal/ui/templates"
)

const (
	renderTimeout = 10 * time.Second
	cacheMaxAge   = "public, max-age=300"
)

func handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
	defer cancel()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", cacheMaxAge)
	if err := templates.Dashboard().Render(ctx, w); err != nil {
		http.Error(w, "render error", http.StatusInternalServerError)
	}
}

// middlewares lists the chain outermost first. RequestID wraps Recovery so
// recovered panics still carry the request id.
func middlewares(cfg *config.Config, logger *slog.Logger) []middleware.Middleware {
	chain := []middleware.Middleware{
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Recovery(logger),
		middleware.Tracing(logger),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
	}
	if cfg.Security.EnableRateLimit {
		chain = append(chain, middleware.RateLimit(middleware.NewRateLimiter(cfg.Security), logger))
	}
	return chain
}

func newHandler(cfg *config.Config, analytics *services.Analytics, logger *slog.Logger) http.Handler {
	srv := server.NewServer(analytics, logger, &server.TemplateHandlers{
		Dashboard: handleDashboard,
	})
	return middleware.Chain(middlewares(cfg, logger)...)(srv)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"version", "1.0.0",
		"addr", cfg.Address(),
		"csv_file", cfg.Dataset.CSVFile,
	)

	analytics := services.NewAnalytics()
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Dataset.LoadTimeout)
	start := time.Now()
	err = analytics.LoadFromCSV(ctx, cfg.Dataset.CSVFile)
	cancel()
	if err != nil {
		// Schema problems are shown on every view; an unreadable file is fatal.
		if _, ok := errors.As(err); !ok {
			logger.Error("failed to load CSV data", "error", err)
			os.Exit(1)
		}
		logger.Warn("serving dataset with schema errors", "error", err)
	} else {
		logger.Info("CSV data loaded", "duration", time.Since(start))
	}

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      newHandler(cfg, analytics, logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg.Server)
	gracefulServer.RegisterShutdownHook(func(ctx context.Context) error {
		logger.Info("releasing dataset", "stats", analytics.Stats())
		return nil
	})

	if err := gracefulServer.ListenAndServe(); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}
