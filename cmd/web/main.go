package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"insight-dashboard/internal/config"
	"insight-dashboard/internal/handlers"
	"insight-dashboard/internal/middleware"
	"insight-dashboard/internal/observability"
	"insight-dashboard/internal/server"
	"insight-dashboard/internal/services"
	"insight-dashboard/internal/ui/templates"
)

const (
	renderTimeout  = 10 * time.Second
	preloadTimeout = 30 * time.Second
	cacheMaxAge    = "public, max-age=300"
)

func handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
	defer cancel()

	w.Header().Set("Cache-Control", cacheMaxAge)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.Dashboard().Render(ctx, w); err != nil {
		http.Error(w, "render error", http.StatusInternalServerError)
	}
}

// newHandler wires the service into routes and the middleware stack.
func newHandler(cfg *config.Config, analytics *services.Analytics, logger *slog.Logger) http.Handler {
	srv := server.NewServer(analytics, logger, cfg, &server.TemplateHandlers{
		Dashboard: handleDashboard,
	})

	rateLimiter := middleware.NewRateLimiter(cfg.Security)

	middlewareChain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Tracing(logger),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(rateLimiter, logger),
	)

	return middlewareChain(srv)
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
		"version", handlers.Version,
		"addr", cfg.Address(),
		"max_rows", cfg.Upload.MaxRows,
		"sample_size", cfg.Analysis.SampleSize,
		"retention", cfg.Analysis.Retention,
	)

	analytics := services.NewAnalytics(services.Options{
		MaxRows:    cfg.Upload.MaxRows,
		SampleSize: cfg.Analysis.SampleSize,
		CacheDir:   cfg.Analysis.CacheDir,
		Retention:  cfg.Analysis.Retention,
		Logger:     logger,
	})

	if cfg.Analysis.PreloadFile != "" {
		ctx, cancel := context.WithTimeout(context.Background(), preloadTimeout)
		start := time.Now()
		session, err := analytics.LoadFile(ctx, cfg.Analysis.PreloadFile)
		cancel()
		if err != nil {
			logger.Error("failed to preload dataset", "file", cfg.Analysis.PreloadFile, "error", err)
			os.Exit(1)
		}
		logger.Info("dataset preloaded", "id", session.ID, "rows", session.RowCount, "duration", time.Since(start))
	}

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      newHandler(cfg, analytics, logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg)

	gracefulServer.RegisterShutdownHook("analytics", func(ctx context.Context) error {
		logger.Info("shutting down analytics service")
		return analytics.Close()
	})

	if err := gracefulServer.ListenAndServe(context.Background()); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}
