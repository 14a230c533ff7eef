package server

import (
	"log/slog"
	"net/http"

	"insight-dashboard/internal/config"
	"insight-dashboard/internal/handlers"
	"insight-dashboard/internal/middleware"
	"insight-dashboard/internal/services"
)

type Server struct {
	analytics   *services.Analytics
	mux         *http.ServeMux
	logger      *slog.Logger
	apiHandlers *handlers.APIHandlers
	sseHandlers *handlers.SSEHandlers
}

type TemplateHandlers struct {
	Dashboard http.HandlerFunc
}

func NewServer(analytics *services.Analytics, logger *slog.Logger, cfg *config.Config, templateHandlers *TemplateHandlers) *Server {
	s := &Server{
		analytics:   analytics,
		mux:         http.NewServeMux(),
		logger:      logger,
		apiHandlers: handlers.NewAPIHandlers(analytics, logger, cfg.Upload),
		sseHandlers: handlers.NewSSEHandlers(analytics, logger),
	}
	s.setupRoutes(cfg, templateHandlers)
	return s
}

func (s *Server) setupRoutes(cfg *config.Config, templateHandlers *TemplateHandlers) {
	// Dashboard routes
	s.mux.HandleFunc("GET /{$}", templateHandlers.Dashboard)
	s.mux.HandleFunc("GET /health", s.apiHandlers.HandleHealth)
	s.mux.HandleFunc("GET /admin/stats", s.apiHandlers.HandleStats)

	// Uploads get their own per-client budget on top of the global limiter.
	upload := middleware.Chain(
		middleware.RateLimit(middleware.NewUploadLimiter(cfg.Security), s.logger),
		middleware.MaxBytes(cfg.Upload.MaxFileBytes+multipartOverhead, s.logger),
	)
	s.mux.Handle("POST /api/upload", upload(http.HandlerFunc(s.apiHandlers.HandleUpload)))

	// REST API endpoints
	s.mux.HandleFunc("GET /api/datasets/latest", s.apiHandlers.HandleLatest)
	s.mux.HandleFunc("GET /api/datasets/{id}/analysis", s.apiHandlers.HandleAnalysis)
	s.mux.HandleFunc("GET /api/datasets/{id}/summary", s.apiHandlers.HandleSummary)

	// Datastar SSE endpoints
	s.mux.HandleFunc("GET /sse/datasets/latest", s.sseHandlers.HandleLatest)
	s.mux.HandleFunc("GET /sse/datasets/{id}", s.sseHandlers.HandleDataset)
}

// multipartOverhead covers form boundaries and part headers around the file.
const multipartOverhead = 64 << 10

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
