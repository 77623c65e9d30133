package server

import (
	"log/slog"
	"net/http"

	"olist-dashboard/internal/handlers"
	"olist-dashboard/internal/services"
)

type Server struct {
	mux         *http.ServeMux
	logger      *slog.Logger
	apiHandlers *handlers.APIHandlers
	sseHandlers *handlers.SSEHandlers
}

type TemplateHandlers struct {
	Dashboard http.HandlerFunc
}

func NewServer(analytics *services.Analytics, logger *slog.Logger, templateHandlers *TemplateHandlers) *Server {
	s := &Server{
		mux:         http.NewServeMux(),
		logger:      logger,
		apiHandlers: handlers.NewAPIHandlers(analytics, logger),
		sseHandlers: handlers.NewSSEHandlers(analytics, logger),
	}
	s.routes(templateHandlers)
	return s
}

func (s *Server) routes(templateHandlers *TemplateHandlers) {
	s.mux.HandleFunc("GET /{$}", templateHandlers.Dashboard)
	s.mux.HandleFunc("GET /health", s.apiHandlers.HandleHealth)
	s.mux.HandleFunc("GET /admin/stats", s.apiHandlers.HandleStats)

	s.mux.HandleFunc("GET /api/cities", s.apiHandlers.HandleCities)
	s.mux.HandleFunc("GET /api/categories", s.apiHandlers.HandleCategories)
	s.mux.HandleFunc("GET /api/category-revenue", s.apiHandlers.HandleCategoryRevenue)
	s.mux.HandleFunc("GET /api/sellers", s.apiHandlers.HandleSellers)
	s.mux.HandleFunc("GET /api/rfm", s.apiHandlers.HandleRFM)
	s.mux.HandleFunc("GET /api/rfm/customers", s.apiHandlers.HandleRFMCustomers)

	// Datastar
	s.mux.HandleFunc("GET /sse/cities", s.sseHandlers.HandleCities)
	s.mux.HandleFunc("GET /sse/categories", s.sseHandlers.HandleCategories)
	s.mux.HandleFunc("GET /sse/category-revenue", s.sseHandlers.HandleCategoryRevenue)
	s.mux.HandleFunc("GET /sse/sellers", s.sseHandlers.HandleSellers)
	s.mux.HandleFunc("GET /sse/rfm", s.sseHandlers.HandleRFM)
	s.mux.HandleFunc("GET /sse/refresh-all", s.sseHandlers.HandleRefreshAll)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
