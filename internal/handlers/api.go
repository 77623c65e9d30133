package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"olist-dashboard/internal/errors"
	"olist-dashboard/internal/observability"
	"olist-dashboard/internal/services"
)

var cacheHeaders = map[string]string{
	"Cache-Control": "public, max-age=300",
}

type APIHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewAPIHandlers(analytics *services.Analytics, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

func (h *APIHandlers) respond(w http.ResponseWriter, r *http.Request, data any, err error) {
	if err != nil {
		errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
		return
	}
	errors.WriteSuccessWithHeaders(w, data, cacheHeaders)
}

func (h *APIHandlers) HandleCities(w http.ResponseWriter, r *http.Request) {
	data, err := h.analytics.Cities()
	h.respond(w, r, data, err)
}

func (h *APIHandlers) HandleCategories(w http.ResponseWriter, r *http.Request) {
	data, err := h.analytics.Categories()
	h.respond(w, r, data, err)
}

func (h *APIHandlers) HandleCategoryRevenue(w http.ResponseWriter, r *http.Request) {
	data, err := h.analytics.CategoryRevenue()
	h.respond(w, r, data, err)
}

func (h *APIHandlers) HandleSellers(w http.ResponseWriter, r *http.Request) {
	data, err := h.analytics.Sellers()
	h.respond(w, r, data, err)
}

func (h *APIHandlers) HandleRFM(w http.ResponseWriter, r *http.Request) {
	data, err := h.analytics.RFMReport()
	h.respond(w, r, data, err)
}

// HandleRFMCustomers returns one RFM record per customer, ordered by id.
func (h *APIHandlers) HandleRFMCustomers(w http.ResponseWriter, r *http.Request) {
	data, err := h.analytics.RFM()
	h.respond(w, r, data, err)
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	healthData := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
	}

	errors.WriteSuccess(w, healthData)
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, h.analytics.Stats())
}
