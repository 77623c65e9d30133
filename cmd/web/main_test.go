package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"olist-dashboard/internal/config"
	"olist-dashboard/internal/middleware"
	"olist-dashboard/internal/services"
)

const testCSV = `order_id,customer_unique_id,order_purchase_timestamp,product_category_name,customer_city,seller_id,price,payment_value
o1,c1,2018-01-01 10:00:00,bed_bath_table,sao paulo,s1,89.90,99.90
o2,c1,2018-02-10 12:30:00,health_beauty,sao paulo,s2,20.00,25.00
o3,c2,2018-03-02 09:15:00,bed_bath_table,curitiba,s1,110.00,120.00
o4,c3,2018-03-03 18:45:00,toys,recife,s3,10.00,15.50
o5,c4,not a date,toys,recife,s3,10.00,15.50
`

func testConfig() *config.Config {
	return &config.Config{
		Security: config.SecurityConfig{
			EnableRateLimit: true,
			RateLimitRPS:    100,
			RateLimitBurst:  100,
			AllowedOrigins:  []string{"http://localhost:8501"},
		},
	}
}

func newTestAnalytics(t *testing.T) *services.Analytics {
	t.Helper()
	path := filepath.Join(t.TempDir(), "all_data.csv")
	if err := os.WriteFile(path, []byte(testCSV), 0o600); err != nil {
		t.Fatal(err)
	}

	a := services.NewAnalytics()
	if err := a.LoadFromCSV(context.Background(), path); err != nil {
		t.Fatalf("LoadFromCSV() error = %v", err)
	}
	return a
}

func newTestHandler(t *testing.T) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return newHandler(testConfig(), newTestAnalytics(t), logger)
}

func TestHandler_Routes(t *testing.T) {
	h := newTestHandler(t)

	tests := []struct {
		path        string
		status      int
		contentType string
	}{
		{"/", http.StatusOK, "text/html"},
		{"/health", http.StatusOK, "application/json"},
		{"/admin/stats", http.StatusOK, "application/json"},
		{"/api/cities", http.StatusOK, "application/json"},
		{"/api/categories", http.StatusOK, "application/json"},
		{"/api/category-revenue", http.StatusOK, "application/json"},
		{"/api/sellers", http.StatusOK, "application/json"},
		{"/api/rfm", http.StatusOK, "application/json"},
		{"/api/rfm/customers", http.StatusOK, "application/json"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
			if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, tt.contentType) {
				t.Errorf("content-type = %q, want %q", ct, tt.contentType)
			}
			if w.Header().Get("X-Request-ID") == "" {
				t.Error("response should carry a request id")
			}
			if w.Header().Get("Content-Security-Policy") == "" {
				t.Error("response should carry security headers")
			}
		})
	}
}

func TestHandler_RFMCustomersFromCSV(t *testing.T) {
	h := newTestHandler(t)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/rfm/customers", nil))

	var response struct {
		Success bool `json:"success"`
		Data    []struct {
			CustomerID string `json:"customer_unique_id"`
			Recency    int    `json:"recency"`
			Frequency  int    `json:"frequency"`
			Monetary   string `json:"monetary"`
		} `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}
	if !response.Success {
		t.Fatal("expected success=true")
	}
	// c4's row has an unparseable timestamp and is dropped at load.
	if len(response.Data) != 3 {
		t.Fatalf("customers = %d, want 3", len(response.Data))
	}

	c1 := response.Data[0]
	if c1.CustomerID != "c1" || c1.Frequency != 2 || c1.Monetary != "124.9" {
		t.Errorf("c1 = %+v", c1)
	}
	// Reference date is 2018-03-03 18:45; c1 last bought 2018-02-10 12:30.
	if c1.Recency != 21 {
		t.Errorf("c1 recency = %d, want 21", c1.Recency)
	}
}

func TestHandler_SSERoutes(t *testing.T) {
	h := newTestHandler(t)

	routes := []string{
		"/sse/cities",
		"/sse/categories",
		"/sse/category-revenue",
		"/sse/sellers",
		"/sse/rfm",
		"/sse/refresh-all",
	}

	for _, route := range routes {
		t.Run(route, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, route, nil))

			if w.Code != http.StatusOK {
				t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
			}
			if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "text/event-stream") {
				t.Errorf("content-type = %q, want text/event-stream", ct)
			}
			if !strings.Contains(w.Body.String(), "datastar-patch-elements") {
				t.Error("stream should contain an element patch")
			}
		})
	}
}

func TestHandler_MissingMonetaryColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "all_data.csv")
	csv := "order_id,customer_unique_id,order_purchase_timestamp,customer_city\no1,c1,2018-01-01 10:00:00,recife\n"
	if err := os.WriteFile(path, []byte(csv), 0o600); err != nil {
		t.Fatal(err)
	}

	a := services.NewAnalytics()
	if err := a.LoadFromCSV(context.Background(), path); err == nil {
		t.Fatal("LoadFromCSV() should report the missing monetary column")
	}

	h := newHandler(testConfig(), a, slog.New(slog.NewTextHandler(io.Discard, nil)))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/cities", nil))

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnprocessableEntity)
	}
	if !strings.Contains(w.Body.String(), "NO_MONETARY_COLUMN") {
		t.Errorf("body should name the error code, got %s", w.Body.String())
	}
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	h := newTestHandler(t)

	for _, path := range []string{"/api/cities", "/health", "/sse/rfm"} {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, path, nil))
		if w.Code != http.StatusMethodNotAllowed {
			t.Errorf("POST %s status = %d, want %d", path, w.Code, http.StatusMethodNotAllowed)
		}
	}
}

func TestHandleDashboard(t *testing.T) {
	w := httptest.NewRecorder()
	handleDashboard(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if cc := w.Header().Get("Cache-Control"); cc != cacheMaxAge {
		t.Errorf("cache-control = %q", cc)
	}
	if !strings.Contains(w.Body.String(), "RFM analysis") {
		t.Error("dashboard should contain the RFM tab")
	}
}

func TestMiddlewares_PanicKeepsRequestID(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := middleware.Chain(middlewares(testConfig(), logger)...)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/cities", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}

	var response struct {
		Error struct {
			Code      string `json:"code"`
			RequestID string `json:"request_id"`
		} `json:"error"`
	}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}
	if response.Error.Code != "INTERNAL_ERROR" {
		t.Errorf("code = %q", response.Error.Code)
	}
	if id := w.Header().Get("X-Request-ID"); id == "" || response.Error.RequestID != id {
		t.Errorf("request_id = %q, header = %q", response.Error.RequestID, id)
	}
}
