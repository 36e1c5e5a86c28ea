package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JaimeStill/courier/pkg/middleware"
)

func corsConfig() *middleware.CORSConfig {
	return &middleware.CORSConfig{
		Enabled:        true,
		Origins:        []string{"http://app.local"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         600,
	}
}

func serveCORS(cfg *middleware.CORSConfig, r *http.Request) *httptest.ResponseRecorder {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	w := httptest.NewRecorder()
	middleware.CORS(cfg)(next).ServeHTTP(w, r)
	return w
}

func TestCORS(t *testing.T) {
	t.Run("allowed origin gets headers", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/api/queue", nil)
		r.Header.Set("Origin", "http://app.local")

		w := serveCORS(corsConfig(), r)

		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://app.local" {
			t.Errorf("allow-origin = %q", got)
		}
		if got := w.Header().Get("Access-Control-Allow-Methods"); got != "GET, POST" {
			t.Errorf("allow-methods = %q", got)
		}
		if got := w.Header().Get("Access-Control-Max-Age"); got != "600" {
			t.Errorf("max-age = %q", got)
		}
		if w.Code != http.StatusTeapot {
			t.Errorf("status = %d, expected pass-through", w.Code)
		}
	})

	t.Run("unknown origin gets no headers", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/api/queue", nil)
		r.Header.Set("Origin", "http://evil.example")

		w := serveCORS(corsConfig(), r)

		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("allow-origin = %q, expected empty", got)
		}
	})

	t.Run("preflight short-circuits", func(t *testing.T) {
		r := httptest.NewRequest("OPTIONS", "/api/queue", nil)
		r.Header.Set("Origin", "http://app.local")

		w := serveCORS(corsConfig(), r)

		if w.Code != http.StatusOK {
			t.Errorf("status = %d, expected %d", w.Code, http.StatusOK)
		}
	})

	t.Run("disabled passes through", func(t *testing.T) {
		cfg := corsConfig()
		cfg.Enabled = false

		r := httptest.NewRequest("GET", "/api/queue", nil)
		r.Header.Set("Origin", "http://app.local")

		w := serveCORS(cfg, r)

		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("allow-origin = %q, expected empty", got)
		}
		if w.Code != http.StatusTeapot {
			t.Errorf("status = %d, expected pass-through", w.Code)
		}
	})

	t.Run("credentials flag", func(t *testing.T) {
		cfg := corsConfig()
		cfg.AllowCredentials = true

		r := httptest.NewRequest("GET", "/api/queue", nil)
		r.Header.Set("Origin", "http://app.local")

		w := serveCORS(cfg, r)

		if got := w.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
			t.Errorf("allow-credentials = %q", got)
		}
	})
}
