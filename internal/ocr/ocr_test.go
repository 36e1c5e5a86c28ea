package ocr_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JaimeStill/courier/internal/config"
	"github.com/JaimeStill/courier/internal/ocr"
)

func testClient(baseURL string) ocr.Client {
	cfg := &config.OCRConfig{
		BaseURL: baseURL,
		APIKey:  "test-key",
		Model:   "test-model",
		Timeout: "5s",
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return ocr.New(cfg, logger)
}

func TestExtractText(t *testing.T) {
	ctx := context.Background()

	t.Run("joins pages with blank lines", func(t *testing.T) {
		var captured struct {
			Model    string `json:"model"`
			Document struct {
				Type        string `json:"type"`
				DocumentURL string `json:"document_url"`
			} `json:"document"`
		}

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/v1/ocr" {
				t.Errorf("path = %s, expected /v1/ocr", r.URL.Path)
			}
			if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
				t.Errorf("authorization = %q", auth)
			}
			if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
				t.Errorf("decode request: %v", err)
			}

			json.NewEncoder(w).Encode(map[string]any{
				"pages": []map[string]string{
					{"markdown": "# Page One"},
					{"markdown": "Page Two "},
				},
			})
		}))
		defer server.Close()

		text, err := testClient(server.URL).ExtractText(ctx, []byte("document bytes"), "application/pdf")
		if err != nil {
			t.Fatalf("ExtractText: %v", err)
		}

		expected := "# Page One\n\nPage Two"
		if text != expected {
			t.Errorf("text = %q, expected %q", text, expected)
		}

		if captured.Model != "test-model" {
			t.Errorf("model = %q, expected test-model", captured.Model)
		}
		if captured.Document.Type != "document_url" {
			t.Errorf("document type = %q", captured.Document.Type)
		}
		if !strings.HasPrefix(captured.Document.DocumentURL, "data:application/pdf;base64,") {
			t.Errorf("document_url = %q, expected base64 data uri", captured.Document.DocumentURL)
		}
	})

	t.Run("empty page set", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"pages": []any{}})
		}))
		defer server.Close()

		if _, err := testClient(server.URL).ExtractText(ctx, []byte("data"), "image/png"); !errors.Is(err, ocr.ErrNoPages) {
			t.Errorf("expected ErrNoPages, got %v", err)
		}
	})

	t.Run("empty document", func(t *testing.T) {
		if _, err := testClient("http://unused").ExtractText(ctx, nil, ""); !errors.Is(err, ocr.ErrEmptyDocument) {
			t.Errorf("expected ErrEmptyDocument, got %v", err)
		}
	})

	t.Run("provider error status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "model overloaded", http.StatusServiceUnavailable)
		}))
		defer server.Close()

		_, err := testClient(server.URL).ExtractText(ctx, []byte("data"), "application/pdf")
		if err == nil {
			t.Fatal("expected error")
		}
		if !strings.Contains(err.Error(), "503") {
			t.Errorf("error = %v, expected status in message", err)
		}
	})

	t.Run("defaults mime type to pdf", func(t *testing.T) {
		var documentURL string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				Document struct {
					DocumentURL string `json:"document_url"`
				} `json:"document"`
			}
			json.NewDecoder(r.Body).Decode(&req)
			documentURL = req.Document.DocumentURL

			json.NewEncoder(w).Encode(map[string]any{
				"pages": []map[string]string{{"markdown": "text"}},
			})
		}))
		defer server.Close()

		if _, err := testClient(server.URL).ExtractText(ctx, []byte("data"), ""); err != nil {
			t.Fatalf("ExtractText: %v", err)
		}
		if !strings.HasPrefix(documentURL, "data:application/pdf;base64,") {
			t.Errorf("document_url = %q, expected pdf default", documentURL)
		}
	})
}
