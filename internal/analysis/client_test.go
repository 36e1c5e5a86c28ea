package analysis_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JaimeStill/courier/internal/analysis"
	"github.com/JaimeStill/courier/internal/config"
)

func chatClient(baseURL string) analysis.Client {
	cfg := &config.AnalysisConfig{
		BaseURL: baseURL,
		APIKey:  "test-key",
		Model:   "test-model",
		Timeout: "5s",
	}
	return analysis.NewClient(cfg, testLogger())
}

func chatServer(t *testing.T, content string, usage map[string]int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s, expected /chat/completions", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("authorization = %q", auth)
		}

		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": content}},
			},
		}
		if usage != nil {
			resp["usage"] = usage
		}
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestClientAnalyze(t *testing.T) {
	ctx := context.Background()
	request := analysis.Request{
		Content: "A long enough document text for analysis.",
		Tags:    []string{"invoice"},
	}

	t.Run("valid response with metrics", func(t *testing.T) {
		server := chatServer(t, `{"title": "Invoice March", "tags": ["invoice"], "correspondent": "ACME", "document_type": null, "document_date": "2024-03-15", "language": "en"}`,
			map[string]int{"prompt_tokens": 100, "completion_tokens": 20, "total_tokens": 120})
		defer server.Close()

		result, err := chatClient(server.URL).Analyze(ctx, request)
		if err != nil {
			t.Fatalf("Analyze: %v", err)
		}

		if result.Document.Title != "Invoice March" {
			t.Errorf("title = %q", result.Document.Title)
		}
		if result.Document.Correspondent != "ACME" {
			t.Errorf("correspondent = %q", result.Document.Correspondent)
		}
		if result.Document.DocumentDate != "2024-03-15" {
			t.Errorf("document_date = %q", result.Document.DocumentDate)
		}
		if result.Metrics == nil || result.Metrics.TotalTokens != 120 {
			t.Errorf("metrics = %+v", result.Metrics)
		}
	})

	t.Run("fenced json response", func(t *testing.T) {
		server := chatServer(t, "```json\n{\"title\": \"Receipt\", \"tags\": []}\n```", nil)
		defer server.Close()

		result, err := chatClient(server.URL).Analyze(ctx, request)
		if err != nil {
			t.Fatalf("Analyze: %v", err)
		}
		if result.Document.Title != "Receipt" {
			t.Errorf("title = %q", result.Document.Title)
		}
		if result.Metrics != nil {
			t.Error("expected no metrics without usage")
		}
	})

	t.Run("insufficient content", func(t *testing.T) {
		if _, err := chatClient("http://unused").Analyze(ctx, analysis.Request{Content: "   short  "}); !errors.Is(err, analysis.ErrInsufficientContent) {
			t.Errorf("expected ErrInsufficientContent, got %v", err)
		}
	})

	t.Run("non-json content", func(t *testing.T) {
		server := chatServer(t, "I could not parse this document, sorry.", nil)
		defer server.Close()

		if _, err := chatClient(server.URL).Analyze(ctx, request); !errors.Is(err, analysis.ErrInvalidJSON) {
			t.Errorf("expected ErrInvalidJSON, got %v", err)
		}
	})

	t.Run("schema violation", func(t *testing.T) {
		server := chatServer(t, `{"title": "Invoice", "tags": "not-an-array"}`, nil)
		defer server.Close()

		if _, err := chatClient(server.URL).Analyze(ctx, request); !errors.Is(err, analysis.ErrInvalidResponseStructure) {
			t.Errorf("expected ErrInvalidResponseStructure, got %v", err)
		}
	})

	t.Run("missing required tags", func(t *testing.T) {
		server := chatServer(t, `{"title": "Invoice"}`, nil)
		defer server.Close()

		if _, err := chatClient(server.URL).Analyze(ctx, request); !errors.Is(err, analysis.ErrInvalidResponseStructure) {
			t.Errorf("expected ErrInvalidResponseStructure, got %v", err)
		}
	})

	t.Run("malformed date", func(t *testing.T) {
		server := chatServer(t, `{"title": "Invoice", "tags": [], "document_date": "15/03/2024"}`, nil)
		defer server.Close()

		if _, err := chatClient(server.URL).Analyze(ctx, request); !errors.Is(err, analysis.ErrInvalidResponseStructure) {
			t.Errorf("expected ErrInvalidResponseStructure, got %v", err)
		}
	})

	t.Run("empty choices", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
		}))
		defer server.Close()

		if _, err := chatClient(server.URL).Analyze(ctx, request); !errors.Is(err, analysis.ErrInvalidAPIResponseStructure) {
			t.Errorf("expected ErrInvalidAPIResponseStructure, got %v", err)
		}
	})

	t.Run("provider error status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
		}))
		defer server.Close()

		_, err := chatClient(server.URL).Analyze(ctx, request)
		if err == nil {
			t.Fatal("expected error")
		}
		if analysis.IsStructuralError(err) {
			t.Error("transport failure must not classify as structural")
		}
	})
}

func TestIsStructuralError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"insufficient content", analysis.ErrInsufficientContent, true},
		{"invalid json", analysis.ErrInvalidJSON, true},
		{"response structure", analysis.ErrInvalidResponseStructure, true},
		{"api response structure", analysis.ErrInvalidAPIResponseStructure, true},
		{"wrapped", errors.Join(errors.New("context"), analysis.ErrInvalidJSON), true},
		{"transport", errors.New("connection refused"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := analysis.IsStructuralError(tt.err); got != tt.expected {
				t.Errorf("IsStructuralError = %t, expected %t", got, tt.expected)
			}
		})
	}
}
