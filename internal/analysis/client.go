package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/JaimeStill/courier/internal/config"
	"github.com/JaimeStill/courier/pkg/formatting"
)

// minContentLength is the smallest usable document text; anything shorter
// fails with ErrInsufficientContent.
const minContentLength = 10

// Client defines the contract for AI document analysis.
type Client interface {
	// Analyze submits document text with the existing taxonomy and returns
	// validated field suggestions.
	Analyze(ctx context.Context, req Request) (*Result, error)
}

type chatRequest struct {
	Model          string         `json:"model"`
	Temperature    float64        `json:"temperature"`
	ResponseFormat responseFormat `json:"response_format"`
	Messages       []chatMessage  `json:"messages"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

type client struct {
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient creates an analysis client from the analysis configuration.
func NewClient(cfg *config.AnalysisConfig, logger *slog.Logger) Client {
	return &client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		http:    &http.Client{Timeout: cfg.TimeoutDuration()},
		logger:  logger.With("system", "analysis"),
	}
}

func (c *client) Analyze(ctx context.Context, req Request) (*Result, error) {
	content := strings.TrimSpace(req.Content)
	if len(content) < minContentLength {
		return nil, ErrInsufficientContent
	}

	schema := resultSchema()
	payload := chatRequest{
		Model:          c.model,
		Temperature:    0.3,
		ResponseFormat: responseFormat{Type: "json_object"},
		Messages: []chatMessage{
			{Role: "system", Content: buildSystemPrompt(req, schema)},
			{Role: "user", Content: buildUserPrompt(content)},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode analysis request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build analysis request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("analysis request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("analysis provider returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var cc chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cc); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAPIResponseStructure, err)
	}
	if len(cc.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices", ErrInvalidAPIResponseStructure)
	}

	raw, err := formatting.Parse[json.RawMessage](cc.Choices[0].Message.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidJSON, truncate(cc.Choices[0].Message.Content, 200))
	}

	if err := validateSchema(schema, raw); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidResponseStructure, err)
	}

	var fields DocumentFields
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidResponseStructure, err)
	}
	if fields.Tags == nil {
		return nil, fmt.Errorf("%w: missing tags array", ErrInvalidResponseStructure)
	}

	result := &Result{Document: fields}
	if cc.Usage != nil {
		result.Metrics = &Metrics{
			PromptTokens:     cc.Usage.PromptTokens,
			CompletionTokens: cc.Usage.CompletionTokens,
			TotalTokens:      cc.Usage.TotalTokens,
		}
	}

	c.logger.Debug("analysis complete",
		"title", result.Document.Title,
		"tags", len(result.Document.Tags),
	)

	return result, nil
}

func buildSystemPrompt(req Request, schema map[string]any) string {
	var b strings.Builder

	b.WriteString("You are a document classification assistant for a document management system. ")
	b.WriteString("Analyze the document text and suggest metadata. ")
	b.WriteString("Prefer existing taxonomy entries over inventing new ones.\n\n")

	writeList(&b, "Existing tags", req.Tags)
	writeList(&b, "Existing correspondents", req.Correspondents)
	writeList(&b, "Existing document types", req.DocumentTypes)

	b.WriteString("\nRespond with ONLY a JSON object matching this schema:\n")
	b.WriteString(mustJSON(schema))
	b.WriteString("\nUse document_date for the document's creation date in YYYY-MM-DD form, ")
	b.WriteString("language as an ISO 639-1 code, and null for any field you cannot determine.")

	return b.String()
}

func buildUserPrompt(content string) string {
	return "Document text:\n\n" + content
}

func writeList(b *strings.Builder, label string, items []string) {
	if len(items) == 0 {
		return
	}
	b.WriteString(label)
	b.WriteString(": ")
	b.WriteString(strings.Join(items, ", "))
	b.WriteString("\n")
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

// IsStructuralError reports whether err is one of the analysis failures the
// classifier treats as OCR queue candidates.
func IsStructuralError(err error) bool {
	return errors.Is(err, ErrInsufficientContent) ||
		errors.Is(err, ErrInvalidJSON) ||
		errors.Is(err, ErrInvalidResponseStructure) ||
		errors.Is(err, ErrInvalidAPIResponseStructure)
}
