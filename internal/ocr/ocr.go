// Package ocr provides the client for the external OCR provider. Documents
// are submitted inline as base64 data URIs and extracted text comes back as
// markdown, one entry per page.
package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/JaimeStill/courier/internal/config"
)

// Client defines the contract for OCR extraction.
type Client interface {
	// ExtractText runs OCR over the document bytes and returns the extracted
	// markdown, pages joined by blank lines. Returns ErrNoPages when the
	// provider produces an empty page set.
	ExtractText(ctx context.Context, data []byte, mimeType string) (string, error)
}

type ocrRequest struct {
	Model              string      `json:"model"`
	Document           ocrDocument `json:"document"`
	IncludeImageBase64 bool        `json:"include_image_base64"`
}

type ocrDocument struct {
	Type        string `json:"type"`
	DocumentURL string `json:"document_url"`
}

type ocrResponse struct {
	Pages []ocrPage `json:"pages"`
}

type ocrPage struct {
	Markdown string `json:"markdown"`
}

type client struct {
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
	logger  *slog.Logger
}

// New creates an OCR client from the ocr configuration.
func New(cfg *config.OCRConfig, logger *slog.Logger) Client {
	return &client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		http:    &http.Client{Timeout: cfg.TimeoutDuration()},
		logger:  logger.With("system", "ocr"),
	}
}

func (c *client) ExtractText(ctx context.Context, data []byte, mimeType string) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyDocument
	}
	if mimeType == "" {
		mimeType = "application/pdf"
	}

	payload := ocrRequest{
		Model: c.model,
		Document: ocrDocument{
			Type:        "document_url",
			DocumentURL: fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data)),
		},
		IncludeImageBase64: false,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode ocr request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/ocr", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build ocr request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("ocr request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("ocr provider returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var result ocrResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode ocr response: %w", err)
	}

	if len(result.Pages) == 0 {
		return "", ErrNoPages
	}

	pages := make([]string, len(result.Pages))
	for i, page := range result.Pages {
		pages[i] = page.Markdown
	}

	text := strings.TrimSpace(strings.Join(pages, "\n\n"))
	c.logger.Debug("ocr extraction complete",
		"pages", len(result.Pages),
		"chars", len(text),
	)

	return text, nil
}
