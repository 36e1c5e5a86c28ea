package paperless

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/JaimeStill/courier/internal/config"
)

// Client defines the contract for backend document operations.
type Client interface {
	// DownloadDocument fetches the original file bytes and MIME type.
	DownloadDocument(ctx context.Context, id int) ([]byte, string, error)
	// GetDocument fetches document metadata.
	GetDocument(ctx context.Context, id int) (*Document, error)
	// PatchContent attempts to write extracted text into the document's
	// content field. A backend rejection returns (false, nil); only transport
	// failures produce an error.
	PatchContent(ctx context.Context, id int, content string) (bool, error)
	// UpdateDocument applies a partial field update.
	UpdateDocument(ctx context.Context, id int, fields UpdateFields) error

	// Tags, Correspondents, and DocumentTypes serve from the TTL cache,
	// refetching when stale.
	Tags(ctx context.Context) ([]Tag, error)
	Correspondents(ctx context.Context) ([]Correspondent, error)
	DocumentTypes(ctx context.Context) ([]DocumentType, error)

	// GetOrCreateCorrespondent resolves a name to an existing correspondent
	// or creates one. Matching is case-insensitive.
	GetOrCreateCorrespondent(ctx context.Context, name string) (*Correspondent, error)
	// GetOrCreateDocumentType resolves a name to an existing document type
	// or creates one. Matching is case-insensitive.
	GetOrCreateDocumentType(ctx context.Context, name string) (*DocumentType, error)
	// EnsureTags resolves tag names to IDs, creating any that do not exist.
	EnsureTags(ctx context.Context, names []string) ([]int, error)

	// InvalidateCache clears the taxonomy cache.
	InvalidateCache()
}

type client struct {
	baseURL string
	token   string
	http    *http.Client
	cache   *taxonomyCache
	logger  *slog.Logger
}

// New creates a backend client from the paperless configuration.
func New(cfg *config.PaperlessConfig, logger *slog.Logger) Client {
	return &client{
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		http:    &http.Client{Timeout: cfg.TimeoutDuration()},
		cache:   newTaxonomyCache(cfg.CacheTTLDuration()),
		logger:  logger.With("system", "paperless"),
	}
}

func (c *client) DownloadDocument(ctx context.Context, id int) ([]byte, string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, fmt.Sprintf("/api/documents/%d/download/", id), nil)
	if err != nil {
		return nil, "", err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download document %d: %w", id, err)
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp); err != nil {
		return nil, "", fmt.Errorf("download document %d: %w", id, err)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read document %d: %w", id, err)
	}

	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/pdf"
	}

	return data, mimeType, nil
}

func (c *client) GetDocument(ctx context.Context, id int) (*Document, error) {
	var doc Document
	if err := c.getJSON(ctx, fmt.Sprintf("/api/documents/%d/", id), &doc); err != nil {
		return nil, fmt.Errorf("get document %d: %w", id, err)
	}
	return &doc, nil
}

func (c *client) PatchContent(ctx context.Context, id int, content string) (bool, error) {
	body, err := json.Marshal(map[string]string{"content": content})
	if err != nil {
		return false, fmt.Errorf("encode content patch: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPatch, fmt.Sprintf("/api/documents/%d/", id), bytes.NewReader(body))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("patch content for document %d: %w", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("backend rejected content writeback",
			"document_id", id,
			"status", resp.StatusCode,
		)
		return false, nil
	}

	return true, nil
}

func (c *client) UpdateDocument(ctx context.Context, id int, fields UpdateFields) error {
	body, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode document update: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPatch, fmt.Sprintf("/api/documents/%d/", id), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("update document %d: %w", id, err)
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp); err != nil {
		return fmt.Errorf("update document %d: %w", id, err)
	}

	return nil
}

func (c *client) Tags(ctx context.Context) ([]Tag, error) {
	return c.cache.tags(ctx, func(ctx context.Context) ([]Tag, error) {
		return listAll[Tag](c, ctx, "/api/tags/")
	})
}

func (c *client) Correspondents(ctx context.Context) ([]Correspondent, error) {
	return c.cache.correspondents(ctx, func(ctx context.Context) ([]Correspondent, error) {
		return listAll[Correspondent](c, ctx, "/api/correspondents/")
	})
}

func (c *client) DocumentTypes(ctx context.Context) ([]DocumentType, error) {
	return c.cache.documentTypes(ctx, func(ctx context.Context) ([]DocumentType, error) {
		return listAll[DocumentType](c, ctx, "/api/document_types/")
	})
}

func (c *client) GetOrCreateCorrespondent(ctx context.Context, name string) (*Correspondent, error) {
	existing, err := c.Correspondents(ctx)
	if err != nil {
		return nil, err
	}
	for _, corr := range existing {
		if equalFold(corr.Name, name) {
			return &corr, nil
		}
	}

	var created Correspondent
	if err := c.postJSON(ctx, "/api/correspondents/", map[string]string{"name": name}, &created); err != nil {
		return nil, fmt.Errorf("create correspondent %q: %w", name, err)
	}

	c.cache.invalidateCorrespondents()
	return &created, nil
}

func (c *client) GetOrCreateDocumentType(ctx context.Context, name string) (*DocumentType, error) {
	existing, err := c.DocumentTypes(ctx)
	if err != nil {
		return nil, err
	}
	for _, dt := range existing {
		if equalFold(dt.Name, name) {
			return &dt, nil
		}
	}

	var created DocumentType
	if err := c.postJSON(ctx, "/api/document_types/", map[string]string{"name": name}, &created); err != nil {
		return nil, fmt.Errorf("create document type %q: %w", name, err)
	}

	c.cache.invalidateDocumentTypes()
	return &created, nil
}

func (c *client) EnsureTags(ctx context.Context, names []string) ([]int, error) {
	existing, err := c.Tags(ctx)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]int, len(existing))
	for _, tag := range existing {
		byName[fold(tag.Name)] = tag.ID
	}

	ids := make([]int, 0, len(names))
	createdAny := false
	for _, name := range names {
		if name == "" {
			continue
		}
		if id, ok := byName[fold(name)]; ok {
			ids = append(ids, id)
			continue
		}

		var created Tag
		if err := c.postJSON(ctx, "/api/tags/", map[string]string{"name": name}, &created); err != nil {
			return nil, fmt.Errorf("create tag %q: %w", name, err)
		}
		byName[fold(created.Name)] = created.ID
		ids = append(ids, created.ID)
		createdAny = true
	}

	if createdAny {
		c.cache.invalidateTags()
	}

	return ids, nil
}

func (c *client) InvalidateCache() {
	c.cache.invalidate()
}

func (c *client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+c.token)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *client) checkStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode <= 299:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrUnauthorized
	default:
		return fmt.Errorf("backend returned status %d", resp.StatusCode)
	}
}

func (c *client) getJSON(ctx context.Context, path string, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp); err != nil {
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *client) postJSON(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp); err != nil {
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// listPage is the backend's paginated list envelope.
type listPage[T any] struct {
	Next    *string `json:"next"`
	Results []T     `json:"results"`
}

// listAll follows the next links until the collection is exhausted.
func listAll[T any](c *client, ctx context.Context, path string) ([]T, error) {
	var items []T
	url := path

	for url != "" {
		var page listPage[T]
		if err := c.getJSON(ctx, url, &page); err != nil {
			return nil, fmt.Errorf("list %s: %w", path, err)
		}
		items = append(items, page.Results...)

		url = ""
		if page.Next != nil {
			url = relativize(c.baseURL, *page.Next)
		}
	}

	return items, nil
}
