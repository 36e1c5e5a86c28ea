package analysis

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/courier/internal/config"
	"github.com/JaimeStill/courier/internal/paperless"
)

// Runner executes one analysis pass: taxonomy fetch, model invocation, and
// folding the validated suggestions back into the document backend.
type Runner struct {
	cfg     *config.AnalysisConfig
	client  Client
	backend paperless.Client
	store   Store
	logger  *slog.Logger
}

// NewRunner creates a Runner over the given client, backend, and store.
func NewRunner(
	cfg *config.AnalysisConfig,
	client Client,
	backend paperless.Client,
	store Store,
	logger *slog.Logger,
) *Runner {
	return &Runner{
		cfg:     cfg,
		client:  client,
		backend: backend,
		store:   store,
		logger:  logger.With("system", "analysis"),
	}
}

// Analyze runs analysis over ocrText for the document and applies the results.
// Metrics and history recording are best-effort; their failures are logged
// but do not fail the run.
func (r *Runner) Analyze(ctx context.Context, documentID int, ocrText string) (*Result, error) {
	var (
		tags           []paperless.Tag
		correspondents []paperless.Correspondent
		documentTypes  []paperless.DocumentType
		original       *paperless.Document
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		tags, err = r.backend.Tags(gctx)
		return
	})
	g.Go(func() (err error) {
		correspondents, err = r.backend.Correspondents(gctx)
		return
	})
	g.Go(func() (err error) {
		documentTypes, err = r.backend.DocumentTypes(gctx)
		return
	})
	g.Go(func() (err error) {
		original, err = r.backend.GetDocument(gctx, documentID)
		return
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetch analysis context: %w", err)
	}

	content := ocrText
	if len(content) > r.cfg.MaxContentLength {
		content = content[:r.cfg.MaxContentLength]
	}

	result, err := r.client.Analyze(ctx, Request{
		Content:        content,
		Tags:           tagNames(tags),
		Correspondents: correspondentNames(correspondents),
		DocumentTypes:  documentTypeNames(documentTypes),
	})
	if err != nil {
		return nil, err
	}

	fields, err := r.buildUpdate(ctx, result, original)
	if err != nil {
		return nil, err
	}

	if err := r.backend.UpdateDocument(ctx, documentID, fields); err != nil {
		return nil, fmt.Errorf("apply analysis results: %w", err)
	}

	r.record(ctx, documentID, result, fields, original)
	return result, nil
}

// buildUpdate folds the analysis result into a partial document update,
// honoring the feature toggles and falling back to the original values.
func (r *Runner) buildUpdate(
	ctx context.Context,
	result *Result,
	original *paperless.Document,
) (paperless.UpdateFields, error) {
	var fields paperless.UpdateFields
	doc := result.Document

	if r.cfg.TaggingEnabled() {
		ids, err := r.backend.EnsureTags(ctx, doc.Tags)
		if err != nil {
			return fields, fmt.Errorf("resolve tags: %w", err)
		}
		fields.Tags = ids
	}

	if r.cfg.TitleEnabled() {
		title := doc.Title
		if title == "" {
			title = original.Title
		}
		fields.Title = &title
	}

	if doc.DocumentDate != "" {
		created := doc.DocumentDate
		fields.Created = &created
	}

	if r.cfg.DocumentTypeEnabled() && doc.DocumentType != "" {
		dt, err := r.backend.GetOrCreateDocumentType(ctx, doc.DocumentType)
		if err != nil {
			return fields, fmt.Errorf("resolve document type: %w", err)
		}
		fields.DocumentType = &dt.ID
	}

	if r.cfg.CorrespondentsEnabled() && doc.Correspondent != "" {
		corr, err := r.backend.GetOrCreateCorrespondent(ctx, doc.Correspondent)
		if err != nil {
			return fields, fmt.Errorf("resolve correspondent: %w", err)
		}
		fields.Correspondent = &corr.ID
	}

	if doc.Language != "" {
		lang := doc.Language
		fields.Language = &lang
	}

	return fields, nil
}

func (r *Runner) record(
	ctx context.Context,
	documentID int,
	result *Result,
	fields paperless.UpdateFields,
	original *paperless.Document,
) {
	if r.store == nil {
		return
	}

	if result.Metrics != nil {
		if err := r.store.RecordMetrics(ctx, documentID, *result.Metrics); err != nil {
			r.logger.Warn("metrics recording failed", "document_id", documentID, "error", err)
		}
	}

	title := original.Title
	if fields.Title != nil {
		title = *fields.Title
	}

	entry := HistoryEntry{
		DocumentID: documentID,
		Title:      title,
		Tags:       result.Document.Tags,
	}
	if result.Document.Correspondent != "" {
		entry.Correspondent = &result.Document.Correspondent
	}
	if result.Document.DocumentType != "" {
		entry.DocumentType = &result.Document.DocumentType
	}
	if result.Document.Language != "" {
		entry.Language = &result.Document.Language
	}

	if err := r.store.RecordHistory(ctx, entry); err != nil {
		r.logger.Warn("history recording failed", "document_id", documentID, "error", err)
	}
}

func tagNames(tags []paperless.Tag) []string {
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = t.Name
	}
	return names
}

func correspondentNames(items []paperless.Correspondent) []string {
	names := make([]string, len(items))
	for i, c := range items {
		names[i] = c.Name
	}
	return names
}

func documentTypeNames(items []paperless.DocumentType) []string {
	names := make([]string, len(items))
	for i, d := range items {
		names[i] = d.Name
	}
	return names
}
