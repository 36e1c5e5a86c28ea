package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/JaimeStill/courier/internal/analysis"
	"github.com/JaimeStill/courier/internal/failures"
	"github.com/JaimeStill/courier/internal/ocr"
	"github.com/JaimeStill/courier/internal/paperless"
	"github.com/JaimeStill/courier/internal/queue"
	"github.com/JaimeStill/courier/pkg/storage"
)

// previewLength bounds the OCR text preview included in progress events.
const previewLength = 120

// ProcessOptions controls a single-document run.
type ProcessOptions struct {
	AutoAnalyze bool
	Events      Emitter
}

// Result is the outcome of a successful single-document run.
type Result struct {
	DocumentID int              `json:"document_id"`
	OCRText    string           `json:"ocr_text"`
	WroteBack  bool             `json:"wrote_back"`
	Analysis   *analysis.Result `json:"analysis,omitempty"`
}

// Orchestrator drives documents through the processing pipeline. Runner and
// archive are optional: a nil runner disables the AI step, a nil archive
// disables artifact snapshots.
type Orchestrator struct {
	queue    queue.System
	failures failures.System
	backend  paperless.Client
	ocr      ocr.Client
	runner   *analysis.Runner
	archive  storage.System
	locks    *lockRegistry
	logger   *slog.Logger
}

// NewOrchestrator assembles an Orchestrator over the given collaborators.
func NewOrchestrator(
	queueSys queue.System,
	failureSys failures.System,
	backend paperless.Client,
	ocrClient ocr.Client,
	runner *analysis.Runner,
	archive storage.System,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		queue:    queueSys,
		failures: failureSys,
		backend:  backend,
		ocr:      ocrClient,
		runner:   runner,
		archive:  archive,
		locks:    newLockRegistry(),
		logger:   logger.With("system", "pipeline"),
	}
}

// Process runs the full pipeline for one document: download, OCR, best-effort
// writeback, persistence, and optional AI analysis. Fatal step errors mark
// the entry failed; writeback rejection and AI failure do not.
func (o *Orchestrator) Process(ctx context.Context, documentID int, opts ProcessOptions) (*Result, error) {
	if documentID < 1 {
		return nil, ErrInvalidID
	}

	events := opts.Events
	if events == nil {
		events = nopEmitter{}
	}

	if !o.locks.TryAcquire(documentID) {
		events.Emit(StepError, ErrAlreadyProcessing.Error(), nil)
		return nil, ErrAlreadyProcessing
	}
	defer o.locks.Release(documentID)

	runID := uuid.New().String()
	logger := o.logger.With("document_id", documentID, "run_id", runID)

	if err := o.queue.SetStatus(ctx, documentID, queue.StatusProcessing, nil); err != nil {
		events.Emit(StepError, err.Error(), nil)
		return nil, err
	}

	fail := func(step string, err error) (*Result, error) {
		logger.Error("processing failed", "step", step, "error", err)
		if statusErr := o.queue.SetStatus(ctx, documentID, queue.StatusFailed, nil); statusErr != nil {
			logger.Error("failed status update rejected", "error", statusErr)
		}
		events.Emit(StepError, err.Error(), nil)
		return nil, err
	}

	// Download.
	events.Emit(StepDownload, fmt.Sprintf("Downloading document %d from backend", documentID), nil)
	data, mimeType, err := o.backend.DownloadDocument(ctx, documentID)
	if err != nil {
		return fail("download", fmt.Errorf("download failed: %w", err))
	}

	downloadData := map[string]any{"bytes": len(data), "mime_type": mimeType}
	if pages, ok := pageCount(data, mimeType); ok {
		downloadData["pages"] = pages
	}
	events.Emit(StepDownload, fmt.Sprintf("Download complete (%s)", mimeType), downloadData)

	// OCR.
	events.Emit(StepOCR, "Sending document to OCR provider", nil)
	text, err := o.ocr.ExtractText(ctx, data, mimeType)
	if err != nil {
		return fail("ocr", fmt.Errorf("ocr failed: %w", err))
	}

	events.Emit(StepOCR, fmt.Sprintf("OCR complete, extracted %d characters", len(text)), map[string]any{
		"chars":   len(text),
		"preview": preview(text),
	})

	// Writeback is best-effort: a rejecting or unreachable backend content
	// endpoint leaves the text stored locally only.
	events.Emit(StepWriteback, "Writing OCR text back to backend", nil)
	wroteBack, err := o.backend.PatchContent(ctx, documentID, text)
	if err != nil {
		logger.Warn("content writeback unavailable", "error", err)
		wroteBack = false
	}
	if wroteBack {
		events.Emit(StepWriteback, "OCR text written to backend", nil)
	} else {
		events.Emit(StepWriteback, "Backend does not allow content writeback, OCR text stored locally", nil)
	}

	if err := o.queue.SetStatus(ctx, documentID, queue.StatusDone, &text); err != nil {
		return fail("persist", fmt.Errorf("persist ocr text: %w", err))
	}

	o.archiveText(ctx, logger, documentID, runID, text)

	result := &Result{
		DocumentID: documentID,
		OCRText:    text,
		WroteBack:  wroteBack,
	}

	// AI analysis failure is reported but never regresses the done status.
	if opts.AutoAnalyze && o.runner != nil {
		events.Emit(StepAI, "Starting AI analysis with OCR text", nil)
		res, err := o.runner.Analyze(ctx, documentID, text)
		if err != nil {
			logger.Warn("auto analysis failed", "error", err)
			events.Emit(StepAI, fmt.Sprintf("AI analysis failed: %s. OCR text is still available.", err), nil)
		} else {
			result.Analysis = res
			events.Emit(StepAI, "AI analysis complete", nil)
		}
	}

	events.Emit(StepDone, "Processing finished successfully", nil)
	logger.Info("processing complete", "wrote_back", wroteBack, "chars", len(text))
	return result, nil
}

// AnalyzeExisting runs only the AI step over previously stored OCR text.
func (o *Orchestrator) AnalyzeExisting(ctx context.Context, documentID int, events Emitter) (*analysis.Result, error) {
	if documentID < 1 {
		return nil, ErrInvalidID
	}
	if o.runner == nil {
		return nil, ErrAnalysisDisabled
	}

	if events == nil {
		events = nopEmitter{}
	}

	text, err := o.queue.Text(ctx, documentID)
	if err != nil {
		if errors.Is(err, queue.ErrNoText) {
			err = ErrNoOCRText
		}
		events.Emit(StepError, err.Error(), nil)
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		events.Emit(StepError, ErrNoOCRText.Error(), nil)
		return nil, ErrNoOCRText
	}

	if !o.locks.TryAcquire(documentID) {
		events.Emit(StepError, ErrAlreadyProcessing.Error(), nil)
		return nil, ErrAlreadyProcessing
	}
	defer o.locks.Release(documentID)

	events.Emit(StepAI, fmt.Sprintf("Starting AI analysis for document %d using stored OCR text", documentID), nil)
	res, err := o.runner.Analyze(ctx, documentID, text)
	if err != nil {
		events.Emit(StepError, fmt.Sprintf("AI analysis failed: %s", err), nil)
		return nil, err
	}

	events.Emit(StepAI, "AI analysis complete", nil)
	events.Emit(StepDone, "Analysis finished successfully", nil)
	return res, nil
}

// Quarantine escalates a document to a permanent failure, removing its queue
// entry in the same transaction.
func (o *Orchestrator) Quarantine(ctx context.Context, documentID int, reason string, source failures.Source) error {
	_, err := o.failures.Add(ctx, documentID, reason, source)
	return err
}

func (o *Orchestrator) archiveText(ctx context.Context, logger *slog.Logger, documentID int, runID, text string) {
	if o.archive == nil {
		return
	}

	key := fmt.Sprintf("ocr/%d/%s.md", documentID, runID)
	if err := o.archive.Upload(ctx, key, strings.NewReader(text), "text/markdown"); err != nil {
		logger.Warn("artifact archive failed", "key", key, "error", err)
		return
	}
	logger.Debug("artifact archived", "key", key)
}

func preview(text string) string {
	if len(text) <= previewLength {
		return text
	}
	return text[:previewLength]
}

// pageCount reports the PDF page count for downloaded bytes. Non-PDF content
// and unreadable PDFs yield no count.
func pageCount(data []byte, mimeType string) (int, bool) {
	if !strings.Contains(mimeType, "pdf") {
		return 0, false
	}

	count, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		return 0, false
	}
	return count, true
}
