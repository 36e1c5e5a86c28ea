package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JaimeStill/courier/internal/queue"
)

// BatchOptions controls a batch run.
type BatchOptions struct {
	AutoAnalyze bool
	Events      Emitter
}

// BatchItem records the outcome of one document within a batch.
type BatchItem struct {
	DocumentID int    `json:"document_id"`
	Succeeded  bool   `json:"succeeded"`
	Error      string `json:"error,omitempty"`
}

// BatchResult aggregates a batch run.
type BatchResult struct {
	Total     int         `json:"total"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
	Items     []BatchItem `json:"items"`
}

// Coordinator runs the pipeline over every processable queue entry. Items are
// processed strictly sequentially: the external providers rate-limit, and one
// in-flight document at a time keeps the service inside those limits.
type Coordinator struct {
	orch   *Orchestrator
	queue  queue.System
	logger *slog.Logger
}

// NewCoordinator creates a Coordinator over the orchestrator and queue.
func NewCoordinator(orch *Orchestrator, queueSys queue.System, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		orch:   orch,
		queue:  queueSys,
		logger: logger.With("system", "pipeline"),
	}
}

// ProcessAll processes a snapshot of the pending and failed entries taken at
// invocation. An item failure is recorded in the result and never aborts the
// batch.
func (c *Coordinator) ProcessAll(ctx context.Context, opts BatchOptions) (*BatchResult, error) {
	events := opts.Events
	if events == nil {
		events = nopEmitter{}
	}

	entries, err := c.queue.ListProcessable(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot processable entries: %w", err)
	}

	runID := uuid.New().String()
	logger := c.logger.With("run_id", runID)

	result := &BatchResult{
		Total: len(entries),
		Items: make([]BatchItem, 0, len(entries)),
	}

	events.Emit(StepStart, fmt.Sprintf("Processing %d queued documents", len(entries)), map[string]any{
		"total":  len(entries),
		"run_id": runID,
	})

	for i, entry := range entries {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("batch interrupted: %w", err)
		}

		events.Emit(StepProgress, fmt.Sprintf("Processing document %d (%d of %d)", entry.DocumentID, i+1, len(entries)), map[string]any{
			"document_id": entry.DocumentID,
			"current":     i + 1,
			"total":       len(entries),
		})

		item := BatchItem{DocumentID: entry.DocumentID}
		_, err := c.orch.Process(ctx, entry.DocumentID, ProcessOptions{
			AutoAnalyze: opts.AutoAnalyze,
			Events:      itemEmitter{inner: events, documentID: entry.DocumentID},
		})
		if err != nil {
			item.Error = err.Error()
			result.Failed++
			logger.Warn("batch item failed", "document_id", entry.DocumentID, "error", err)
		} else {
			item.Succeeded = true
			result.Succeeded++
		}

		result.Items = append(result.Items, item)
	}

	events.Emit(StepDone, fmt.Sprintf("Batch complete: %d succeeded, %d failed", result.Succeeded, result.Failed), map[string]any{
		"total":     result.Total,
		"succeeded": result.Succeeded,
		"failed":    result.Failed,
	})

	logger.Info("batch complete",
		"total", result.Total,
		"succeeded", result.Succeeded,
		"failed", result.Failed,
	)
	return result, nil
}
