package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/JaimeStill/courier/internal/config"
	"github.com/JaimeStill/courier/pkg/handlers"
	"github.com/JaimeStill/courier/pkg/routes"
)

// Handler provides SSE endpoints for pipeline runs.
type Handler struct {
	orch   *Orchestrator
	coord  *Coordinator
	cfg    *config.PipelineConfig
	logger *slog.Logger
}

// NewHandler creates a Handler over the orchestrator and coordinator.
func NewHandler(
	orch *Orchestrator,
	coord *Coordinator,
	cfg *config.PipelineConfig,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		orch:   orch,
		coord:  coord,
		cfg:    cfg,
		logger: logger.With("handler", "pipeline"),
	}
}

// Routes returns the route group definition for pipeline endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Routes: []routes.Route{
			{Method: "POST", Pattern: "/process/{id}", Handler: h.Process},
			{Method: "POST", Pattern: "/process-all", Handler: h.ProcessAll},
			{Method: "POST", Pattern: "/analyze/{id}", Handler: h.Analyze},
		},
	}
}

// Process runs the full pipeline for one document, streaming progress as SSE.
func (h *Handler) Process(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidID)
		return
	}

	h.stream(w, r, func(ctx context.Context, events Emitter) error {
		_, err := h.orch.Process(ctx, id, ProcessOptions{
			AutoAnalyze: h.autoAnalyze(r),
			Events:      events,
		})
		return err
	})
}

// ProcessAll runs the pipeline over every processable queue entry, streaming
// progress as SSE.
func (h *Handler) ProcessAll(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, func(ctx context.Context, events Emitter) error {
		_, err := h.coord.ProcessAll(ctx, BatchOptions{
			AutoAnalyze: h.autoAnalyze(r),
			Events:      events,
		})
		return err
	})
}

// Analyze runs AI analysis over stored OCR text, streaming progress as SSE.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidID)
		return
	}

	h.stream(w, r, func(ctx context.Context, events Emitter) error {
		_, err := h.orch.AnalyzeExisting(ctx, id, events)
		return err
	})
}

// autoAnalyze resolves the analyze query parameter, defaulting from config.
func (h *Handler) autoAnalyze(r *http.Request) bool {
	if v := r.URL.Query().Get("analyze"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return h.cfg.AutoAnalyze
}

// stream renders a pipeline run as SSE. The run executes on a context
// detached from the request: a client disconnect abandons the stream but
// never cancels the in-flight run.
func (h *Handler) stream(
	w http.ResponseWriter,
	r *http.Request,
	run func(ctx context.Context, events Emitter) error,
) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, fmt.Errorf("streaming unsupported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	events := NewStream(h.cfg.EventBuffer)
	runCtx := context.WithoutCancel(r.Context())

	go func() {
		defer events.Close()
		if err := run(runCtx, events); err != nil {
			h.logger.Warn("pipeline run failed", "error", err)
		}
	}()

	for {
		select {
		case <-r.Context().Done():
			// Abandon the stream; the drop policy absorbs remaining events.
			return
		case event, ok := <-events.Events():
			if !ok {
				return
			}
			if err := writeEvent(w, event); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", payload)
	return err
}
