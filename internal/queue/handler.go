package queue

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/JaimeStill/courier/pkg/handlers"
	"github.com/JaimeStill/courier/pkg/pagination"
	"github.com/JaimeStill/courier/pkg/routes"
)

// Handler provides HTTP endpoints for queue operations.
type Handler struct {
	sys        System
	logger     *slog.Logger
	pagination pagination.Config
}

// NewHandler creates a Handler with the given system, logger, and pagination config.
func NewHandler(
	sys System,
	logger *slog.Logger,
	pagination pagination.Config,
) *Handler {
	return &Handler{
		sys:        sys,
		logger:     logger.With("handler", "queue"),
		pagination: pagination,
	}
}

// Routes returns the route group definition for queue endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/queue",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "GET", Pattern: "/stats", Handler: h.Stats},
			{Method: "GET", Pattern: "/{id}/text", Handler: h.Text},
			{Method: "POST", Pattern: "", Handler: h.Add},
			{Method: "DELETE", Pattern: "/{id}", Handler: h.Remove},
		},
	}
}

// List returns a paginated list of queue entries with optional query parameter filters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	filters := FiltersFromQuery(r.URL.Query())

	result, err := h.sys.List(r.Context(), page, filters)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Stats returns queue entry counts per status.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.sys.Stats(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, stats)
}

// Text returns the stored OCR text for a document.
func (h *Handler) Text(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidID)
		return
	}

	text, err := h.sys.Text(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, map[string]any{
		"document_id": id,
		"ocr_text":    text,
	})
}

// Add enqueues a document manually from a JSON body.
func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	var cmd AddCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidID)
		return
	}

	entry, err := h.sys.Add(r.Context(), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, entry)
}

// Remove deletes a queue entry unless it is currently processing.
func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidID)
		return
	}

	if err := h.sys.Remove(r.Context(), id); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
