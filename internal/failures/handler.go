package failures

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/JaimeStill/courier/pkg/handlers"
	"github.com/JaimeStill/courier/pkg/pagination"
	"github.com/JaimeStill/courier/pkg/routes"
)

// Handler provides HTTP endpoints for permanent failure operations.
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
		logger:     logger.With("handler", "failures"),
		pagination: pagination,
	}
}

// Routes returns the route group definition for failure endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/failures",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "GET", Pattern: "/stats", Handler: h.Stats},
			{Method: "POST", Pattern: "/{id}/reset", Handler: h.Reset},
		},
	}
}

// List returns a paginated list of permanent failures with optional query
// parameter filters.
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

// Stats returns permanent failure counts per source.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.sys.Stats(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, stats)
}

// Reset deletes a failure record so the document can be scanned again.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidID)
		return
	}

	if err := h.sys.Reset(r.Context(), id); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, map[string]any{
		"document_id": id,
		"reset":       true,
	})
}
