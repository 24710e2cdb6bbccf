package history

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-registry/meridian-registry/internal/platform/httpx"
)

// Handler exposes the history timeline for reporting consumers.
type Handler struct {
	repo   Repository
	logger *slog.Logger
}

// NewHandler returns a history timeline handler.
func NewHandler(logger *slog.Logger, repo Repository) *Handler {
	return &Handler{repo: repo, logger: logger}
}

// Timeline lists history entries, newest first.
func (h *Handler) Timeline(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := TimelineFilter{
		ResourceID:  q.Get("resource"),
		RegistrarID: q.Get("registrar"),
	}
	if v := q.Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "from must be RFC3339")
			return
		}
		filter.From = t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "to must be RFC3339")
			return
		}
		filter.To = t
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "limit must be an integer")
			return
		}
		filter.Limit = n
	}
	entries, err := h.repo.Timeline(r.Context(), filter)
	if err != nil {
		h.logger.Error("history timeline", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"entries": entries})
}

// MountRoutes attaches history endpoints to the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.Timeline)
}
