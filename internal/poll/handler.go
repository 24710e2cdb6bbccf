package poll

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/meridian-registry/meridian-registry/internal/platform/httpx"
)

// Handler exposes the per-registrar poll queue.
type Handler struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

// NewHandler returns a poll queue handler.
func NewHandler(logger *slog.Logger, repo Repository) *Handler {
	return &Handler{repo: repo, logger: logger, now: time.Now}
}

// WithNow overrides the clock, for tests.
func (h *Handler) WithNow(now func() time.Time) {
	if now != nil {
		h.now = now
	}
}

type messageResponse struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	TargetID  string    `json:"target_id"`
	EventTime time.Time `json:"event_time"`
	Msg       string    `json:"msg"`
}

// List returns the registrar's pending messages as of now.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	registrarID := r.Header.Get("X-Registrar-ID")
	if registrarID == "" {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "registrar id required")
		return
	}
	messages, err := h.repo.ListPending(r.Context(), registrarID, h.now())
	if err != nil {
		h.logger.Error("list poll messages", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	out := make([]messageResponse, 0, len(messages))
	for _, m := range messages {
		out = append(out, messageResponse{
			ID:        m.ID.String(),
			Kind:      m.Kind,
			TargetID:  m.TargetID,
			EventTime: m.EventTime,
			Msg:       m.Msg,
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"messages": out})
}

// Ack acknowledges and removes one message from the queue.
func (h *Handler) Ack(w http.ResponseWriter, r *http.Request) {
	registrarID := r.Header.Get("X-Registrar-ID")
	if registrarID == "" {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "registrar id required")
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid message id")
		return
	}
	if err := h.repo.Ack(r.Context(), registrarID, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
			return
		}
		h.logger.Error("ack poll message", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MountRoutes attaches poll endpoints to the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/{id}/ack", h.Ack)
}
