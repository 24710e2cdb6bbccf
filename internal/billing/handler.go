package billing

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/meridian-registry/meridian-registry/internal/platform/httpx"
	"github.com/meridian-registry/meridian-registry/internal/shared"
)

// Handler exposes the ledger for reporting consumers.
type Handler struct {
	repo   Repository
	logger *slog.Logger
}

// NewHandler returns a billing ledger handler.
func NewHandler(logger *slog.Logger, repo Repository) *Handler {
	return &Handler{repo: repo, logger: logger}
}

type recordResponse struct {
	ID            string     `json:"id"`
	Kind          Kind       `json:"kind"`
	Reason        Reason     `json:"reason"`
	RegistrarID   string     `json:"registrar_id"`
	EventTime     time.Time  `json:"event_time"`
	Cost          string     `json:"cost,omitempty"`
	Currency      string     `json:"currency,omitempty"`
	PeriodYears   int        `json:"period_years,omitempty"`
	BillingTime   *time.Time `json:"billing_time,omitempty"`
	RecurrenceEnd *time.Time `json:"recurrence_end,omitempty"`
	CancelledID   string     `json:"cancelled_event_id,omitempty"`
}

// List returns every ledger row recorded against a resource, oldest first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	records, err := h.repo.ListByTarget(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.logger.Error("billing ledger", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	out := make([]recordResponse, 0, len(records))
	for _, rec := range records {
		row := recordResponse{
			ID:          rec.ID.String(),
			Kind:        rec.RowKind,
			Reason:      rec.Reason,
			RegistrarID: rec.RegistrarID,
			EventTime:   rec.EventTime,
			PeriodYears: rec.PeriodYears,
			BillingTime: rec.BillingTime,
		}
		if rec.Cost != nil {
			row.Cost = rec.Cost.Amount.String()
			row.Currency = rec.Cost.Currency
		}
		if rec.RecurrenceEnd != nil && !shared.IsEndOfTime(*rec.RecurrenceEnd) {
			row.RecurrenceEnd = rec.RecurrenceEnd
		}
		if rec.EventID != uuid.Nil {
			row.CancelledID = rec.EventID.String()
		}
		out = append(out, row)
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"events": out})
}

// MountRoutes attaches ledger endpoints under the resources tree.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/{id}/billing", h.List)
}
