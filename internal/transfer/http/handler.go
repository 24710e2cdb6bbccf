// Package http exposes the transfer flows over the internal provisioning
// API. Wire-protocol framing stays outside this system; requests arrive as
// JSON already stripped of protocol envelopes.
package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-registry/meridian-registry/internal/money"
	"github.com/meridian-registry/meridian-registry/internal/observability"
	"github.com/meridian-registry/meridian-registry/internal/platform/db"
	"github.com/meridian-registry/meridian-registry/internal/platform/httpx"
	"github.com/meridian-registry/meridian-registry/internal/projection"
	"github.com/meridian-registry/meridian-registry/internal/resource"
	"github.com/meridian-registry/meridian-registry/internal/transfer"
)

// Handler serves transfer requests, resolutions and projection queries.
type Handler struct {
	service    *transfer.Service
	projection *projection.Service
	logger     *slog.Logger
	metrics    *observability.Metrics
	validate   *validator.Validate
}

// NewHandler wires the transfer HTTP handler.
func NewHandler(logger *slog.Logger, service *transfer.Service, projectionSvc *projection.Service, metrics *observability.Metrics) *Handler {
	return &Handler{
		service:    service,
		projection: projectionSvc,
		logger:     logger,
		metrics:    metrics,
		validate:   validator.New(),
	}
}

// Request files a transfer request against a resource.
func (h *Handler) Request(w http.ResponseWriter, r *http.Request) {
	registrarID := r.Header.Get("X-Registrar-ID")
	if registrarID == "" {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "registrar id required")
		return
	}
	var body requestBody
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validate.Struct(body); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	in, err := body.toInput(chi.URLParam(r, "id"), registrarID, r.Header.Get("X-Superuser") == "1")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	result, err := h.service.Request(r.Context(), in)
	if err != nil {
		h.metrics.ObserveFlow("transfer_request", "error")
		h.respondFlowError(w, err)
		return
	}
	h.metrics.ObserveFlow("transfer_request", "ok")
	httpx.JSON(w, http.StatusOK, requestResponse{
		Transfer: toTransferDataResponse(result.Transfer),
		Fee:      result.FeeResponse,
	})
}

// Approve resolves a pending transfer in favor of the gaining registrar.
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, "transfer_approve", h.service.Approve)
}

// Reject resolves a pending transfer against the gaining registrar.
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, "transfer_reject", h.service.Reject)
}

// Cancel withdraws a pending transfer request.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, "transfer_cancel", h.service.Cancel)
}

func (h *Handler) resolve(w http.ResponseWriter, r *http.Request, flow string, fn func(context.Context, transfer.ResolveInput) (resource.TransferData, error)) {
	registrarID := r.Header.Get("X-Registrar-ID")
	if registrarID == "" {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "registrar id required")
		return
	}
	td, err := fn(r.Context(), transfer.ResolveInput{
		TargetID: chi.URLParam(r, "id"),
		ActorID:  registrarID,
	})
	if err != nil {
		h.metrics.ObserveFlow(flow, "error")
		h.respondFlowError(w, err)
		return
	}
	h.metrics.ObserveFlow(flow, "ok")
	httpx.JSON(w, http.StatusOK, requestResponse{Transfer: toTransferDataResponse(td)})
}

// Query returns the projected transfer state as of now.
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	view, err := h.projection.Query(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, resource.ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
			return
		}
		h.logger.Error("transfer query", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	out := queryResponse{
		Status:            view.TransferStatus,
		SponsorID:         view.Resource.SponsorID,
		ExpirationTime:    view.Resource.ExpirationTime,
		PendingResolution: view.PendingResolution,
		TransferCompleted: view.TransferCompleted,
	}
	httpx.JSON(w, http.StatusOK, out)
}

// respondFlowError maps domain failures to problem responses. Authorization
// failures stay pass/fail; transient store exhaustion surfaces as a generic
// internal error, never as a domain failure.
func (h *Handler) respondFlowError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, transfer.ErrResourceNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, transfer.ErrAlreadyPending),
		errors.Is(err, transfer.ErrAlreadySponsored),
		errors.Is(err, transfer.ErrNotPending),
		errors.Is(err, transfer.ErrStatusProhibitsOperation):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, transfer.ErrMissingAuthInfo),
		errors.Is(err, transfer.ErrBadAuthInfo):
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "auth info check failed")
	case errors.Is(err, transfer.ErrNotAuthorizedForTLD),
		errors.Is(err, transfer.ErrNotTransferParty),
		errors.Is(err, transfer.ErrUnknownRegistrar),
		errors.Is(err, transfer.ErrPremiumNameBlocked):
		httpx.Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, transfer.ErrBadPeriodUnit),
		errors.Is(err, transfer.ErrFeesRequiredForPremiumName),
		errors.Is(err, transfer.ErrFeesMismatch),
		errors.Is(err, money.ErrCurrencyMismatch),
		errors.Is(err, money.ErrValueScale),
		errors.Is(err, money.ErrUnknownCurrency):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, db.ErrTxAttemptsExhausted):
		h.logger.Warn("transfer flow contention", slog.Any("error", err))
		httpx.Problem(w, http.StatusServiceUnavailable, "Temporarily Unavailable", "please retry")
	default:
		h.logger.Error("transfer flow", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
