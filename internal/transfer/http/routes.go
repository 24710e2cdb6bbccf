package http

import "github.com/go-chi/chi/v5"

// MountRoutes attaches transfer endpoints to the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/{id}/transfer", h.Query)
	r.Post("/{id}/transfer", h.Request)
	r.Post("/{id}/transfer/approve", h.Approve)
	r.Post("/{id}/transfer/reject", h.Reject)
	r.Post("/{id}/transfer/cancel", h.Cancel)
}
