package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-registry/meridian-registry/internal/billing"
	"github.com/meridian-registry/meridian-registry/internal/history"
	"github.com/meridian-registry/meridian-registry/internal/observability"
	"github.com/meridian-registry/meridian-registry/internal/poll"
	transferhttp "github.com/meridian-registry/meridian-registry/internal/transfer/http"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger          *slog.Logger
	Config          *Config
	Metrics         *observability.Metrics
	TransferHandler *transferhttp.Handler
	BillingHandler  *billing.Handler
	PollHandler     *poll.Handler
	HistoryHandler  *history.Handler
}

// NewRouter assembles the provisioning API.
func NewRouter(p RouterParams) http.Handler {
	r := chi.NewRouter()
	for _, mw := range MiddlewareStack(MiddlewareConfig{Logger: p.Logger, Config: p.Config, Metrics: p.Metrics}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if p.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", p.Metrics.Handler())
	}

	r.Route("/v1", func(r chi.Router) {
		r.Route("/resources", func(r chi.Router) {
			p.TransferHandler.MountRoutes(r)
			p.BillingHandler.MountRoutes(r)
		})
		r.Route("/poll", func(r chi.Router) {
			p.PollHandler.MountRoutes(r)
		})
		r.Route("/history", func(r chi.Router) {
			p.HistoryHandler.MountRoutes(r)
		})
	})

	return r
}
