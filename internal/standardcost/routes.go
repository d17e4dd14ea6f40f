package standardcost

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
)

// MountRoutes attaches the ledger API to the router. Promotion hangs off the
// quotation resource because it consumes an approved quotation.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/standard-costs", func(r chi.Router) {
		r.Get("/{configID}/{channel}/current", h.Current)
		r.Get("/{configID}/{channel}/history", h.History)

		r.Group(func(r chi.Router) {
			r.Use(ledgerLimiter())
			r.Post("/{configID}/{channel}/restore/{version}", h.Restore)
			r.Delete("/{configID}", h.Delete)
		})
	})

	r.With(ledgerLimiter()).Post("/quotations/{id}/promote", h.Promote)
}

func ledgerLimiter() func(http.Handler) http.Handler {
	return httprate.Limit(30, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP))
}
