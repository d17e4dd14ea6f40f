package quotation

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
)

// MountRoutes attaches the quotation API to the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/calculate", h.Calculate)

	r.Route("/quotations", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/{id}", h.Show)
		r.Get("/{id}/events", h.Events)

		r.Group(func(r chi.Router) {
			// Mutations share a tighter per-IP rate limit than reads.
			r.Use(mutationLimiter())
			r.Post("/", h.Create)
			r.Put("/{id}", h.Update)
			r.Delete("/{id}", h.Delete)
			r.Post("/{id}/submit", h.Submit)
			r.Post("/{id}/resubmit", h.Submit)
			r.Post("/{id}/approve", h.Approve)
			r.Post("/{id}/reject", h.Reject)
		})
	})
}

func mutationLimiter() func(http.Handler) http.Handler {
	return httprate.Limit(30, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP))
}
