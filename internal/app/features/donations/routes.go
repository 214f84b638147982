// internal/app/features/donations/routes.go
package donations

import (
	"github.com/dalemusser/donationhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes serves the donation endpoints; mount at "/api/donations".
func Routes(h *Handler, mw *auth.Middleware) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(mw.RequireSignedIn)
		pr.Get("/", h.ServeList)
		pr.Get("/me", h.ServeMine)
		pr.Post("/", h.HandleRecord)
		pr.Put("/{id}", h.HandleAmend)
		pr.Delete("/{id}", h.HandleRemove)
	})
	return r
}
