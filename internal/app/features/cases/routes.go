// internal/app/features/cases/routes.go
package cases

import (
	"github.com/dalemusser/donationhub/internal/app/system/auth"
	"github.com/dalemusser/donationhub/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// Routes serves the case endpoints; mount at "/api/cases". Listing is open
// to any signed-in user; changes are admin only.
func Routes(h *Handler, mw *auth.Middleware) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(mw.RequireSignedIn)
		pr.Get("/", h.ServeList)

		pr.Group(func(ar chi.Router) {
			ar.Use(auth.RequireCapability(authz.CapAdmin))
			ar.Post("/", h.HandleCreate)
			ar.Put("/{id}", h.HandleUpdate)
			ar.Delete("/{id}", h.HandleDelete)
		})
	})
	return r
}
