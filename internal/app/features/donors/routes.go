// internal/app/features/donors/routes.go
package donors

import (
	"github.com/dalemusser/donationhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes serves the donor endpoints; mount at "/api/donors". Any signed-in
// user may list, add and delete donors.
func Routes(h *Handler, mw *auth.Middleware) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(mw.RequireSignedIn)
		pr.Get("/", h.ServeList)
		pr.Post("/", h.HandleCreate)
		pr.Delete("/{id}", h.HandleDelete)
	})
	return r
}
