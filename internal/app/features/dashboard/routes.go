// internal/app/features/dashboard/routes.go
package dashboard

import (
	"github.com/dalemusser/donationhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes wires the dashboard under whatever mount point the top-level router
// chooses (e.g., "/api/dashboard").
func Routes(h *Handler, mw *auth.Middleware) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(mw.RequireSignedIn)
		pr.Get("/", h.ServeDashboard)
	})
	return r
}
