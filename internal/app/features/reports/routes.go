// internal/app/features/reports/routes.go
package reports

import (
	"github.com/dalemusser/donationhub/internal/app/system/auth"
	"github.com/dalemusser/donationhub/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// Routes serves the admin report; mount at "/api/reports".
func Routes(h *Handler, mw *auth.Middleware) chi.Router {
	r := chi.NewRouter()
	r.Group(func(rr chi.Router) {
		rr.Use(mw.RequireSignedIn)
		rr.Use(auth.RequireCapability(authz.CapAdmin))
		rr.Get("/", h.ServeReport)
	})
	return r
}
