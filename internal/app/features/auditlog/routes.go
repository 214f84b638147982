// internal/app/features/auditlog/routes.go
package auditlog

import (
	"github.com/dalemusser/donationhub/internal/app/system/auth"
	"github.com/dalemusser/donationhub/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the audit log under the path where this router is mounted
// (typically "/api/audit" from bootstrap). Access is restricted to admins.
func Routes(h *Handler, mw *auth.Middleware) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(mw.RequireSignedIn)
		pr.Use(auth.RequireCapability(authz.CapAdmin))

		pr.Get("/", h.ServeList)
	})

	return r
}
