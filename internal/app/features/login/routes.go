// internal/app/features/login/routes.go
package login

import (
	"github.com/dalemusser/donationhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes serves sign-in; mount at "/api/login".
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.HandleLogin)
	return r
}

// RegisterRoutes serves account creation; mount at "/api/register". A bearer
// token is optional here and only matters for privileged roles.
func RegisterRoutes(h *Handler, mw *auth.Middleware) chi.Router {
	r := chi.NewRouter()
	r.With(mw.LoadUser).Post("/", h.HandleRegister)
	return r
}
