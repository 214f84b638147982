// internal/app/features/userinfo/routes.go
package userinfo

import (
	"github.com/dalemusser/donationhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes serves the caller's profile; mount at "/api/me".
func Routes(h *Handler, mw *auth.Middleware) chi.Router {
	r := chi.NewRouter()
	r.Use(mw.RequireSignedIn)
	r.Get("/", h.ServeUserInfo)
	return r
}
