// internal/app/features/authapi/routes.go
package authapi

import (
	"github.com/dalemusser/festivo/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the auth API (typically at "/api/auth").
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Post("/signup", h.HandleSignup)
	r.Post("/login", h.HandleLogin)
	r.Post("/logout", h.HandleLogout)

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/me", h.ServeMe)
	})
	return r
}
