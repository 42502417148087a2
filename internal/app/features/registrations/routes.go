// internal/app/features/registrations/routes.go
package registrations

import (
	"github.com/dalemusser/festivo/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// MountEventRoutes adds the per-event registration routes to the events
// router, which bootstrap mounts at "/api/events".
func MountEventRoutes(r chi.Router, h *Handler, sm *auth.SessionManager) {
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Post("/{id}/register", h.HandleRegister)
		pr.Get("/{id}/registrations", h.ServeEventRegistrations)
	})
}

// UserRoutes serves a user's own registrations (typically mounted at
// "/api/users").
func UserRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/{id}/registrations", h.ServeUserRegistrations)
	})
	return r
}

// Routes serves the same endpoints under a single prefix (typically
// "/api/registrations"): /events/{id}/register, /events/{id}/registrations
// and /users/{id}/registrations.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Route("/events", func(er chi.Router) {
		MountEventRoutes(er, h, sm)
	})
	r.Mount("/users", UserRoutes(h, sm))
	return r
}
