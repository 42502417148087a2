// internal/app/features/scores/routes.go
package scores

import (
	"github.com/dalemusser/festivo/internal/app/system/auth"
	"github.com/dalemusser/festivo/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the score endpoints (typically at "/api/scores").
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	// Public scoreboard
	r.Get("/event/{eventId}", h.ServeScoreboard)

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/registration/{registrationId}", h.ServeRegistrationScores)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequireRole(authz.StaffRoles...))
		pr.Post("/", h.HandleSubmit)
	})

	return r
}
