// internal/app/features/verification/routes.go
package verification

import (
	"github.com/dalemusser/festivo/internal/app/system/auth"
	"github.com/dalemusser/festivo/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the verification endpoints (typically at
// "/api/verification"). Every route is limited to staff.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequireRole(authz.StaffRoles...))

		pr.Post("/verify", h.HandleVerify)
		pr.Post("/attendance", h.HandleAttendance)
		pr.Get("/attendance/{registrationId}", h.ServeAttendance)
	})
	return r
}
