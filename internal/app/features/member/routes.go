// internal/app/features/member/routes.go
package member

import (
	"github.com/dalemusser/festivo/internal/app/system/auth"
	"github.com/dalemusser/festivo/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the member console (typically at "/api/member").
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Use(sm.RequireRole(models.RoleMember))
	r.Use(h.RequireCommittee)

	r.Get("/committee", h.ServeCommittee)
	r.Get("/dashboard", h.ServeDashboard)
	r.Get("/reports", h.ServeReports)
	r.Get("/registrations", h.ServeRegistrations)

	return r
}
