// internal/app/features/coordinator/routes.go
package coordinator

import (
	"github.com/dalemusser/festivo/internal/app/system/auth"
	"github.com/dalemusser/festivo/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the coordinator console (typically at "/api/coordinator").
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	// Views across every committee the caller coordinates.
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequireRole(models.RoleCoordinator))
		pr.Use(h.RequireCoordinatorAccess)

		pr.Get("/committees", h.ServeCommittees)
		pr.Get("/dashboard", h.ServeDashboard)
		pr.Get("/members/available", h.ServeAvailableMembers)
		pr.Get("/registrations", h.ServeRegistrations)
		pr.Get("/reports", h.ServeReports)
	})

	// Views of one coordinated committee.
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequireRole(models.RoleCoordinator))

		pr.Get("/{cid}/dashboard", h.ServeCommitteeDashboard)
		pr.Get("/{cid}/members/available", h.ServeCommitteeAvailableMembers)
		pr.Get("/{cid}/reports", h.ServeCommitteeReports)
	})

	// Member management. The engine checks the caller coordinates the
	// committee unless they are an admin.
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequireRole(models.RoleCoordinator, models.RoleAdmin))

		pr.Post("/{cid}/members", h.HandleAddMember)
		pr.Delete("/{cid}/members/{mid}", h.HandleRemoveMember)
	})

	return r
}
