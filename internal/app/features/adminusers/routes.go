// internal/app/features/adminusers/routes.go
package adminusers

import (
	"github.com/dalemusser/festivo/internal/app/system/auth"
	"github.com/dalemusser/festivo/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the admin API (typically at "/api/admin"). Every route is
// admin-only.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Use(sm.RequireRole(models.RoleAdmin))

	r.Get("/users", h.ServeUsers)
	r.Put("/users/{id}", h.HandleUpdateProfile)
	r.Put("/users/{id}/role", h.HandleAssignRole)
	r.Put("/users/{id}/committee", h.HandleAssignCommittee)
	r.Delete("/users/{id}/committee", h.HandleUnassignCommittee)
	r.Put("/users/{id}/block", h.HandleBlock)
	r.Delete("/users/{id}", h.HandleDelete)

	r.Post("/committees/{cid}/coordinators", h.HandleAddCoordinator)
	r.Delete("/committees/{cid}/coordinators/{uid}", h.HandleRemoveCoordinator)

	r.Get("/registrations", h.ServeRegistrations)
	r.Put("/registrations/{id}/payment", h.HandleSetPayment)

	r.Get("/stats", h.ServeStats)

	return r
}
