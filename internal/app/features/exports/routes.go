// internal/app/features/exports/routes.go
package exports

import (
	"github.com/dalemusser/festivo/internal/app/system/auth"
	"github.com/dalemusser/festivo/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the exports (typically at "/api/admin/export").
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Use(sm.RequireRole(models.RoleAdmin))

	r.Get("/participants", h.ServeParticipantsCSV)
	r.Get("/attendance", h.ServeAttendanceCSV)

	return r
}
