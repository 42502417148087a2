// internal/app/features/auditlog/routes.go
package auditlog

import (
	"github.com/dalemusser/festivo/internal/app/system/auth"
	"github.com/dalemusser/festivo/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the audit log (typically at "/api/admin/audit").
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Use(sm.RequireRole(models.RoleAdmin))
	r.Get("/", h.ServeList)
	return r
}
