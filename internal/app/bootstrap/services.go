// internal/app/bootstrap/services.go
package bootstrap

import (
	"github.com/dalemusser/festivo/internal/app/membership"
	"github.com/dalemusser/festivo/internal/app/participation"
	"github.com/dalemusser/festivo/internal/app/reporting"
	auditstore "github.com/dalemusser/festivo/internal/app/store/audit"
	"github.com/dalemusser/festivo/internal/app/system/auditlog"
	"go.uber.org/zap"
)

// services bundles the domain services shared by the feature handlers.
type services struct {
	Audit         *auditlog.Logger
	Membership    *membership.Engine
	Participation *participation.Service
	Reporting     *reporting.Service
}

func newServices(appCfg AppConfig, deps DBDeps, logger *zap.Logger) (services, error) {
	mode, err := membership.ParseTxMode(appCfg.MembershipTxMode)
	if err != nil {
		return services{}, err
	}
	db := deps.MongoDatabase

	audit := auditlog.New(auditstore.New(db), logger, auditlog.Config{
		Auth:          appCfg.AuditLogAuth,
		Admin:         appCfg.AuditLogAdmin,
		Membership:    appCfg.AuditLogMembership,
		Participation: appCfg.AuditLogParticipation,
	})
	repo := membership.NewMongoRepo(db, mode, deps.Metrics, logger)

	return services{
		Audit:         audit,
		Membership:    membership.New(repo, audit, deps.Metrics, logger),
		Participation: participation.New(db, audit, deps.Metrics, logger),
		Reporting:     reporting.New(db),
	}, nil
}
