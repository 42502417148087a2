// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dalemusser/festivo/internal/app/membership"
	userstore "github.com/dalemusser/festivo/internal/app/store/users"
	"github.com/dalemusser/festivo/internal/app/system/timeouts"
	"github.com/dalemusser/festivo/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. It
// applies configured timeouts, promotes the bootstrap admin and starts
// background jobs.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(timeouts.Config{
		Short:  appCfg.TimeoutShort,
		Medium: appCfg.TimeoutMedium,
		Long:   appCfg.TimeoutLong,
	})

	svc, err := newServices(appCfg, deps, logger)
	if err != nil {
		return err
	}
	if err := ensureSuperAdmin(ctx, userstore.New(deps.MongoDatabase), svc.Membership, appCfg.SuperAdminEmail, logger); err != nil {
		return err
	}

	if deps.Tasks != nil {
		deps.Tasks.Start()
	}
	return nil
}

// ensureSuperAdmin promotes the configured email to admin through the
// membership engine. Accounts are never created here; a missing account
// is logged and skipped so the first admin can sign up and restart.
func ensureSuperAdmin(ctx context.Context, users *userstore.Store, engine *membership.Engine, email string, logger *zap.Logger) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil
	}

	u, err := users.GetByEmail(ctx, email)
	if errors.Is(err, mongo.ErrNoDocuments) {
		logger.Warn("superadmin email has no account yet; sign up and restart to promote",
			zap.String("email", email))
		return nil
	}
	if err != nil {
		return fmt.Errorf("lookup superadmin: %w", err)
	}
	if u.Role == models.RoleAdmin {
		return nil
	}

	if _, err := engine.AssignRole(ctx, membership.System, membership.AssignRoleParams{
		UserID: u.ID,
		Role:   models.RoleAdmin,
	}); err != nil {
		return fmt.Errorf("promote superadmin: %w", err)
	}
	logger.Info("promoted superadmin", zap.String("email", email), zap.String("previous_role", u.Role))
	return nil
}
