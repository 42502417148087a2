// internal/app/features/authapi/handler.go
package authapi

import (
	uierrors "github.com/dalemusser/festivo/internal/app/features/errors"
	userstore "github.com/dalemusser/festivo/internal/app/store/users"
	"github.com/dalemusser/festivo/internal/app/system/auditlog"
	"github.com/dalemusser/festivo/internal/app/system/auth"
	"github.com/dalemusser/festivo/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves password signup and login for the SPA. Successful calls
// set the session cookie and return a bearer token.
type Handler struct {
	DB         *mongo.Database
	Log        *zap.Logger
	ErrLog     *uierrors.ErrorLogger
	AuditLog   *auditlog.Logger
	SessionMgr *auth.SessionManager
	Limiter    *ratelimit.LoginLimiter

	users *userstore.Store
}

func NewHandler(db *mongo.Database, sessionMgr *auth.SessionManager, limiter *ratelimit.LoginLimiter, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:         db,
		Log:        logger,
		ErrLog:     errLog,
		AuditLog:   audit,
		SessionMgr: sessionMgr,
		Limiter:    limiter,
		users:      userstore.New(db),
	}
}
