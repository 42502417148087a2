// internal/app/features/adminusers/handler.go
package adminusers

import (
	uierrors "github.com/dalemusser/festivo/internal/app/features/errors"
	"github.com/dalemusser/festivo/internal/app/membership"
	"github.com/dalemusser/festivo/internal/app/participation"
	"github.com/dalemusser/festivo/internal/app/reporting"
	committeestore "github.com/dalemusser/festivo/internal/app/store/committees"
	userstore "github.com/dalemusser/festivo/internal/app/store/users"
	"github.com/dalemusser/festivo/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the admin console API: user management, coordinator
// assignment, registration search, payments and overview stats.
//
// Role and roster changes always go through the membership engine.
type Handler struct {
	DB            *mongo.Database
	Log           *zap.Logger
	ErrLog        *uierrors.ErrorLogger
	AuditLog      *auditlog.Logger
	Engine        *membership.Engine
	Participation *participation.Service

	users      *userstore.Store
	committees *committeestore.Store
	reports    *reporting.Service
}

// NewHandler constructs an admin handler.
func NewHandler(db *mongo.Database, engine *membership.Engine, svc *participation.Service, reports *reporting.Service,
	errLog *uierrors.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:            db,
		Log:           logger,
		ErrLog:        errLog,
		AuditLog:      audit,
		Engine:        engine,
		Participation: svc,
		users:         userstore.New(db),
		committees:    committeestore.New(db),
		reports:       reports,
	}
}
