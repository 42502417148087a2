// internal/app/features/coordinator/handler.go
package coordinator

import (
	uierrors "github.com/dalemusser/festivo/internal/app/features/errors"
	"github.com/dalemusser/festivo/internal/app/membership"
	"github.com/dalemusser/festivo/internal/app/participation"
	"github.com/dalemusser/festivo/internal/app/reporting"
	committeestore "github.com/dalemusser/festivo/internal/app/store/committees"
	userstore "github.com/dalemusser/festivo/internal/app/store/users"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the coordinator console: the caller's committees, their
// dashboards and reports, and member management.
type Handler struct {
	DB            *mongo.Database
	Log           *zap.Logger
	ErrLog        *uierrors.ErrorLogger
	Engine        *membership.Engine
	Participation *participation.Service

	committees *committeestore.Store
	users      *userstore.Store
	reports    *reporting.Service
}

// NewHandler constructs a coordinator handler.
func NewHandler(db *mongo.Database, engine *membership.Engine, svc *participation.Service, reports *reporting.Service,
	errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:            db,
		Log:           logger,
		ErrLog:        errLog,
		Engine:        engine,
		Participation: svc,
		committees:    committeestore.New(db),
		users:         userstore.New(db),
		reports:       reports,
	}
}
