// internal/app/features/committees/handler.go
package committees

import (
	uierrors "github.com/dalemusser/festivo/internal/app/features/errors"
	"github.com/dalemusser/festivo/internal/app/reporting"
	committeestore "github.com/dalemusser/festivo/internal/app/store/committees"
	"github.com/dalemusser/festivo/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler is the feature-level entry point for committees.
type Handler struct {
	DB       *mongo.Database
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
	AuditLog *auditlog.Logger

	committees *committeestore.Store
	reports    *reporting.Service
}

// NewHandler constructs a committees handler bound to a DB and logger.
func NewHandler(db *mongo.Database, reports *reporting.Service, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:         db,
		Log:        logger,
		ErrLog:     errLog,
		AuditLog:   audit,
		committees: committeestore.New(db),
		reports:    reports,
	}
}
