// internal/app/features/events/handler.go
package events

import (
	uierrors "github.com/dalemusser/festivo/internal/app/features/errors"
	committeestore "github.com/dalemusser/festivo/internal/app/store/committees"
	eventstore "github.com/dalemusser/festivo/internal/app/store/events"
	userstore "github.com/dalemusser/festivo/internal/app/store/users"
	"github.com/dalemusser/festivo/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler is the feature-level entry point for festival events.
type Handler struct {
	DB       *mongo.Database
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
	AuditLog *auditlog.Logger

	events     *eventstore.Store
	committees *committeestore.Store
	users      *userstore.Store
}

// NewHandler constructs an events handler bound to a DB and logger.
func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:         db,
		Log:        logger,
		ErrLog:     errLog,
		AuditLog:   audit,
		events:     eventstore.New(db),
		committees: committeestore.New(db),
		users:      userstore.New(db),
	}
}
