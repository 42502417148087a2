// internal/app/features/member/handler.go
package member

import (
	uierrors "github.com/dalemusser/festivo/internal/app/features/errors"
	"github.com/dalemusser/festivo/internal/app/participation"
	"github.com/dalemusser/festivo/internal/app/reporting"
	committeestore "github.com/dalemusser/festivo/internal/app/store/committees"
	userstore "github.com/dalemusser/festivo/internal/app/store/users"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the read-only member console for the caller's primary
// committee.
type Handler struct {
	DB            *mongo.Database
	Log           *zap.Logger
	ErrLog        *uierrors.ErrorLogger
	Participation *participation.Service

	committees *committeestore.Store
	users      *userstore.Store
	reports    *reporting.Service
}

// NewHandler constructs a member handler.
func NewHandler(db *mongo.Database, svc *participation.Service, reports *reporting.Service, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:            db,
		Log:           logger,
		ErrLog:        errLog,
		Participation: svc,
		committees:    committeestore.New(db),
		users:         userstore.New(db),
		reports:       reports,
	}
}
