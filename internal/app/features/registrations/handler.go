// internal/app/features/registrations/handler.go
package registrations

import (
	uierrors "github.com/dalemusser/festivo/internal/app/features/errors"
	"github.com/dalemusser/festivo/internal/app/participation"
	"go.uber.org/zap"
)

// Handler serves event registration endpoints.
type Handler struct {
	Participation *participation.Service
	ErrLog        *uierrors.ErrorLogger
	Log           *zap.Logger
}

// NewHandler constructs a registrations handler.
func NewHandler(svc *participation.Service, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Participation: svc,
		ErrLog:        errLog,
		Log:           logger,
	}
}
