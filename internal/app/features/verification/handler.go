// internal/app/features/verification/handler.go
package verification

import (
	uierrors "github.com/dalemusser/festivo/internal/app/features/errors"
	"github.com/dalemusser/festivo/internal/app/participation"
	"go.uber.org/zap"
)

// Handler serves QR verification and attendance marking for staff.
type Handler struct {
	Participation *participation.Service
	ErrLog        *uierrors.ErrorLogger
	Log           *zap.Logger
}

// NewHandler constructs a verification handler.
func NewHandler(svc *participation.Service, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Participation: svc,
		ErrLog:        errLog,
		Log:           logger,
	}
}
