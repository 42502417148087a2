// internal/app/features/scores/handler.go
package scores

import (
	uierrors "github.com/dalemusser/festivo/internal/app/features/errors"
	"github.com/dalemusser/festivo/internal/app/participation"
	"go.uber.org/zap"
)

// Handler serves judge scoring and the public scoreboard.
type Handler struct {
	Participation *participation.Service
	ErrLog        *uierrors.ErrorLogger
	Log           *zap.Logger
}

// NewHandler constructs a scores handler.
func NewHandler(svc *participation.Service, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Participation: svc,
		ErrLog:        errLog,
		Log:           logger,
	}
}
