// internal/app/features/exports/handler.go
package exports

import (
	uierrors "github.com/dalemusser/festivo/internal/app/features/errors"
	"github.com/dalemusser/festivo/internal/app/participation"
	"go.uber.org/zap"
)

// Handler streams the admin CSV exports.
type Handler struct {
	Log           *zap.Logger
	ErrLog        *uierrors.ErrorLogger
	Participation *participation.Service
}

func NewHandler(svc *participation.Service, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Log: logger, ErrLog: errLog, Participation: svc}
}
