// Package participation implements the leaf records around events:
// registrations with their opaque QR tokens, attendance verification and
// judge scores.
package participation

import (
	"errors"

	"github.com/dalemusser/festivo/internal/app/membership"
	attendancestore "github.com/dalemusser/festivo/internal/app/store/attendance"
	eventstore "github.com/dalemusser/festivo/internal/app/store/events"
	registrationstore "github.com/dalemusser/festivo/internal/app/store/registrations"
	scorestore "github.com/dalemusser/festivo/internal/app/store/scores"
	userstore "github.com/dalemusser/festivo/internal/app/store/users"
	"github.com/dalemusser/festivo/internal/app/system/apperr"
	"github.com/dalemusser/festivo/internal/app/system/auditlog"
	"github.com/dalemusser/festivo/internal/app/system/metrics"
	"github.com/dalemusser/festivo/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Actor is the authenticated caller.
type Actor = membership.Actor

// Service owns registration, verification and scoring.
type Service struct {
	users         *userstore.Store
	events        *eventstore.Store
	registrations *registrationstore.Store
	attendance    *attendancestore.Store
	scores        *scorestore.Store

	audit   *auditlog.Logger
	metrics *metrics.Metrics
	log     *zap.Logger
}

// New builds a Service over db. audit and m may be nil.
func New(db *mongo.Database, audit *auditlog.Logger, m *metrics.Metrics, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		users:         userstore.New(db),
		events:        eventstore.New(db),
		registrations: registrationstore.New(db),
		attendance:    attendancestore.New(db),
		scores:        scorestore.New(db),
		audit:         audit,
		metrics:       m,
		log:           log,
	}
}

func isStaff(role string) bool {
	return role == models.RoleMember || role == models.RoleCoordinator || role == models.RoleAdmin
}

func requireStaff(caller Actor) error {
	if !isStaff(caller.Role) {
		return apperr.Denied("staff access required")
	}
	return nil
}

// lookup maps a store read error: no document becomes NotFound with msg,
// anything else is Internal.
func lookup(err error, msg string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return apperr.NotFound("%s", msg)
	}
	return apperr.Internal(msg, err)
}
