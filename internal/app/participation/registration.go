package participation

import (
	"context"
	"errors"

	registrationstore "github.com/dalemusser/festivo/internal/app/store/registrations"
	"github.com/dalemusser/festivo/internal/app/system/apperr"
	"github.com/dalemusser/festivo/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// qrAttempts bounds retries when a generated token collides.
const qrAttempts = 3

// newToken generates registration tokens. Tests replace it to force collisions.
var newToken = uuid.NewString

// CreateRegistration registers the caller (as leader) and an optional group
// for an active event.
func (s *Service) CreateRegistration(ctx context.Context, caller Actor, p RegisterParams) (models.Registration, error) {
	if caller.ID.IsZero() {
		return models.Registration{}, apperr.Denied("sign in to register")
	}
	if err := p.Validate(); err != nil {
		return models.Registration{}, err
	}

	ev, err := s.events.GetByID(ctx, p.EventID)
	if err != nil {
		return models.Registration{}, lookup(err, "event not found")
	}
	if !ev.IsActive {
		return models.Registration{}, apperr.NotFound("event not found")
	}

	exists, err := s.registrations.ExistsForLeader(ctx, ev.ID, caller.ID)
	if err != nil {
		return models.Registration{}, apperr.Internal("check existing registration", err)
	}
	if exists {
		return models.Registration{}, apperr.Conflict("already registered for this event")
	}

	size := 1 + len(p.GroupMemberIDs)
	if ev.IsGroup && size > ev.MaxGroupSize {
		return models.Registration{}, apperr.Invalid("maximum group size is %d", ev.MaxGroupSize)
	}
	if err := s.checkGroup(ctx, caller.ID, p.GroupMemberIDs); err != nil {
		return models.Registration{}, err
	}

	total := ev.Fee
	if p.PackageID != nil {
		pkg, ok := ev.FindPackage(*p.PackageID)
		if !ok {
			return models.Registration{}, apperr.Invalid("unknown package for this event")
		}
		total = pkg.Price
	}

	draft := models.Registration{
		EventID:             ev.ID,
		LeaderID:            caller.ID,
		GroupMembers:        p.GroupMemberIDs,
		PackageID:           p.PackageID,
		PaymentStatus:       models.PaymentPending,
		TotalAmount:         total,
		IsGroupRegistration: ev.IsGroup && size > 1,
	}

	var lastErr error
	for attempt := 1; attempt <= qrAttempts; attempt++ {
		draft.QRCode = newToken()
		reg, err := s.registrations.Create(ctx, draft)
		switch {
		case err == nil:
			s.metrics.RegistrationCreated()
			s.audit.RegistrationCreated(ctx, caller.ID, reg.ID, ev.ID, size)
			return reg, nil
		case errors.Is(err, registrationstore.ErrDuplicateQRCode):
			s.log.Warn("registration token collision; retrying", zap.Int("attempt", attempt))
			lastErr = err
		case errors.Is(err, registrationstore.ErrAlreadyRegistered):
			return models.Registration{}, apperr.Conflict("already registered for this event")
		default:
			return models.Registration{}, apperr.Internal("create registration", err)
		}
	}
	return models.Registration{}, apperr.Internal("could not allocate a unique registration token", lastErr)
}

// checkGroup rejects duplicated, self-referencing or unknown group members.
func (s *Service) checkGroup(ctx context.Context, leaderID primitive.ObjectID, group []primitive.ObjectID) error {
	if len(group) == 0 {
		return nil
	}
	seen := make(map[primitive.ObjectID]struct{}, len(group))
	for _, id := range group {
		if id == leaderID {
			return apperr.Invalid("the leader cannot also be a group member")
		}
		if _, dup := seen[id]; dup {
			return apperr.Invalid("group member %s is listed twice", id.Hex())
		}
		seen[id] = struct{}{}
	}
	refs, err := s.users.RefsByIDs(ctx, group)
	if err != nil {
		return apperr.Internal("resolve group members", err)
	}
	if len(refs) != len(group) {
		return apperr.Invalid("some group members not found")
	}
	return nil
}

// ListUserRegistrations returns registrations where userID leads or
// participates. Only the user themselves and admins may list them.
func (s *Service) ListUserRegistrations(ctx context.Context, caller Actor, userID primitive.ObjectID) ([]RegistrationView, error) {
	if caller.ID != userID && caller.Role != models.RoleAdmin {
		return nil, apperr.Denied("access denied")
	}
	regs, err := s.registrations.ListByParticipant(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("list registrations", err)
	}
	views, err := s.resolve(ctx, regs)
	if err != nil {
		return nil, apperr.Internal("resolve registrations", err)
	}
	return views, nil
}

// ListEventRegistrations returns all registrations of an event. Students
// are denied.
func (s *Service) ListEventRegistrations(ctx context.Context, caller Actor, eventID primitive.ObjectID) ([]RegistrationView, error) {
	if err := requireStaff(caller); err != nil {
		return nil, err
	}
	regs, err := s.registrations.ListByEvents(ctx, []primitive.ObjectID{eventID})
	if err != nil {
		return nil, apperr.Internal("list registrations", err)
	}
	views, err := s.resolve(ctx, regs)
	if err != nil {
		return nil, apperr.Internal("resolve registrations", err)
	}
	return views, nil
}

// MarkPaid sets a registration's payment status. Admin only.
func (s *Service) MarkPaid(ctx context.Context, caller Actor, p PaymentParams) (models.Registration, error) {
	if caller.Role != models.RoleAdmin {
		return models.Registration{}, apperr.Denied("admin access required")
	}
	if err := p.Validate(); err != nil {
		return models.Registration{}, err
	}
	reg, err := s.registrations.SetPaymentStatus(ctx, p.RegistrationID, p.Status)
	if err != nil {
		return models.Registration{}, lookup(err, "registration not found")
	}
	return *reg, nil
}
