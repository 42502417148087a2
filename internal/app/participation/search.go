package participation

import (
	"context"
	"strings"

	registrationstore "github.com/dalemusser/festivo/internal/app/store/registrations"
	"github.com/dalemusser/festivo/internal/app/system/apperr"
	"github.com/dalemusser/festivo/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SearchLimit caps the rows returned by SearchRegistrations.
const SearchLimit = 500

// SearchParams filters the registration search. Query matches the leader's
// name or email, or the event title.
type SearchParams struct {
	Query         string
	EventID       *primitive.ObjectID
	PaymentStatus string
	Scope         []primitive.ObjectID // nil for every event
}

func (p SearchParams) Validate() error {
	switch p.PaymentStatus {
	case "", models.PaymentPending, models.PaymentPaid:
		return nil
	}
	return apperr.Invalid("payment status must be %q or %q", models.PaymentPending, models.PaymentPaid)
}

// SearchRegistrations lists registrations newest first. Admins may search
// every event; other staff must pass a Scope.
func (s *Service) SearchRegistrations(ctx context.Context, caller Actor, p SearchParams) ([]RegistrationView, error) {
	if err := requireStaff(caller); err != nil {
		return nil, err
	}
	if p.Scope == nil && caller.Role != models.RoleAdmin {
		return nil, apperr.Denied("admin access required")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	f := registrationstore.SearchFilter{
		EventID:       p.EventID,
		EventScope:    p.Scope,
		PaymentStatus: p.PaymentStatus,
		Limit:         SearchLimit,
	}
	if q := strings.TrimSpace(p.Query); q != "" {
		leaders, err := s.users.IDsMatching(ctx, q)
		if err != nil {
			return nil, apperr.Internal("search users", err)
		}
		events, err := s.events.IDsMatchingTitle(ctx, q)
		if err != nil {
			return nil, apperr.Internal("search events", err)
		}
		f.TextQuery = true
		f.TextLeaders = leaders
		f.TextEvents = events
	}

	regs, err := s.registrations.Search(ctx, f)
	if err != nil {
		return nil, apperr.Internal("search registrations", err)
	}
	views, err := s.resolve(ctx, regs)
	if err != nil {
		return nil, apperr.Internal("resolve registrations", err)
	}
	return views, nil
}
