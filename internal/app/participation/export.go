package participation

import (
	"context"

	registrationstore "github.com/dalemusser/festivo/internal/app/store/registrations"
	"github.com/dalemusser/festivo/internal/app/system/apperr"
	"github.com/dalemusser/festivo/internal/app/system/csvutil"
	"github.com/dalemusser/festivo/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func (s *Service) exportRegistrations(ctx context.Context, caller Actor, eventID *primitive.ObjectID) ([]models.Registration, error) {
	if caller.Role != models.RoleAdmin {
		return nil, apperr.Denied("admin access required")
	}
	regs, err := s.registrations.Search(ctx, registrationstore.SearchFilter{
		EventID: eventID,
		Limit:   csvutil.MaxExportRows,
	})
	if err != nil {
		return nil, apperr.Internal("list registrations", err)
	}
	return regs, nil
}

// ExportParticipants returns one row per registration, for one event or
// for all of them when eventID is nil. Admin only.
func (s *Service) ExportParticipants(ctx context.Context, caller Actor, eventID *primitive.ObjectID) ([]csvutil.ParticipantRow, error) {
	regs, err := s.exportRegistrations(ctx, caller, eventID)
	if err != nil {
		return nil, err
	}
	views, err := s.resolve(ctx, regs)
	if err != nil {
		return nil, apperr.Internal("resolve registrations", err)
	}

	rows := make([]csvutil.ParticipantRow, 0, len(views))
	for _, v := range views {
		row := csvutil.ParticipantRow{
			Group:         v.GroupMembers,
			PaymentStatus: v.PaymentStatus,
			TotalAmount:   v.TotalAmount,
			RegisteredAt:  v.CreatedAt,
			QRCode:        v.QRCode,
		}
		if v.Event != nil {
			row.Event = *v.Event
		}
		if v.Leader != nil {
			row.Leader = *v.Leader
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ExportAttendance returns one row per attendance record, for one event or
// for all of them when eventID is nil. Admin only.
func (s *Service) ExportAttendance(ctx context.Context, caller Actor, eventID *primitive.ObjectID) ([]csvutil.AttendanceRow, error) {
	regs, err := s.exportRegistrations(ctx, caller, eventID)
	if err != nil {
		return nil, err
	}
	regEvent := make(map[primitive.ObjectID]primitive.ObjectID, len(regs))
	regIDs := make([]primitive.ObjectID, 0, len(regs))
	eventIDs := make([]primitive.ObjectID, 0, len(regs))
	for _, r := range regs {
		regEvent[r.ID] = r.EventID
		regIDs = append(regIDs, r.ID)
		eventIDs = append(eventIDs, r.EventID)
	}

	recs, err := s.attendance.ListByRegistrations(ctx, regIDs)
	if err != nil {
		return nil, apperr.Internal("list attendance", err)
	}
	events, err := s.events.GetByIDs(ctx, eventIDs)
	if err != nil {
		return nil, apperr.Internal("resolve events", err)
	}
	eventRefs := make(map[primitive.ObjectID]models.EventRef, len(events))
	for _, e := range events {
		eventRefs[e.ID] = e.Ref()
	}
	userIDs := make([]primitive.ObjectID, 0, 2*len(recs))
	for _, a := range recs {
		userIDs = append(userIDs, a.ParticipantID, a.VerifiedBy)
	}
	refs, err := s.users.RefsByIDs(ctx, userIDs)
	if err != nil {
		return nil, apperr.Internal("resolve attendance", err)
	}

	rows := make([]csvutil.AttendanceRow, 0, len(recs))
	for _, a := range recs {
		rows = append(rows, csvutil.AttendanceRow{
			Event:       eventRefs[regEvent[a.RegistrationID]],
			Participant: refs[a.ParticipantID],
			Status:      a.Status,
			VerifiedBy:  refs[a.VerifiedBy].Name,
			VerifiedAt:  a.VerifiedAt,
			Notes:       a.Notes,
		})
	}
	return rows, nil
}
