package participation

import (
	"context"

	"github.com/dalemusser/festivo/internal/app/system/apperr"
	"github.com/dalemusser/festivo/internal/app/system/htmlsanitize"
	"github.com/dalemusser/festivo/internal/app/system/normalize"
	"github.com/dalemusser/festivo/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// VerifyToken resolves a scanned QR token to its registration.
func (s *Service) VerifyToken(ctx context.Context, caller Actor, token string) (RegistrationView, error) {
	if err := requireStaff(caller); err != nil {
		return RegistrationView{}, err
	}
	token = normalize.Token(token)
	if token == "" {
		return RegistrationView{}, apperr.Invalid("QR code is required")
	}
	reg, err := s.registrations.GetByQRCode(ctx, token)
	if err != nil {
		return RegistrationView{}, lookup(err, "invalid QR code")
	}
	views, err := s.resolve(ctx, []models.Registration{*reg})
	if err != nil {
		return RegistrationView{}, apperr.Internal("resolve registration", err)
	}
	return views[0], nil
}

// participantOf loads a registration and checks that participantID belongs to it.
func (s *Service) participantOf(ctx context.Context, registrationID, participantID primitive.ObjectID) (*models.Registration, error) {
	reg, err := s.registrations.GetByID(ctx, registrationID)
	if err != nil {
		return nil, lookup(err, "registration not found")
	}
	if !reg.HasParticipant(participantID) {
		return nil, apperr.Invalid("participant is not part of this registration")
	}
	return reg, nil
}

// UpsertAttendance records the current attendance status of one participant.
// created reports whether this was the first record for the pair.
func (s *Service) UpsertAttendance(ctx context.Context, caller Actor, p AttendanceParams) (rec models.Attendance, created bool, err error) {
	if err := requireStaff(caller); err != nil {
		return models.Attendance{}, false, err
	}
	if err := p.Validate(); err != nil {
		return models.Attendance{}, false, err
	}
	if _, err := s.participantOf(ctx, p.RegistrationID, p.ParticipantID); err != nil {
		return models.Attendance{}, false, err
	}

	rec, created, err = s.attendance.Upsert(ctx, models.Attendance{
		RegistrationID: p.RegistrationID,
		ParticipantID:  p.ParticipantID,
		Status:         p.Status,
		VerifiedBy:     caller.ID,
		Notes:          htmlsanitize.PlainText(p.Notes),
	})
	if err != nil {
		return models.Attendance{}, false, apperr.Internal("save attendance", err)
	}
	s.audit.AttendanceMarked(ctx, caller.ID, p.RegistrationID, p.ParticipantID, p.Status)
	return rec, created, nil
}

// ListAttendance returns a registration's attendance, most recently verified first.
func (s *Service) ListAttendance(ctx context.Context, caller Actor, registrationID primitive.ObjectID) ([]AttendanceView, error) {
	if err := requireStaff(caller); err != nil {
		return nil, err
	}
	recs, err := s.attendance.ListByRegistration(ctx, registrationID)
	if err != nil {
		return nil, apperr.Internal("list attendance", err)
	}

	ids := make([]primitive.ObjectID, 0, 2*len(recs))
	for _, a := range recs {
		ids = append(ids, a.ParticipantID, a.VerifiedBy)
	}
	refs, err := s.users.RefsByIDs(ctx, ids)
	if err != nil {
		return nil, apperr.Internal("resolve attendance", err)
	}

	out := make([]AttendanceView, 0, len(recs))
	for _, a := range recs {
		v := AttendanceView{Attendance: a}
		if u, ok := refs[a.ParticipantID]; ok {
			v.Participant = &u
		}
		if u, ok := refs[a.VerifiedBy]; ok {
			v.Verifier = &u
		}
		out = append(out, v)
	}
	return out, nil
}
