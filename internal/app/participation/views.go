package participation

import (
	"context"
	"time"

	"github.com/dalemusser/festivo/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RegistrationView is a registration with its references resolved.
// Event and Leader are nil when the referenced record no longer exists.
type RegistrationView struct {
	ID                  primitive.ObjectID  `json:"id"`
	Event               *models.EventRef    `json:"event"`
	Leader              *models.UserRef     `json:"leader"`
	GroupMembers        []models.UserRef    `json:"group_members"`
	PackageID           *primitive.ObjectID `json:"package_id,omitempty"`
	PaymentStatus       string              `json:"payment_status"`
	QRCode              string              `json:"qr_code"`
	TotalAmount         float64             `json:"total_amount"`
	IsGroupRegistration bool                `json:"is_group_registration"`
	CreatedAt           time.Time           `json:"created_at"`
}

// AttendanceView is an attendance record with participant and verifier resolved.
type AttendanceView struct {
	models.Attendance
	Participant *models.UserRef `json:"participant"`
	Verifier    *models.UserRef `json:"verifier"`
}

// RoundScore is one judged round of a scoreboard entry.
type RoundScore struct {
	Round    string             `json:"round"`
	Score    float64            `json:"score"`
	JudgeID  primitive.ObjectID `json:"judge_id"`
	Comments string             `json:"comments,omitempty"`
}

// ScoreboardEntry aggregates every score of one participant in an event.
type ScoreboardEntry struct {
	Participant  models.UserRef `json:"participant"`
	Scores       []RoundScore   `json:"scores"`
	AverageScore float64        `json:"average_score"`
}

// resolve builds views for regs with two batched lookups.
func (s *Service) resolve(ctx context.Context, regs []models.Registration) ([]RegistrationView, error) {
	out := make([]RegistrationView, 0, len(regs))
	if len(regs) == 0 {
		return out, nil
	}

	eventSet := map[primitive.ObjectID]struct{}{}
	userSet := map[primitive.ObjectID]struct{}{}
	for _, r := range regs {
		eventSet[r.EventID] = struct{}{}
		for _, id := range r.Participants() {
			userSet[id] = struct{}{}
		}
	}

	eventIDs := make([]primitive.ObjectID, 0, len(eventSet))
	for id := range eventSet {
		eventIDs = append(eventIDs, id)
	}
	events, err := s.events.GetByIDs(ctx, eventIDs)
	if err != nil {
		return nil, err
	}
	eventRefs := make(map[primitive.ObjectID]models.EventRef, len(events))
	for _, e := range events {
		eventRefs[e.ID] = e.Ref()
	}

	userIDs := make([]primitive.ObjectID, 0, len(userSet))
	for id := range userSet {
		userIDs = append(userIDs, id)
	}
	users, err := s.users.RefsByIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	for _, r := range regs {
		v := RegistrationView{
			ID:                  r.ID,
			GroupMembers:        []models.UserRef{},
			PackageID:           r.PackageID,
			PaymentStatus:       r.PaymentStatus,
			QRCode:              r.QRCode,
			TotalAmount:         r.TotalAmount,
			IsGroupRegistration: r.IsGroupRegistration,
			CreatedAt:           r.CreatedAt,
		}
		if e, ok := eventRefs[r.EventID]; ok {
			v.Event = &e
		}
		if u, ok := users[r.LeaderID]; ok {
			v.Leader = &u
		}
		for _, id := range r.GroupMembers {
			if u, ok := users[id]; ok {
				v.GroupMembers = append(v.GroupMembers, u)
			}
		}
		out = append(out, v)
	}
	return out, nil
}
