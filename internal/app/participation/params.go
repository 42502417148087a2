package participation

import (
	"strings"

	"github.com/dalemusser/festivo/internal/app/system/apperr"
	"github.com/dalemusser/festivo/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RegisterParams struct {
	EventID        primitive.ObjectID
	GroupMemberIDs []primitive.ObjectID
	PackageID      *primitive.ObjectID
}

func (p RegisterParams) Validate() error {
	if p.EventID.IsZero() {
		return apperr.Invalid("event id is required")
	}
	for _, id := range p.GroupMemberIDs {
		if id.IsZero() {
			return apperr.Invalid("group member ids must be valid")
		}
	}
	return nil
}

type AttendanceParams struct {
	RegistrationID primitive.ObjectID
	ParticipantID  primitive.ObjectID
	Status         string
	Notes          string
}

func (p AttendanceParams) Validate() error {
	if p.RegistrationID.IsZero() || p.ParticipantID.IsZero() || p.Status == "" {
		return apperr.Invalid("registration id, participant id and status are required")
	}
	if p.Status != models.AttendancePresent && p.Status != models.AttendanceAbsent {
		return apperr.Invalid("status must be either %q or %q", models.AttendancePresent, models.AttendanceAbsent)
	}
	return nil
}

type ScoreParams struct {
	RegistrationID primitive.ObjectID
	ParticipantID  primitive.ObjectID
	Round          string
	Score          float64
	Comments       string
}

func (p ScoreParams) Validate() error {
	if p.RegistrationID.IsZero() || p.ParticipantID.IsZero() {
		return apperr.Invalid("registration id and participant id are required")
	}
	if p.Score < models.MinScore || p.Score > models.MaxScore {
		return apperr.Invalid("score must be between %d and %d", models.MinScore, models.MaxScore)
	}
	return nil
}

// round returns the trimmed round name, defaulting to the final round.
func (p ScoreParams) round() string {
	if r := strings.TrimSpace(p.Round); r != "" {
		return r
	}
	return models.DefaultRound
}

type PaymentParams struct {
	RegistrationID primitive.ObjectID
	Status         string
}

func (p PaymentParams) Validate() error {
	if p.RegistrationID.IsZero() {
		return apperr.Invalid("registration id is required")
	}
	if p.Status != models.PaymentPending && p.Status != models.PaymentPaid {
		return apperr.Invalid("payment status must be either %q or %q", models.PaymentPending, models.PaymentPaid)
	}
	return nil
}
