// internal/domain/models/score.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultRound is used when a score is submitted without a round.
const DefaultRound = "final"

// Score bounds (inclusive).
const (
	MinScore = 0
	MaxScore = 100
)

// Score is the single current record for a (registration, participant, round) triple.
type Score struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	RegistrationID primitive.ObjectID `bson:"registration_id" json:"registration_id"`
	ParticipantID  primitive.ObjectID `bson:"participant_id" json:"participant_id"`
	Round          string             `bson:"round" json:"round"`
	Score          float64            `bson:"score" json:"score"`
	JudgeID        primitive.ObjectID `bson:"judge_id" json:"judge_id"`
	Comments       string             `bson:"comments,omitempty" json:"comments,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
