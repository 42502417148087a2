// internal/domain/models/attendance.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Attendance statuses.
const (
	AttendancePresent = "present"
	AttendanceAbsent  = "absent"
)

// Attendance is the single current record for a (registration, participant) pair.
type Attendance struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	RegistrationID primitive.ObjectID `bson:"registration_id" json:"registration_id"`
	ParticipantID  primitive.ObjectID `bson:"participant_id" json:"participant_id"`
	Status         string             `bson:"status" json:"status"`
	VerifiedBy     primitive.ObjectID `bson:"verified_by" json:"verified_by"`
	VerifiedAt     time.Time          `bson:"verified_at" json:"verified_at"`
	Notes          string             `bson:"notes,omitempty" json:"notes,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
