// internal/domain/models/registration.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Payment statuses.
const (
	PaymentPending = "pending"
	PaymentPaid    = "paid"
)

// Registration ties a leader (and optional group) to an event.
// QRCode is an opaque UUID looked up by exact match during verification.
type Registration struct {
	ID                  primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	EventID             primitive.ObjectID   `bson:"event_id" json:"event_id"`
	LeaderID            primitive.ObjectID   `bson:"leader_id" json:"leader_id"`
	GroupMembers        []primitive.ObjectID `bson:"group_members" json:"group_members"`
	PackageID           *primitive.ObjectID  `bson:"package_id,omitempty" json:"package_id,omitempty"`
	PaymentStatus       string               `bson:"payment_status" json:"payment_status"`
	QRCode              string               `bson:"qr_code" json:"qr_code"`
	TotalAmount         float64              `bson:"total_amount" json:"total_amount"`
	IsGroupRegistration bool                 `bson:"is_group_registration" json:"is_group_registration"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Participants returns the leader followed by group members.
func (r Registration) Participants() []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, 1+len(r.GroupMembers))
	out = append(out, r.LeaderID)
	return append(out, r.GroupMembers...)
}

// HasParticipant reports whether id is the leader or a group member.
func (r Registration) HasParticipant(id primitive.ObjectID) bool {
	return r.LeaderID == id || containsID(r.GroupMembers, id)
}
