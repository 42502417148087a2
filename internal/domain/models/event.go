// internal/domain/models/event.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Package is an optional fee tier on an event.
type Package struct {
	ID                primitive.ObjectID `bson:"_id" json:"id"`
	Name              string             `bson:"name" json:"name"`
	Price             float64            `bson:"price" json:"price"`
	Description       string             `bson:"description,omitempty" json:"description,omitempty"`
	IsStudentDiscount bool               `bson:"is_student_discount" json:"is_student_discount"`
	IsBulkPackage     bool               `bson:"is_bulk_package" json:"is_bulk_package"`
}

// Event is owned by exactly one committee.
//
// CommitteeMemberIDs is the assignee roster. It is not validated against
// the owning committee's member list.
type Event struct {
	ID                 primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Title              string               `bson:"title" json:"title"`
	TitleCI            string               `bson:"title_ci" json:"-"`
	Description        string               `bson:"description" json:"description"`
	CommitteeID        primitive.ObjectID   `bson:"committee_id" json:"committee_id"`
	CommitteeMemberIDs []primitive.ObjectID `bson:"committee_member_ids" json:"committee_member_ids"`
	DateTime           time.Time            `bson:"date_time" json:"date_time"`
	Venue              string               `bson:"venue" json:"venue"`
	Fee                float64              `bson:"fee" json:"fee"`
	Packages           []Package            `bson:"packages" json:"packages"`
	IsGroup            bool                 `bson:"is_group" json:"is_group"`
	MaxGroupSize       int                  `bson:"max_group_size" json:"max_group_size"`
	Rules              []string             `bson:"rules" json:"rules"`
	IsActive           bool                 `bson:"is_active" json:"is_active"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// FindPackage returns the package with the given id.
func (e Event) FindPackage(id primitive.ObjectID) (Package, bool) {
	for _, p := range e.Packages {
		if p.ID == id {
			return p, true
		}
	}
	return Package{}, false
}

// EventRef is the trimmed projection embedded in registration views.
type EventRef struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	DateTime    time.Time          `bson:"date_time" json:"date_time"`
	Venue       string             `bson:"venue" json:"venue"`
}

// Ref returns the trimmed projection of e.
func (e Event) Ref() EventRef {
	return EventRef{ID: e.ID, Title: e.Title, Description: e.Description, DateTime: e.DateTime, Venue: e.Venue}
}
