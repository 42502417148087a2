// internal/app/features/events/types.go
package events

import (
	"context"

	"github.com/dalemusser/festivo/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// eventView is an event with its owning committee and assignee roster resolved.
type eventView struct {
	models.Event
	Committee        *models.CommitteeRef `json:"committee"`
	CommitteeMembers []models.UserRef     `json:"committee_members"`
}

type packageInput struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	Price             float64 `json:"price"`
	Description       string  `json:"description"`
	IsStudentDiscount bool    `json:"isStudentDiscount"`
	IsBulkPackage     bool    `json:"isBulkPackage"`
}

// views resolves committees and assignees for evs with one query each.
func (h *Handler) views(ctx context.Context, evs []models.Event) ([]eventView, error) {
	var userIDs, committeeIDs []primitive.ObjectID
	for _, e := range evs {
		userIDs = append(userIDs, e.CommitteeMemberIDs...)
		committeeIDs = append(committeeIDs, e.CommitteeID)
	}

	refs, err := h.users.RefsByIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	committees, err := h.committees.GetByIDs(ctx, committeeIDs)
	if err != nil {
		return nil, err
	}
	names := make(map[primitive.ObjectID]string, len(committees))
	for _, c := range committees {
		names[c.ID] = c.Name
	}

	out := make([]eventView, 0, len(evs))
	for _, e := range evs {
		v := eventView{Event: e, CommitteeMembers: []models.UserRef{}}
		if name, ok := names[e.CommitteeID]; ok {
			v.Committee = &models.CommitteeRef{ID: e.CommitteeID, Name: name}
		}
		for _, id := range e.CommitteeMemberIDs {
			if u, ok := refs[id]; ok {
				v.CommitteeMembers = append(v.CommitteeMembers, u)
			}
		}
		out = append(out, v)
	}
	return out, nil
}
