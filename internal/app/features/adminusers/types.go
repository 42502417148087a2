// internal/app/features/adminusers/types.go
package adminusers

import (
	"context"

	"github.com/dalemusser/festivo/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// userRow is a user as the admin console lists it: the primary committee
// resolved and every active committee the user coordinates or belongs to.
type userRow struct {
	models.User
	Committee     *models.CommitteeRef  `json:"committee"`
	CoordinatorOf []models.CommitteeRef `json:"coordinator_of"`
	MemberOf      []models.CommitteeRef `json:"member_of"`
}

type usersPage struct {
	Users      []userRow `json:"users"`
	HasPrev    bool      `json:"has_prev"`
	HasNext    bool      `json:"has_next"`
	PrevCursor string    `json:"prev_cursor,omitempty"`
	NextCursor string    `json:"next_cursor,omitempty"`
}

// rows enriches users with committee references. Roster membership is read
// from active committees; the primary link is resolved whatever its state.
func (h *Handler) rows(ctx context.Context, users []models.User) ([]userRow, error) {
	active, err := h.committees.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	coordOf := make(map[primitive.ObjectID][]models.CommitteeRef)
	memberOf := make(map[primitive.ObjectID][]models.CommitteeRef)
	names := make(map[primitive.ObjectID]string, len(active))
	for _, c := range active {
		ref := models.CommitteeRef{ID: c.ID, Name: c.Name}
		names[c.ID] = c.Name
		for _, id := range c.CoordinatorIDs {
			coordOf[id] = append(coordOf[id], ref)
		}
		for _, id := range c.MemberIDs {
			memberOf[id] = append(memberOf[id], ref)
		}
	}

	var missing []primitive.ObjectID
	for _, u := range users {
		if u.CommitteeID != nil {
			if _, ok := names[*u.CommitteeID]; !ok {
				missing = append(missing, *u.CommitteeID)
			}
		}
	}
	if len(missing) > 0 {
		extra, err := h.committees.GetByIDs(ctx, missing)
		if err != nil {
			return nil, err
		}
		for _, c := range extra {
			names[c.ID] = c.Name
		}
	}

	out := make([]userRow, 0, len(users))
	for _, u := range users {
		row := userRow{
			User:          u,
			CoordinatorOf: orEmpty(coordOf[u.ID]),
			MemberOf:      orEmpty(memberOf[u.ID]),
		}
		if u.CommitteeID != nil {
			if name, ok := names[*u.CommitteeID]; ok {
				row.Committee = &models.CommitteeRef{ID: *u.CommitteeID, Name: name}
			}
		}
		out = append(out, row)
	}
	return out, nil
}

func (h *Handler) row(ctx context.Context, u models.User) (userRow, error) {
	rows, err := h.rows(ctx, []models.User{u})
	if err != nil {
		return userRow{}, err
	}
	return rows[0], nil
}

func orEmpty(refs []models.CommitteeRef) []models.CommitteeRef {
	if refs == nil {
		return []models.CommitteeRef{}
	}
	return refs
}
