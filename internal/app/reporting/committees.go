package reporting

import (
	"context"

	"github.com/dalemusser/festivo/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CommitteeDetail is a committee with its coordinator and member rosters resolved.
type CommitteeDetail struct {
	models.Committee
	Coordinators []models.UserRef `json:"coordinators"`
	Members      []models.UserRef `json:"members"`
}

// DescribeCommittees resolves the rosters of cs with a single user lookup.
// Identities that no longer exist are omitted.
func (s *Service) DescribeCommittees(ctx context.Context, cs []models.Committee) ([]CommitteeDetail, error) {
	var ids []primitive.ObjectID
	for _, c := range cs {
		ids = append(ids, c.CoordinatorIDs...)
		ids = append(ids, c.MemberIDs...)
	}
	refs, err := s.users.RefsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]CommitteeDetail, 0, len(cs))
	for _, c := range cs {
		out = append(out, CommitteeDetail{
			Committee:    c,
			Coordinators: pick(refs, c.CoordinatorIDs),
			Members:      pick(refs, c.MemberIDs),
		})
	}
	return out, nil
}

func pick(refs map[primitive.ObjectID]models.UserRef, ids []primitive.ObjectID) []models.UserRef {
	out := make([]models.UserRef, 0, len(ids))
	for _, id := range ids {
		if u, ok := refs[id]; ok {
			out = append(out, u)
		}
	}
	return out
}

// CommitteeDashboard is the dashboard of one committee's assigned events.
type CommitteeDashboard struct {
	Committee CommitteeDetail `json:"committee"`
	Dashboard
}

// CommitteeDashboard summarizes the active events assigned to c.
func (s *Service) CommitteeDashboard(ctx context.Context, c models.Committee) (CommitteeDashboard, error) {
	details, err := s.DescribeCommittees(ctx, []models.Committee{c})
	if err != nil {
		return CommitteeDashboard{}, err
	}
	d, err := s.Dashboard(ctx, c.AssignedEventIDs)
	if err != nil {
		return CommitteeDashboard{}, err
	}
	return CommitteeDashboard{Committee: details[0], Dashboard: d}, nil
}

// EventIDsOf returns the union of the committees' assigned events. The
// result is never nil, so it never means "every event".
func EventIDsOf(cs []models.Committee) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]bool)
	out := make([]primitive.ObjectID, 0)
	for _, c := range cs {
		for _, id := range c.AssignedEventIDs {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	return out
}

// CommitteeSummary is the header of a committee on a coordinator dashboard.
type CommitteeSummary struct {
	ID          primitive.ObjectID `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	MemberCount int                `json:"member_count"`
}

// CoordinatorDashboard spans every committee a coordinator runs.
type CoordinatorDashboard struct {
	Committees       []CommitteeSummary `json:"committees"`
	TotalMemberCount int                `json:"total_member_count"`
	Dashboard
}

// CoordinatorDashboard summarizes the active events assigned to any of cs.
func (s *Service) CoordinatorDashboard(ctx context.Context, cs []models.Committee) (CoordinatorDashboard, error) {
	d, err := s.Dashboard(ctx, EventIDsOf(cs))
	if err != nil {
		return CoordinatorDashboard{}, err
	}
	out := CoordinatorDashboard{Committees: make([]CommitteeSummary, 0, len(cs)), Dashboard: d}
	for _, c := range cs {
		out.Committees = append(out.Committees, CommitteeSummary{
			ID:          c.ID,
			Name:        c.Name,
			Description: c.Description,
			MemberCount: len(c.MemberIDs),
		})
		out.TotalMemberCount += len(c.MemberIDs)
	}
	return out, nil
}

// CoordinatorReport is the attendance report across a coordinator's committees.
type CoordinatorReport struct {
	Report
	TotalCommittees int `json:"total_committees"`
}

// CoordinatorReport reports on the active events assigned to any of cs,
// with assignee rosters.
func (s *Service) CoordinatorReport(ctx context.Context, cs []models.Committee) (CoordinatorReport, error) {
	rep, err := s.Report(ctx, EventIDsOf(cs), true)
	if err != nil {
		return CoordinatorReport{}, err
	}
	return CoordinatorReport{Report: rep, TotalCommittees: len(cs)}, nil
}
