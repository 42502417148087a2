package participation

import (
	"context"
	"sort"

	"github.com/dalemusser/festivo/internal/app/system/apperr"
	"github.com/dalemusser/festivo/internal/app/system/htmlsanitize"
	"github.com/dalemusser/festivo/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UpsertScore records the caller's score for a participant in a round.
func (s *Service) UpsertScore(ctx context.Context, caller Actor, p ScoreParams) (rec models.Score, created bool, err error) {
	if err := requireStaff(caller); err != nil {
		return models.Score{}, false, err
	}
	if err := p.Validate(); err != nil {
		return models.Score{}, false, err
	}
	if _, err := s.participantOf(ctx, p.RegistrationID, p.ParticipantID); err != nil {
		return models.Score{}, false, err
	}

	round := p.round()
	rec, created, err = s.scores.Upsert(ctx, models.Score{
		RegistrationID: p.RegistrationID,
		ParticipantID:  p.ParticipantID,
		Round:          round,
		Score:          p.Score,
		JudgeID:        caller.ID,
		Comments:       htmlsanitize.PlainText(p.Comments),
	})
	if err != nil {
		return models.Score{}, false, apperr.Internal("save score", err)
	}
	s.audit.ScoreRecorded(ctx, caller.ID, p.RegistrationID, p.ParticipantID, round, p.Score)
	return rec, created, nil
}

// Scoreboard groups every score of an event by participant, ordered by the
// mean over all rounds (highest first) and then by name.
func (s *Service) Scoreboard(ctx context.Context, eventID primitive.ObjectID) ([]ScoreboardEntry, error) {
	regs, err := s.registrations.ListByEvents(ctx, []primitive.ObjectID{eventID})
	if err != nil {
		return nil, apperr.Internal("list registrations", err)
	}
	regIDs := make([]primitive.ObjectID, 0, len(regs))
	for _, r := range regs {
		regIDs = append(regIDs, r.ID)
	}
	scores, err := s.scores.ListByRegistrations(ctx, regIDs)
	if err != nil {
		return nil, apperr.Internal("list scores", err)
	}

	byParticipant := map[primitive.ObjectID]*ScoreboardEntry{}
	var order []primitive.ObjectID
	for _, sc := range scores {
		e, ok := byParticipant[sc.ParticipantID]
		if !ok {
			e = &ScoreboardEntry{Participant: models.UserRef{ID: sc.ParticipantID}, Scores: []RoundScore{}}
			byParticipant[sc.ParticipantID] = e
			order = append(order, sc.ParticipantID)
		}
		e.Scores = append(e.Scores, RoundScore{Round: sc.Round, Score: sc.Score, JudgeID: sc.JudgeID, Comments: sc.Comments})
	}

	refs, err := s.users.RefsByIDs(ctx, order)
	if err != nil {
		return nil, apperr.Internal("resolve participants", err)
	}

	out := make([]ScoreboardEntry, 0, len(order))
	for _, id := range order {
		e := byParticipant[id]
		if ref, ok := refs[id]; ok {
			e.Participant = ref
		}
		var sum float64
		for _, r := range e.Scores {
			sum += r.Score
		}
		e.AverageScore = sum / float64(len(e.Scores))
		out = append(out, *e)
	}
	sortScoreboard(out)
	return out, nil
}

// ScoreView is a score with its participant and judge resolved.
type ScoreView struct {
	models.Score
	Participant *models.UserRef `json:"participant"`
	Judge       *models.UserRef `json:"judge"`
}

// RegistrationScores lists the scores of one registration, newest first.
// Staff and the registration's own participants may read them.
func (s *Service) RegistrationScores(ctx context.Context, caller Actor, registrationID primitive.ObjectID) ([]ScoreView, error) {
	reg, err := s.registrations.GetByID(ctx, registrationID)
	if err != nil {
		return nil, lookup(err, "registration not found")
	}
	if !isStaff(caller.Role) && !reg.HasParticipant(caller.ID) {
		return nil, apperr.Denied("access denied")
	}
	scores, err := s.scores.ListByRegistrations(ctx, []primitive.ObjectID{registrationID})
	if err != nil {
		return nil, apperr.Internal("list scores", err)
	}
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].CreatedAt.After(scores[j].CreatedAt)
	})

	ids := make([]primitive.ObjectID, 0, 2*len(scores))
	for _, sc := range scores {
		ids = append(ids, sc.ParticipantID, sc.JudgeID)
	}
	refs, err := s.users.RefsByIDs(ctx, ids)
	if err != nil {
		return nil, apperr.Internal("resolve scores", err)
	}
	out := make([]ScoreView, 0, len(scores))
	for _, sc := range scores {
		v := ScoreView{Score: sc}
		if u, ok := refs[sc.ParticipantID]; ok {
			v.Participant = &u
		}
		if u, ok := refs[sc.JudgeID]; ok {
			v.Judge = &u
		}
		out = append(out, v)
	}
	return out, nil
}

func sortScoreboard(entries []ScoreboardEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].AverageScore != entries[j].AverageScore {
			return entries[i].AverageScore > entries[j].AverageScore
		}
		return entries[i].Participant.Name < entries[j].Participant.Name
	})
}
