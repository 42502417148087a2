// Package reporting builds the read-only dashboards and attendance reports
// shown to admins, coordinators and members.
package reporting

import (
	"context"
	"sort"
	"strconv"
	"time"

	attendancestore "github.com/dalemusser/festivo/internal/app/store/attendance"
	eventstore "github.com/dalemusser/festivo/internal/app/store/events"
	metricsstore "github.com/dalemusser/festivo/internal/app/store/metrics"
	registrationstore "github.com/dalemusser/festivo/internal/app/store/registrations"
	userstore "github.com/dalemusser/festivo/internal/app/store/users"
	"github.com/dalemusser/festivo/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// RecentLimit is the number of registrations shown on dashboards.
const RecentLimit = 10

type Service struct {
	db            *mongo.Database
	users         *userstore.Store
	events        *eventstore.Store
	registrations *registrationstore.Store
	attendance    *attendancestore.Store
}

func New(db *mongo.Database) *Service {
	return &Service{
		db:            db,
		users:         userstore.New(db),
		events:        eventstore.New(db),
		registrations: registrationstore.New(db),
		attendance:    attendancestore.New(db),
	}
}

// EventSummary is the event header of a report row.
type EventSummary struct {
	ID       primitive.ObjectID `json:"id"`
	Title    string             `json:"title"`
	DateTime time.Time          `json:"date_time"`
	Venue    string             `json:"venue"`
	Fee      float64            `json:"fee"`
}

type AttendanceCounts struct {
	Present   int `json:"present"`
	Absent    int `json:"absent"`
	NotMarked int `json:"not_marked"`
}

// EventReport is one row of an attendance report.
type EventReport struct {
	Event             EventSummary     `json:"event"`
	Registrations     int              `json:"registrations"`
	TotalParticipants int              `json:"total_participants"`
	Attendance        AttendanceCounts `json:"attendance"`
	AssignedMembers   []models.UserRef `json:"assigned_members,omitempty"`
}

type Summary struct {
	TotalEvents        int    `json:"total_events"`
	TotalRegistrations int    `json:"total_registrations"`
	TotalParticipants  int    `json:"total_participants"`
	TotalPresent       int    `json:"total_present"`
	TotalAbsent        int    `json:"total_absent"`
	AttendanceRate     string `json:"attendance_rate"`
}

type Report struct {
	Summary      Summary       `json:"summary"`
	EventReports []EventReport `json:"event_reports"`
}

// AttendanceRate formats present/participants as a percentage with two
// decimals, or "0" when there are no participants.
func AttendanceRate(present, participants int) string {
	if participants <= 0 {
		return "0"
	}
	return strconv.FormatFloat(float64(present)/float64(participants)*100, 'f', 2, 64)
}

// Summarize totals a set of event reports.
func Summarize(rows []EventReport) Summary {
	s := Summary{TotalEvents: len(rows)}
	for _, r := range rows {
		s.TotalRegistrations += r.Registrations
		s.TotalParticipants += r.TotalParticipants
		s.TotalPresent += r.Attendance.Present
		s.TotalAbsent += r.Attendance.Absent
	}
	s.AttendanceRate = AttendanceRate(s.TotalPresent, s.TotalParticipants)
	return s
}

// buildEventReport counts one event's registrations and attendance.
// regs and att must already be restricted to the event.
func buildEventReport(ev models.Event, regs []models.Registration, att []models.Attendance) EventReport {
	r := EventReport{
		Event: EventSummary{
			ID:       ev.ID,
			Title:    ev.Title,
			DateTime: ev.DateTime,
			Venue:    ev.Venue,
			Fee:      ev.Fee,
		},
		Registrations: len(regs),
	}
	for _, reg := range regs {
		r.TotalParticipants += 1 + len(reg.GroupMembers)
	}
	for _, a := range att {
		switch a.Status {
		case models.AttendancePresent:
			r.Attendance.Present++
		case models.AttendanceAbsent:
			r.Attendance.Absent++
		}
	}
	r.Attendance.NotMarked = r.TotalParticipants - r.Attendance.Present - r.Attendance.Absent
	if r.Attendance.NotMarked < 0 {
		r.Attendance.NotMarked = 0
	}
	return r
}

// eventData is the registrations and attendance of a set of events,
// grouped by event.
type eventData struct {
	regs map[primitive.ObjectID][]models.Registration
	att  map[primitive.ObjectID][]models.Attendance
}

func (s *Service) load(ctx context.Context, events []models.Event) (eventData, error) {
	d := eventData{
		regs: map[primitive.ObjectID][]models.Registration{},
		att:  map[primitive.ObjectID][]models.Attendance{},
	}
	if len(events) == 0 {
		return d, nil
	}
	ids := make([]primitive.ObjectID, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}
	regs, err := s.registrations.ListByEvents(ctx, ids)
	if err != nil {
		return d, err
	}
	eventOf := make(map[primitive.ObjectID]primitive.ObjectID, len(regs))
	regIDs := make([]primitive.ObjectID, 0, len(regs))
	for _, r := range regs {
		d.regs[r.EventID] = append(d.regs[r.EventID], r)
		eventOf[r.ID] = r.EventID
		regIDs = append(regIDs, r.ID)
	}
	att, err := s.attendance.ListByRegistrations(ctx, regIDs)
	if err != nil {
		return d, err
	}
	for _, a := range att {
		ev := eventOf[a.RegistrationID]
		d.att[ev] = append(d.att[ev], a)
	}
	return d, nil
}

// activeEvents loads the active events among ids, soonest first.
func (s *Service) activeEvents(ctx context.Context, ids []primitive.ObjectID) ([]models.Event, error) {
	if ids == nil {
		ids = []primitive.ObjectID{}
	}
	return s.events.List(ctx, eventstore.ListFilter{IDs: ids, ActiveOnly: true})
}

// Report builds the attendance report for the active events among eventIDs.
// withAssignees adds each event's assignee roster.
func (s *Service) Report(ctx context.Context, eventIDs []primitive.ObjectID, withAssignees bool) (Report, error) {
	events, err := s.activeEvents(ctx, eventIDs)
	if err != nil {
		return Report{}, err
	}
	data, err := s.load(ctx, events)
	if err != nil {
		return Report{}, err
	}

	var assignees map[primitive.ObjectID]models.UserRef
	if withAssignees {
		var ids []primitive.ObjectID
		for _, e := range events {
			ids = append(ids, e.CommitteeMemberIDs...)
		}
		if assignees, err = s.users.RefsByIDs(ctx, ids); err != nil {
			return Report{}, err
		}
	}

	rows := make([]EventReport, 0, len(events))
	for _, e := range events {
		row := buildEventReport(e, data.regs[e.ID], data.att[e.ID])
		if withAssignees {
			row.AssignedMembers = []models.UserRef{}
			for _, id := range e.CommitteeMemberIDs {
				if u, ok := assignees[id]; ok {
					row.AssignedMembers = append(row.AssignedMembers, u)
				}
			}
		}
		rows = append(rows, row)
	}
	return Report{Summary: Summarize(rows), EventReports: rows}, nil
}

// EventStats is an event with its registration and present counts.
type EventStats struct {
	models.Event
	RegistrationCount int `json:"registration_count"`
	AttendanceCount   int `json:"attendance_count"`
}

// RecentRegistration is a dashboard row for a new registration.
type RecentRegistration struct {
	ID            primitive.ObjectID `json:"id"`
	Event         *models.EventRef   `json:"event"`
	Leader        *models.UserRef    `json:"leader"`
	PaymentStatus string             `json:"payment_status"`
	TotalAmount   float64            `json:"total_amount"`
	CreatedAt     time.Time          `json:"created_at"`
}

type Dashboard struct {
	Events              []EventStats         `json:"events"`
	RecentRegistrations []RecentRegistration `json:"recent_registrations"`
	TotalEvents         int                  `json:"total_events"`
	TotalRegistrations  int                  `json:"total_registrations"`
	TotalAttendance     int                  `json:"total_attendance"`
}

// Dashboard summarizes the active events among eventIDs.
func (s *Service) Dashboard(ctx context.Context, eventIDs []primitive.ObjectID) (Dashboard, error) {
	events, err := s.activeEvents(ctx, eventIDs)
	if err != nil {
		return Dashboard{}, err
	}
	data, err := s.load(ctx, events)
	if err != nil {
		return Dashboard{}, err
	}

	d := Dashboard{Events: make([]EventStats, 0, len(events)), TotalEvents: len(events)}
	for _, e := range events {
		row := buildEventReport(e, data.regs[e.ID], data.att[e.ID])
		d.Events = append(d.Events, EventStats{
			Event:             e,
			RegistrationCount: row.Registrations,
			AttendanceCount:   row.Attendance.Present,
		})
		d.TotalRegistrations += row.Registrations
		d.TotalAttendance += row.Attendance.Present
	}

	ids := eventIDs
	if ids == nil {
		ids = []primitive.ObjectID{}
	}
	if d.RecentRegistrations, err = s.recent(ctx, ids); err != nil {
		return Dashboard{}, err
	}
	return d, nil
}

// recent returns the newest registrations among eventIDs (nil for all).
func (s *Service) recent(ctx context.Context, eventIDs []primitive.ObjectID) ([]RecentRegistration, error) {
	regs, err := s.registrations.Recent(ctx, eventIDs, RecentLimit)
	if err != nil {
		return nil, err
	}
	out := make([]RecentRegistration, 0, len(regs))
	if len(regs) == 0 {
		return out, nil
	}

	evIDs := make([]primitive.ObjectID, 0, len(regs))
	leaderIDs := make([]primitive.ObjectID, 0, len(regs))
	for _, r := range regs {
		evIDs = append(evIDs, r.EventID)
		leaderIDs = append(leaderIDs, r.LeaderID)
	}
	events, err := s.events.GetByIDs(ctx, evIDs)
	if err != nil {
		return nil, err
	}
	evRefs := make(map[primitive.ObjectID]models.EventRef, len(events))
	for _, e := range events {
		evRefs[e.ID] = e.Ref()
	}
	leaders, err := s.users.RefsByIDs(ctx, leaderIDs)
	if err != nil {
		return nil, err
	}

	for _, r := range regs {
		row := RecentRegistration{
			ID:            r.ID,
			PaymentStatus: r.PaymentStatus,
			TotalAmount:   r.TotalAmount,
			CreatedAt:     r.CreatedAt,
		}
		if e, ok := evRefs[r.EventID]; ok {
			row.Event = &e
		}
		if u, ok := leaders[r.LeaderID]; ok {
			row.Leader = &u
		}
		out = append(out, row)
	}
	return out, nil
}

// EventRegistrationCount is one row of the admin per-event table.
type EventRegistrationCount struct {
	ID                primitive.ObjectID `json:"id"`
	Title             string             `json:"title"`
	DateTime          time.Time          `json:"date_time"`
	RegistrationCount int64              `json:"registration_count"`
}

type AdminStats struct {
	Overview            metricsstore.Counts      `json:"overview"`
	UsersByRole         map[string]int64         `json:"user_stats"`
	EventStats          []EventRegistrationCount `json:"event_stats"`
	RecentRegistrations []RecentRegistration     `json:"recent_registrations"`
	AttendanceByStatus  map[string]int64         `json:"attendance_stats"`
}

// AdminStats gathers the admin overview.
func (s *Service) AdminStats(ctx context.Context) (AdminStats, error) {
	out := AdminStats{Overview: metricsstore.FetchDashboardCounts(ctx, s.db)}

	var err error
	if out.UsersByRole, err = s.users.CountByRole(ctx); err != nil {
		return AdminStats{}, err
	}
	if out.AttendanceByStatus, err = s.attendance.CountByStatus(ctx); err != nil {
		return AdminStats{}, err
	}

	events, err := s.events.List(ctx, eventstore.ListFilter{ActiveOnly: true})
	if err != nil {
		return AdminStats{}, err
	}
	ids := make([]primitive.ObjectID, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}
	counts, err := s.registrations.CountByEvent(ctx, ids)
	if err != nil {
		return AdminStats{}, err
	}
	out.EventStats = make([]EventRegistrationCount, 0, len(events))
	for _, e := range events {
		out.EventStats = append(out.EventStats, EventRegistrationCount{
			ID:                e.ID,
			Title:             e.Title,
			DateTime:          e.DateTime,
			RegistrationCount: counts[e.ID],
		})
	}
	sort.SliceStable(out.EventStats, func(i, j int) bool {
		return out.EventStats[i].RegistrationCount > out.EventStats[j].RegistrationCount
	})

	if out.RecentRegistrations, err = s.recent(ctx, nil); err != nil {
		return AdminStats{}, err
	}
	return out, nil
}
