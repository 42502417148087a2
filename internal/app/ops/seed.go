// Package ops holds operator tasks run from festivoctl.
package ops

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/festivo/internal/app/membership"
	committeestore "github.com/dalemusser/festivo/internal/app/store/committees"
	eventstore "github.com/dalemusser/festivo/internal/app/store/events"
	userstore "github.com/dalemusser/festivo/internal/app/store/users"
	"github.com/dalemusser/festivo/internal/app/system/auth"
	"github.com/dalemusser/festivo/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// ErrNotEmpty is returned by Seed when users already exist and reset is off.
var ErrNotEmpty = errors.New("database already has users; use --reset to wipe it")

// seededCollections are wiped by a reset, in this order.
var seededCollections = []string{"scores", "attendance", "registrations", "events", "committees", "users"}

type seedUser struct {
	name, email, password, collegeID, year string
	role                                   string
}

var demoUsers = []seedUser{
	{"Admin User", "admin@festivo.com", "admin123", "ADMIN001", "2024", models.RoleAdmin},
	{"John Doe", "john@student.com", "student123", "STU001", "2024", models.RoleStudent},
	{"Jane Smith", "jane@student.com", "student123", "STU002", "2023", models.RoleStudent},
	{"Mike Johnson", "mike@student.com", "student123", "STU003", "2024", models.RoleStudent},
	{"Sarah Wilson", "sarah@student.com", "student123", "STU004", "2023", models.RoleStudent},
	{"David Brown", "david@student.com", "student123", "STU005", "2024", models.RoleStudent},
	{"Committee Head", "committee@festivo.com", "committee123", "COM001", "2024", models.RoleStudent},
}

// committeeHead is promoted to member of the seeded committee.
const committeeHead = "committee@festivo.com"

// SeedResult summarizes what Seed wrote.
type SeedResult struct {
	Users     int
	Committee models.Committee
	Events    []models.Event
}

// Seed loads the demo dataset: an admin, five students, a Tech Committee
// with one member and three events with packages. Role changes go through
// the membership engine.
func Seed(ctx context.Context, db *mongo.Database, engine *membership.Engine, reset bool, log *zap.Logger) (SeedResult, error) {
	var res SeedResult

	if reset {
		for _, name := range seededCollections {
			if _, err := db.Collection(name).DeleteMany(ctx, bson.M{}); err != nil {
				return res, fmt.Errorf("reset %s: %w", name, err)
			}
		}
		log.Info("cleared existing data", zap.Strings("collections", seededCollections))
	} else {
		n, err := db.Collection("users").CountDocuments(ctx, bson.M{})
		if err != nil {
			return res, err
		}
		if n > 0 {
			return res, ErrNotEmpty
		}
	}

	users := userstore.New(db)
	byEmail := map[string]models.User{}
	for _, su := range demoUsers {
		hash, err := auth.HashPassword(su.password)
		if err != nil {
			return res, err
		}
		u, err := users.Create(ctx, models.User{
			Name:         su.name,
			Email:        su.email,
			PasswordHash: hash,
			AuthMethod:   models.AuthMethodPassword,
			Role:         su.role,
			CollegeID:    su.collegeID,
			Year:         su.year,
		})
		if err != nil {
			return res, fmt.Errorf("create %s: %w", su.email, err)
		}
		byEmail[u.Email] = u
	}
	res.Users = len(byEmail)

	committees := committeestore.New(db)
	c, err := committees.Create(ctx, models.Committee{
		Name:        "Tech Committee",
		Description: "Handles all technical events and competitions",
	})
	if err != nil {
		return res, fmt.Errorf("create committee: %w", err)
	}

	head := byEmail[committeeHead]
	if _, err := engine.AssignRole(ctx, membership.System, membership.AssignRoleParams{
		UserID:      head.ID,
		Role:        models.RoleMember,
		CommitteeID: &c.ID,
	}); err != nil {
		return res, fmt.Errorf("assign committee head: %w", err)
	}

	events := eventstore.New(db)
	for _, e := range demoEventList(c.ID, time.Now().UTC()) {
		created, err := events.Create(ctx, e)
		if err != nil {
			return res, fmt.Errorf("create event %q: %w", e.Title, err)
		}
		if _, err := committees.AddToSet(ctx, c.ID, models.CommitteeEvents, created.ID); err != nil {
			return res, err
		}
		res.Events = append(res.Events, created)
	}

	got, err := committees.GetByID(ctx, c.ID)
	if err != nil {
		return res, err
	}
	res.Committee = *got
	return res, nil
}

// demoEventList returns the seeded events, scheduled relative to now so
// they are upcoming.
func demoEventList(committeeID primitive.ObjectID, now time.Time) []models.Event {
	day := func(n, hour int) time.Time {
		d := now.AddDate(0, 0, n)
		return time.Date(d.Year(), d.Month(), d.Day(), hour, 0, 0, 0, time.UTC)
	}
	student := func(price float64) models.Package {
		return models.Package{Name: "Student Package", Price: price, Description: "Discounted rate for students", IsStudentDiscount: true}
	}
	return []models.Event{
		{
			Title:        "Coding Competition",
			Description:  "A competitive programming contest with multiple rounds. Participants solve algorithmic problems in their preferred language.",
			CommitteeID:  committeeID,
			DateTime:     day(7, 10),
			Venue:        "Computer Lab 1",
			Fee:          50,
			IsGroup:      true,
			MaxGroupSize: 3,
			Packages: []models.Package{
				student(30),
				{Name: "Group Package (3+ members)", Price: 120, Description: "Bulk discount for groups", IsBulkPackage: true},
			},
			Rules: []string{
				"Participants must bring their own laptops",
				"Internet access will be provided",
				"No external help allowed during the competition",
				"Time limit: 3 hours",
			},
		},
		{
			Title:        "Hackathon",
			Description:  "A 24-hour hackathon where teams build solutions to real-world problems. Prizes for the top 3 teams.",
			CommitteeID:  committeeID,
			DateTime:     day(12, 9),
			Venue:        "Main Auditorium",
			Fee:          100,
			IsGroup:      true,
			MaxGroupSize: 5,
			Packages: []models.Package{
				student(60),
				{Name: "Group Package (4+ members)", Price: 200, Description: "Bulk discount for groups", IsBulkPackage: true},
			},
			Rules: []string{
				"Teams must consist of 2-5 members",
				"All code must be written during the hackathon",
				"Internet access will be provided",
				"Meals and refreshments included",
			},
		},
		{
			Title:        "Tech Quiz",
			Description:  "A technical quiz covering computer science, programming and technology.",
			CommitteeID:  committeeID,
			DateTime:     day(17, 14),
			Venue:        "Seminar Hall",
			Fee:          25,
			MaxGroupSize: 1,
			Packages:     []models.Package{student(15)},
			Rules: []string{
				"Individual participation only",
				"No electronic devices allowed",
				"Quiz will have 50 questions",
				"Time limit: 1 hour",
			},
		},
	}
}
