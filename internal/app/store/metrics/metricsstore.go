// internal/app/store/metrics/metricsstore.go
package metricsstore

import (
	"context"

	"github.com/dalemusser/festivo/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Counts is the set of totals shown on the admin overview.
type Counts struct {
	Users            int64 `json:"total_users"`
	ActiveEvents     int64 `json:"total_events"`
	Registrations    int64 `json:"total_registrations"`
	ActiveCommittees int64 `json:"total_committees"`
	Staff            int64 `json:"total_staff"`
}

// FetchDashboardCounts returns the high-level counts used by dashboards.
// Intentionally tolerant: on error it returns 0 for that counter.
func FetchDashboardCounts(ctx context.Context, db *mongo.Database) Counts {
	var out Counts

	if n, err := db.Collection("users").CountDocuments(ctx, bson.M{}); err == nil {
		out.Users = n
	}

	if n, err := db.Collection("events").CountDocuments(ctx, bson.M{"is_active": true}); err == nil {
		out.ActiveEvents = n
	}

	if n, err := db.Collection("registrations").CountDocuments(ctx, bson.M{}); err == nil {
		out.Registrations = n
	}

	if n, err := db.Collection("committees").CountDocuments(ctx, bson.M{"is_active": true}); err == nil {
		out.ActiveCommittees = n
	}

	// staff: members and coordinators (admins are counted separately by role)
	staffFilter := bson.M{"role": bson.M{"$in": []string{models.RoleMember, models.RoleCoordinator}}}
	if n, err := db.Collection("users").CountDocuments(ctx, staffFilter); err == nil {
		out.Staff = n
	}

	return out
}
