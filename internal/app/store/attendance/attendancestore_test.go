package attendancestore_test

import (
	"testing"

	attendancestore "github.com/dalemusser/festivo/internal/app/store/attendance"
	"github.com/dalemusser/festivo/internal/domain/models"
	"github.com/dalemusser/festivo/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Upsert_SingleRecordPerParticipant(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := attendancestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	regID := primitive.NewObjectID()
	participant := primitive.NewObjectID()
	verifier := primitive.NewObjectID()

	first, created, err := store.Upsert(ctx, models.Attendance{
		RegistrationID: regID, ParticipantID: participant,
		Status: models.AttendancePresent, VerifiedBy: verifier,
	})
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if !created {
		t.Error("first upsert should create")
	}

	second, created, err := store.Upsert(ctx, models.Attendance{
		RegistrationID: regID, ParticipantID: participant,
		Status: models.AttendanceAbsent, VerifiedBy: verifier, Notes: "left early",
	})
	if err != nil {
		t.Fatalf("second Upsert failed: %v", err)
	}
	if created {
		t.Error("second upsert should update")
	}
	if second.ID != first.ID {
		t.Errorf("record ID changed: %v -> %v", first.ID, second.ID)
	}
	if second.Status != models.AttendanceAbsent || second.Notes != "left early" {
		t.Errorf("record not updated: %+v", second)
	}

	list, _ := store.ListByRegistration(ctx, regID)
	if len(list) != 1 {
		t.Errorf("records = %d, want 1", len(list))
	}

	counts, err := store.CountByStatus(ctx)
	if err != nil {
		t.Fatalf("CountByStatus failed: %v", err)
	}
	if counts[models.AttendanceAbsent] != 1 || counts[models.AttendancePresent] != 0 {
		t.Errorf("counts = %v", counts)
	}
}
