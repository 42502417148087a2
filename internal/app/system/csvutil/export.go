// internal/app/system/csvutil/export.go
package csvutil

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/festivo/internal/domain/models"
)

// ParticipantHeader is the column order of the participants export.
var ParticipantHeader = []string{
	"Event Title", "Event Date", "Event Venue",
	"Leader Name", "Leader Email", "Leader College ID", "Leader Year",
	"Group Members", "Group Emails",
	"Payment Status", "Total Amount", "Registration Date", "QR Code",
}

// AttendanceHeader is the column order of the attendance export.
var AttendanceHeader = []string{
	"Event Title", "Event Date", "Event Venue",
	"Participant Name", "Participant Email", "Participant College ID", "Participant Year",
	"Status", "Verified By", "Verified At", "Notes",
}

// ParticipantRow is one registration in the participants export.
type ParticipantRow struct {
	Event         models.EventRef
	Leader        models.UserRef
	Group         []models.UserRef
	PaymentStatus string
	TotalAmount   float64
	RegisteredAt  time.Time
	QRCode        string
}

// AttendanceRow is one attendance record in the attendance export.
type AttendanceRow struct {
	Event       models.EventRef
	Participant models.UserRef
	Status      string
	VerifiedBy  string
	VerifiedAt  time.Time
	Notes       string
}

// WriteParticipants writes the header and rows to w.
func WriteParticipants(w io.Writer, rows []ParticipantRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ParticipantHeader); err != nil {
		return err
	}
	for _, row := range rows {
		names := make([]string, 0, len(row.Group))
		emails := make([]string, 0, len(row.Group))
		for _, m := range row.Group {
			names = append(names, m.Name)
			emails = append(emails, m.Email)
		}
		rec := []string{
			row.Event.Title, day(row.Event.DateTime), row.Event.Venue,
			row.Leader.Name, row.Leader.Email, row.Leader.CollegeID, row.Leader.Year,
			strings.Join(names, ", "), strings.Join(emails, ", "),
			row.PaymentStatus, strconv.FormatFloat(row.TotalAmount, 'f', -1, 64),
			day(row.RegisteredAt), row.QRCode,
		}
		if err := cw.Write(cells(rec)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteAttendance writes the header and rows to w.
func WriteAttendance(w io.Writer, rows []AttendanceRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(AttendanceHeader); err != nil {
		return err
	}
	for _, row := range rows {
		verifiedAt := ""
		if !row.VerifiedAt.IsZero() {
			verifiedAt = row.VerifiedAt.UTC().Format(time.RFC3339)
		}
		rec := []string{
			row.Event.Title, day(row.Event.DateTime), row.Event.Venue,
			row.Participant.Name, row.Participant.Email, row.Participant.CollegeID, row.Participant.Year,
			row.Status, row.VerifiedBy, verifiedAt, row.Notes,
		}
		if err := cw.Write(cells(rec)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func day(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}

// cells neutralizes values a spreadsheet would evaluate as a formula.
func cells(rec []string) []string {
	for i, v := range rec {
		if v == "" {
			continue
		}
		switch v[0] {
		case '=', '+', '-', '@', '\t', '\r':
			rec[i] = "'" + v
		}
	}
	return rec
}
