// internal/app/features/verification/verify.go
package verification

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/festivo/internal/app/features/errors"
	"github.com/dalemusser/festivo/internal/app/participation"
	"github.com/dalemusser/festivo/internal/app/system/authz"
	"github.com/dalemusser/festivo/internal/app/system/inputval"
	"github.com/dalemusser/festivo/internal/app/system/timeouts"
	"github.com/dalemusser/festivo/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type verifyRequest struct {
	QRCode string `json:"qrCode"`
}

type verifyResponse struct {
	Message      string                         `json:"message"`
	Registration participation.RegistrationView `json:"registration"`
}

// HandleVerify resolves a scanned QR token.
//
// Route: POST /api/verification/verify
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	caller, ok := authz.Caller(r)
	if !ok {
		h.ErrLog.LogUnauthorized(w, r)
		return
	}
	var req verifyRequest
	if err := inputval.DecodeJSON(r, &req); err != nil {
		h.ErrLog.Write(w, r, "verify: decode body", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	view, err := h.Participation.VerifyToken(ctx, caller, req.QRCode)
	if err != nil {
		h.ErrLog.Write(w, r, "verify token failed", err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, verifyResponse{
		Message:      "QR code verified successfully",
		Registration: view,
	})
}

type attendanceRequest struct {
	RegistrationID string `json:"registrationId"`
	ParticipantID  string `json:"participantId"`
	Status         string `json:"status"`
	Notes          string `json:"notes"`
}

type attendanceResponse struct {
	Message    string            `json:"message"`
	Attendance models.Attendance `json:"attendance"`
}

// HandleAttendance marks a participant present or absent. The first mark
// answers 201; later marks overwrite it and answer 200.
//
// Route: POST /api/verification/attendance
func (h *Handler) HandleAttendance(w http.ResponseWriter, r *http.Request) {
	caller, ok := authz.Caller(r)
	if !ok {
		h.ErrLog.LogUnauthorized(w, r)
		return
	}
	var req attendanceRequest
	if err := inputval.DecodeJSON(r, &req); err != nil {
		h.ErrLog.Write(w, r, "attendance: decode body", err)
		return
	}
	if err := inputval.Required("registrationId", req.RegistrationID, "participantId", req.ParticipantID, "status", req.Status); err != nil {
		h.ErrLog.Write(w, r, "attendance: missing field", err)
		return
	}
	regID, err := inputval.ObjectID("registrationId", req.RegistrationID)
	if err != nil {
		h.ErrLog.Write(w, r, "attendance: bad registration id", err)
		return
	}
	participantID, err := inputval.ObjectID("participantId", req.ParticipantID)
	if err != nil {
		h.ErrLog.Write(w, r, "attendance: bad participant id", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	rec, created, err := h.Participation.UpsertAttendance(ctx, caller, participation.AttendanceParams{
		RegistrationID: regID,
		ParticipantID:  participantID,
		Status:         req.Status,
		Notes:          req.Notes,
	})
	if err != nil {
		h.ErrLog.Write(w, r, "upsert attendance failed", err)
		return
	}

	h.Log.Debug("attendance marked",
		zap.String("registration_id", regID.Hex()),
		zap.String("participant_id", participantID.Hex()),
		zap.String("status", rec.Status),
		zap.Bool("created", created))

	if created {
		uierrors.WriteJSON(w, http.StatusCreated, attendanceResponse{Message: "Attendance marked successfully", Attendance: rec})
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, attendanceResponse{Message: "Attendance updated successfully", Attendance: rec})
}

// ServeAttendance lists a registration's attendance records.
//
// Route: GET /api/verification/attendance/{registrationId}
func (h *Handler) ServeAttendance(w http.ResponseWriter, r *http.Request) {
	caller, ok := authz.Caller(r)
	if !ok {
		h.ErrLog.LogUnauthorized(w, r)
		return
	}
	regID, err := inputval.ObjectID("registration id", chi.URLParam(r, "registrationId"))
	if err != nil {
		h.ErrLog.Write(w, r, "attendance list: bad registration id", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	views, err := h.Participation.ListAttendance(ctx, caller, regID)
	if err != nil {
		h.ErrLog.Write(w, r, "list attendance failed", err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, views)
}
