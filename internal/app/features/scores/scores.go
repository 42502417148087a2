// internal/app/features/scores/scores.go
package scores

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/festivo/internal/app/features/errors"
	"github.com/dalemusser/festivo/internal/app/participation"
	"github.com/dalemusser/festivo/internal/app/system/apperr"
	"github.com/dalemusser/festivo/internal/app/system/authz"
	"github.com/dalemusser/festivo/internal/app/system/inputval"
	"github.com/dalemusser/festivo/internal/app/system/timeouts"
	"github.com/dalemusser/festivo/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

type submitRequest struct {
	RegistrationID string   `json:"registrationId"`
	ParticipantID  string   `json:"participantId"`
	Score          *float64 `json:"score"`
	Round          string   `json:"round"`
	Comments       string   `json:"comments"`
}

type submitResponse struct {
	Message string       `json:"message"`
	Score   models.Score `json:"score"`
}

// HandleSubmit records or overwrites the caller's score for a participant
// in a round (default "final").
//
// Route: POST /api/scores
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	caller, ok := authz.Caller(r)
	if !ok {
		h.ErrLog.LogUnauthorized(w, r)
		return
	}
	var req submitRequest
	if err := inputval.DecodeJSON(r, &req); err != nil {
		h.ErrLog.Write(w, r, "score: decode body", err)
		return
	}
	if req.Score == nil {
		h.ErrLog.Write(w, r, "score: missing score", apperr.Invalid("registrationId, participantId and score are required"))
		return
	}
	regID, err := inputval.ObjectID("registrationId", req.RegistrationID)
	if err != nil {
		h.ErrLog.Write(w, r, "score: bad registration id", err)
		return
	}
	participantID, err := inputval.ObjectID("participantId", req.ParticipantID)
	if err != nil {
		h.ErrLog.Write(w, r, "score: bad participant id", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	rec, created, err := h.Participation.UpsertScore(ctx, caller, participation.ScoreParams{
		RegistrationID: regID,
		ParticipantID:  participantID,
		Round:          req.Round,
		Score:          *req.Score,
		Comments:       req.Comments,
	})
	if err != nil {
		h.ErrLog.Write(w, r, "upsert score failed", err)
		return
	}
	if created {
		uierrors.WriteJSON(w, http.StatusCreated, submitResponse{Message: "Score submitted successfully", Score: rec})
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, submitResponse{Message: "Score updated successfully", Score: rec})
}

// ServeScoreboard returns the event scoreboard, highest average first.
//
// Route: GET /api/scores/event/{eventId}
func (h *Handler) ServeScoreboard(w http.ResponseWriter, r *http.Request) {
	eventID, err := inputval.ObjectID("event id", chi.URLParam(r, "eventId"))
	if err != nil {
		h.ErrLog.Write(w, r, "scoreboard: bad event id", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	entries, err := h.Participation.Scoreboard(ctx, eventID)
	if err != nil {
		h.ErrLog.Write(w, r, "scoreboard failed", err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, entries)
}

// ServeRegistrationScores lists the scores of one registration for staff
// and the registration's participants.
//
// Route: GET /api/scores/registration/{registrationId}
func (h *Handler) ServeRegistrationScores(w http.ResponseWriter, r *http.Request) {
	caller, ok := authz.Caller(r)
	if !ok {
		h.ErrLog.LogUnauthorized(w, r)
		return
	}
	regID, err := inputval.ObjectID("registration id", chi.URLParam(r, "registrationId"))
	if err != nil {
		h.ErrLog.Write(w, r, "registration scores: bad registration id", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	views, err := h.Participation.RegistrationScores(ctx, caller, regID)
	if err != nil {
		h.ErrLog.Write(w, r, "registration scores failed", err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, views)
}
