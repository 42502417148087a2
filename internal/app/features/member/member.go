// internal/app/features/member/member.go
package member

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/festivo/internal/app/features/errors"
	"github.com/dalemusser/festivo/internal/app/participation"
	"github.com/dalemusser/festivo/internal/app/reporting"
	"github.com/dalemusser/festivo/internal/app/system/authz"
	"github.com/dalemusser/festivo/internal/app/system/inputval"
	"github.com/dalemusser/festivo/internal/app/system/normalize"
	"github.com/dalemusser/festivo/internal/app/system/timeouts"
	"github.com/dalemusser/festivo/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type ctxKey struct{}

// RequireCommittee resolves the caller's primary committee and stashes it
// on the request context. The committee must be active and still list the
// caller as a member; otherwise the request is answered 404.
func (h *Handler) RequireCommittee(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _, uid, ok := authz.UserCtx(r)
		if !ok {
			h.ErrLog.LogUnauthorized(w, r)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
		c, err := h.primary(ctx, uid)
		cancel()
		if err != nil {
			h.ErrLog.LogServerError(w, r, "database error loading member committee", err)
			return
		}
		if c == nil {
			uierrors.WriteError(w, http.StatusNotFound, "not_found", "Committee not found.")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, *c)))
	})
}

func (h *Handler) primary(ctx context.Context, uid primitive.ObjectID) (*models.Committee, error) {
	u, err := h.users.GetByID(ctx, uid)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if u.CommitteeID == nil {
		return nil, nil
	}
	c, err := h.committees.GetByID(ctx, *u.CommitteeID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !c.IsActive || !c.HasMember(uid) {
		return nil, nil
	}
	return c, nil
}

func committeeOf(r *http.Request) models.Committee {
	c, _ := r.Context().Value(ctxKey{}).(models.Committee)
	return c
}

// ServeCommittee returns the caller's committee with rosters resolved.
//
// Route: GET /api/member/committee
func (h *Handler) ServeCommittee(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	details, err := h.reports.DescribeCommittees(ctx, []models.Committee{committeeOf(r)})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error resolving committee", err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, details[0])
}

// ServeDashboard summarizes the committee's assigned events.
//
// Route: GET /api/member/dashboard
func (h *Handler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	dash, err := h.reports.CommitteeDashboard(ctx, committeeOf(r))
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error building member dashboard", err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, dash)
}

// ServeReports returns the attendance report of the committee's events,
// without assignee rosters.
//
// Route: GET /api/member/reports
func (h *Handler) ServeReports(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	rep, err := h.reports.Report(ctx, reporting.EventIDsOf([]models.Committee{committeeOf(r)}), false)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error building member report", err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, rep)
}

// ServeRegistrations searches registrations for the committee's events.
//
// Route: GET /api/member/registrations
func (h *Handler) ServeRegistrations(w http.ResponseWriter, r *http.Request) {
	caller, ok := authz.Caller(r)
	if !ok {
		h.ErrLog.LogUnauthorized(w, r)
		return
	}
	q := r.URL.Query()
	eventID, err := inputval.OptionalObjectID("eventId", q.Get("eventId"))
	if err != nil {
		h.ErrLog.Write(w, r, "member registrations: bad event id", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	views, err := h.Participation.SearchRegistrations(ctx, caller, participation.SearchParams{
		Query:         normalize.QueryParam(q.Get("q")),
		EventID:       eventID,
		PaymentStatus: normalize.QueryParam(q.Get("paymentStatus")),
		Scope:         reporting.EventIDsOf([]models.Committee{committeeOf(r)}),
	})
	if err != nil {
		h.ErrLog.Write(w, r, "member registrations", err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, views)
}
