// internal/app/features/coordinator/views.go
package coordinator

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/festivo/internal/app/features/errors"
	"github.com/dalemusser/festivo/internal/app/participation"
	"github.com/dalemusser/festivo/internal/app/reporting"
	"github.com/dalemusser/festivo/internal/app/system/authz"
	"github.com/dalemusser/festivo/internal/app/system/inputval"
	"github.com/dalemusser/festivo/internal/app/system/normalize"
	"github.com/dalemusser/festivo/internal/app/system/timeouts"
	"github.com/dalemusser/festivo/internal/domain/models"
)

// ServeCommittees returns the caller's active committees with rosters resolved.
//
// Route: GET /api/coordinator/committees
func (h *Handler) ServeCommittees(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	details, err := h.reports.DescribeCommittees(ctx, coordinated(r))
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error resolving committees", err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, details)
}

// ServeDashboard summarizes the events of every committee the caller coordinates.
//
// Route: GET /api/coordinator/dashboard
func (h *Handler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	dash, err := h.reports.CoordinatorDashboard(ctx, coordinated(r))
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error building coordinator dashboard", err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, dash)
}

// ServeCommitteeDashboard summarizes one coordinated committee.
//
// Route: GET /api/coordinator/{cid}/dashboard
func (h *Handler) ServeCommitteeDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	c, ok := h.ownCommittee(ctx, w, r)
	if !ok {
		return
	}
	dash, err := h.reports.CommitteeDashboard(ctx, c)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error building committee dashboard", err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, dash)
}

// ServeReports returns the attendance report across the caller's committees.
//
// Route: GET /api/coordinator/reports
func (h *Handler) ServeReports(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	rep, err := h.reports.CoordinatorReport(ctx, coordinated(r))
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error building coordinator report", err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, rep)
}

// ServeCommitteeReports returns the attendance report of one coordinated committee.
//
// Route: GET /api/coordinator/{cid}/reports
func (h *Handler) ServeCommitteeReports(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	c, ok := h.ownCommittee(ctx, w, r)
	if !ok {
		return
	}
	rep, err := h.reports.Report(ctx, reporting.EventIDsOf([]models.Committee{c}), true)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error building committee report", err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, rep)
}

// ServeRegistrations searches registrations for the events of the caller's
// committees. Filters as in the admin search.
//
// Route: GET /api/coordinator/registrations
func (h *Handler) ServeRegistrations(w http.ResponseWriter, r *http.Request) {
	caller, ok := authz.Caller(r)
	if !ok {
		h.ErrLog.LogUnauthorized(w, r)
		return
	}
	q := r.URL.Query()
	eventID, err := inputval.OptionalObjectID("eventId", q.Get("eventId"))
	if err != nil {
		h.ErrLog.Write(w, r, "coordinator registrations: bad event id", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	views, err := h.Participation.SearchRegistrations(ctx, caller, participation.SearchParams{
		Query:         normalize.QueryParam(q.Get("q")),
		EventID:       eventID,
		PaymentStatus: normalize.QueryParam(q.Get("paymentStatus")),
		Scope:         reporting.EventIDsOf(coordinated(r)),
	})
	if err != nil {
		h.ErrLog.Write(w, r, "coordinator registrations", err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, views)
}
