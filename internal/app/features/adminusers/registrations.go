// internal/app/features/adminusers/registrations.go
package adminusers

import (
	"context"
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/festivo/internal/app/features/errors"
	"github.com/dalemusser/festivo/internal/app/participation"
	"github.com/dalemusser/festivo/internal/app/system/authz"
	"github.com/dalemusser/festivo/internal/app/system/inputval"
	"github.com/dalemusser/festivo/internal/app/system/normalize"
	"github.com/dalemusser/festivo/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
)

// ServeRegistrations searches every registration, newest first.
// Optional filters: q (leader name or email, event title), eventId and
// paymentStatus.
//
// Route: GET /api/admin/registrations
func (h *Handler) ServeRegistrations(w http.ResponseWriter, r *http.Request) {
	caller, ok := authz.Caller(r)
	if !ok {
		h.ErrLog.LogUnauthorized(w, r)
		return
	}
	q := r.URL.Query()
	eventID, err := inputval.OptionalObjectID("eventId", q.Get("eventId"))
	if err != nil {
		h.ErrLog.Write(w, r, "search registrations: bad event id", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	views, err := h.Participation.SearchRegistrations(ctx, caller, participation.SearchParams{
		Query:         normalize.QueryParam(q.Get("q")),
		EventID:       eventID,
		PaymentStatus: normalize.QueryParam(q.Get("paymentStatus")),
	})
	if err != nil {
		h.ErrLog.Write(w, r, "search registrations", err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, views)
}

// HandleSetPayment sets a registration's payment status to pending or paid.
//
// Route: PUT /api/admin/registrations/{id}/payment
func (h *Handler) HandleSetPayment(w http.ResponseWriter, r *http.Request) {
	caller, ok := authz.Caller(r)
	if !ok {
		h.ErrLog.LogUnauthorized(w, r)
		return
	}
	id, err := inputval.ObjectID("registration id", chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.Write(w, r, "set payment: bad id", err)
		return
	}
	var in struct {
		Status string `json:"status"`
	}
	if err := inputval.DecodeJSON(r, &in); err != nil {
		h.ErrLog.Write(w, r, "set payment: decode body", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	reg, err := h.Participation.MarkPaid(ctx, caller, participation.PaymentParams{
		RegistrationID: id,
		Status:         strings.ToLower(strings.TrimSpace(in.Status)),
	})
	if err != nil {
		h.ErrLog.Write(w, r, "set payment", err)
		return
	}

	h.AuditLog.PaymentUpdated(ctx, r, caller.ID, reg.ID, reg.PaymentStatus)
	uierrors.WriteJSON(w, http.StatusOK, reg)
}

// ServeStats returns the admin overview.
//
// Route: GET /api/admin/stats
func (h *Handler) ServeStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	stats, err := h.reports.AdminStats(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error building admin stats", err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, stats)
}
