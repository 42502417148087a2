// internal/app/features/auditlog/list.go
package auditlog

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	uierrors "github.com/dalemusser/festivo/internal/app/features/errors"
	"github.com/dalemusser/festivo/internal/app/store/audit"
	"github.com/dalemusser/festivo/internal/app/system/inputval"
	"github.com/dalemusser/festivo/internal/app/system/timeouts"
)

const pageSize = 50

type listResponse struct {
	Events  []audit.Event `json:"events"`
	Page    int           `json:"page"`
	Total   int64         `json:"total"`
	HasNext bool          `json:"has_next"`
}

// ServeList returns audit events newest first, filtered by category,
// event type, affected user, committee and a date range.
//
// Route: GET /api/admin/audit?category&eventType&userId&committeeId&startDate&endDate&page
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page := 1
	if p, err := strconv.Atoi(q.Get("page")); err == nil && p > 0 {
		page = p
	}
	filter := audit.QueryFilter{
		Category:  strings.TrimSpace(q.Get("category")),
		EventType: strings.TrimSpace(q.Get("eventType")),
		Limit:     pageSize,
		Offset:    int64((page - 1) * pageSize),
	}

	var err error
	if filter.UserID, err = inputval.OptionalObjectID("userId", q.Get("userId")); err != nil {
		h.ErrLog.Write(w, r, "audit list: bad user id", err)
		return
	}
	if filter.CommitteeID, err = inputval.OptionalObjectID("committeeId", q.Get("committeeId")); err != nil {
		h.ErrLog.Write(w, r, "audit list: bad committee id", err)
		return
	}
	if s := strings.TrimSpace(q.Get("startDate")); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			uierrors.WriteError(w, http.StatusBadRequest, "invalid_argument", "startDate must be YYYY-MM-DD.")
			return
		}
		filter.StartTime = &t
	}
	if s := strings.TrimSpace(q.Get("endDate")); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			uierrors.WriteError(w, http.StatusBadRequest, "invalid_argument", "endDate must be YYYY-MM-DD.")
			return
		}
		// End of day
		end := t.Add(24*time.Hour - time.Nanosecond)
		filter.EndTime = &end
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	events, err := h.events.Query(ctx, filter)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error querying audit log", err)
		return
	}
	total, err := h.events.CountByFilter(ctx, filter)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error counting audit log", err)
		return
	}
	if events == nil {
		events = []audit.Event{}
	}

	uierrors.WriteJSON(w, http.StatusOK, listResponse{
		Events:  events,
		Page:    page,
		Total:   total,
		HasNext: int64(page*pageSize) < total,
	})
}
