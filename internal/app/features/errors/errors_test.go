package errors_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	uierrors "github.com/dalemusser/festivo/internal/app/features/errors"
	"github.com/dalemusser/festivo/internal/app/system/apperr"
	"github.com/dalemusser/festivo/internal/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWrite_MapsKinds(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantKind string
		wantMsg  string
	}{
		{"not found", apperr.NotFound("event not found"), http.StatusNotFound, "not_found", "event not found"},
		{"invalid", apperr.Invalid("status is required"), http.StatusBadRequest, "invalid_argument", "status is required"},
		{"conflict", apperr.Conflict("already registered"), http.StatusConflict, "conflict", "already registered"},
		{"denied", apperr.Denied("admins only"), http.StatusForbidden, "permission_denied", "admins only"},
		{"internal", apperr.Internal("insert failed", errors.New("socket closed")), http.StatusInternalServerError, "internal", "An internal error occurred."},
		{"unclassified", errors.New("boom"), http.StatusInternalServerError, "internal", "An internal error occurred."},
	}

	errLog := uierrors.NewErrorLogger(zap.NewNop())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/events", nil)

			errLog.Write(rec, req, "test failure", tt.err)

			testutil.AssertStatus(t, rec, tt.wantCode)
			var body uierrors.Body
			testutil.DecodeJSON(t, rec, &body)
			if body.Error != tt.wantKind {
				t.Errorf("error = %q, want %q", body.Error, tt.wantKind)
			}
			if body.Message != tt.wantMsg {
				t.Errorf("message = %q, want %q", body.Message, tt.wantMsg)
			}
		})
	}
}

func TestLogServerError_LogsCauseHidesIt(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	errLog := uierrors.NewErrorLogger(zap.New(core))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/scores", nil)
	errLog.LogServerError(rec, req, "upsert score failed", errors.New("secret detail"))

	testutil.AssertStatus(t, rec, http.StatusInternalServerError)
	if got := rec.Body.String(); strings.Contains(got, "secret detail") {
		t.Errorf("response leaked cause: %s", got)
	}
	entries := logs.FilterMessage("upsert score failed").All()
	if len(entries) != 1 {
		t.Fatalf("got %d log entries, want 1", len(entries))
	}
	if entries[0].ContextMap()["path"] != "/api/scores" {
		t.Errorf("path field = %v", entries[0].ContextMap()["path"])
	}
}

func TestHandler_NotFound(t *testing.T) {
	rec := httptest.NewRecorder()
	uierrors.NewHandler().NotFound(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	testutil.AssertStatus(t, rec, http.StatusNotFound)
	if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
}
