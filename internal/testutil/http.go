package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/festivo/internal/app/system/auth"
	"github.com/dalemusser/festivo/internal/domain/models"
)

// SessionFor builds a SessionUser from a stored user.
func SessionFor(u models.User) *auth.SessionUser {
	su := &auth.SessionUser{
		ID:        u.ID.Hex(),
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		IsBlocked: u.IsBlocked,
	}
	if u.CommitteeID != nil {
		su.CommitteeID = u.CommitteeID.Hex()
	}
	return su
}

// WithUser adds u to the request context, bypassing the session middleware.
func WithUser(r *http.Request, u models.User) *http.Request {
	return auth.WithTestUser(r, SessionFor(u))
}

// NewRequest creates a request. A non-nil body is encoded as JSON.
func NewRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			rdr = bytes.NewBufferString(b)
		default:
			buf, err := json.Marshal(b)
			if err != nil {
				t.Fatalf("marshal request body: %v", err)
			}
			rdr = bytes.NewReader(buf)
		}
	}
	req := httptest.NewRequest(method, target, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

// DecodeJSON decodes the recorder body into dst and fails the test on error.
func DecodeJSON(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(dst); err != nil {
		t.Fatalf("decode response (status %d): %v; body=%q", rec.Code, err, rec.Body.String())
	}
}

// ErrorBody is the JSON error envelope written by the API.
type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// AssertStatus checks the response status code.
func AssertStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Errorf("status code: got %d, want %d; body=%s", rec.Code, want, rec.Body.String())
	}
}
