// internal/app/features/authapi/auth.go
package authapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/festivo/internal/app/features/errors"
	userstore "github.com/dalemusser/festivo/internal/app/store/users"
	"github.com/dalemusser/festivo/internal/app/system/auth"
	"github.com/dalemusser/festivo/internal/app/system/authutil"
	"github.com/dalemusser/festivo/internal/app/system/authz"
	"github.com/dalemusser/festivo/internal/app/system/inputval"
	"github.com/dalemusser/festivo/internal/app/system/normalize"
	"github.com/dalemusser/festivo/internal/app/system/timeouts"
	"github.com/dalemusser/festivo/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const badCredentials = "Invalid email or password."

// HandleSignup creates a student identity with a password.
//
// Route: POST /api/auth/signup
func (h *Handler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var body signupRequest
	if err := inputval.DecodeJSON(r, &body); err != nil {
		h.ErrLog.Write(w, r, "signup: decode", err)
		return
	}
	name := normalize.Name(body.Name)
	email := normalize.Email(body.Email)
	if name == "" || email == "" || body.Password == "" {
		uierrors.WriteError(w, http.StatusBadRequest, "invalid_argument", "Name, email and password are required.")
		return
	}
	if !inputval.IsValidEmail(email) {
		uierrors.WriteError(w, http.StatusBadRequest, "invalid_argument", "A valid email is required.")
		return
	}
	if len(body.Password) < authutil.MinPasswordLength {
		uierrors.WriteError(w, http.StatusBadRequest, "invalid_argument", "Password must be at least 6 characters.")
		return
	}

	hash, err := auth.HashPassword(body.Password)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "hash password", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.users.Create(ctx, models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		AuthMethod:   models.AuthMethodPassword,
		Role:         models.RoleStudent,
		CollegeID:    strings.TrimSpace(body.CollegeID),
		Year:         strings.TrimSpace(body.Year),
	})
	if errors.Is(err, userstore.ErrDuplicateEmail) {
		uierrors.WriteError(w, http.StatusConflict, "conflict", "An account with this email already exists.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error creating user", err)
		return
	}

	h.AuditLog.Signup(ctx, r, u.ID, u.Email, models.AuthMethodPassword)
	h.signIn(w, r, http.StatusCreated, u)
}

// HandleLogin verifies a password and opens a session.
//
// Route: POST /api/auth/login
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var body loginRequest
	if err := inputval.DecodeJSON(r, &body); err != nil {
		h.ErrLog.Write(w, r, "login: decode", err)
		return
	}
	email := normalize.Email(body.Email)
	if email == "" || body.Password == "" {
		uierrors.WriteError(w, http.StatusBadRequest, "invalid_argument", "Email and password are required.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if h.Limiter != nil {
		if ok, msg := h.Limiter.Check(r, email); !ok {
			h.AuditLog.LoginFailedRateLimit(ctx, r, email)
			uierrors.WriteError(w, http.StatusTooManyRequests, "rate_limited", msg)
			return
		}
	}

	u, err := h.users.GetByEmail(ctx, email)
	if errors.Is(err, mongo.ErrNoDocuments) {
		h.AuditLog.LoginFailedUserNotFound(ctx, r, email)
		uierrors.WriteError(w, http.StatusUnauthorized, "unauthenticated", badCredentials)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error loading user", err)
		return
	}

	if !authutil.CanUsePassword(*u) || !auth.CheckPassword(u.PasswordHash, body.Password) {
		h.AuditLog.LoginFailedWrongPassword(ctx, r, u.ID, u.Email)
		uierrors.WriteError(w, http.StatusUnauthorized, "unauthenticated", badCredentials)
		return
	}
	if u.IsBlocked {
		h.AuditLog.LoginFailedBlocked(ctx, r, u.ID, u.Email)
		uierrors.WriteError(w, http.StatusForbidden, "permission_denied", "Your account has been blocked.")
		return
	}

	if h.Limiter != nil {
		h.Limiter.ResetEmail(email)
	}
	h.AuditLog.LoginSuccess(ctx, r, u.ID, models.AuthMethodPassword, u.Email)
	h.signIn(w, r, http.StatusOK, *u)
}

// HandleLogout clears the session cookie. Bearer tokens simply expire.
//
// Route: POST /api/auth/logout
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if u, ok := auth.CurrentUser(r); ok {
		h.AuditLog.Logout(r.Context(), r, u.ID)
	}
	if err := h.SessionMgr.SignOut(w, r); err != nil {
		h.Log.Warn("sign out failed", zap.Error(err))
	}
	uierrors.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// ServeMe returns the caller's stored identity.
//
// Route: GET /api/auth/me
func (h *Handler) ServeMe(w http.ResponseWriter, r *http.Request) {
	_, _, uid, ok := authz.UserCtx(r)
	if !ok {
		h.ErrLog.LogUnauthorized(w, r)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.users.GetByID(ctx, uid)
	if errors.Is(err, mongo.ErrNoDocuments) {
		h.ErrLog.LogUnauthorized(w, r)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error loading user", err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, u)
}

// signIn writes the session cookie and answers with a bearer token when
// token auth is configured.
func (h *Handler) signIn(w http.ResponseWriter, r *http.Request, status int, u models.User) {
	if err := h.SessionMgr.SignIn(w, r, authutil.SessionUser(u)); err != nil {
		h.ErrLog.LogServerError(w, r, "session save failed", err)
		return
	}

	resp := authResponse{User: u}
	if ti := h.SessionMgr.Tokens(); ti != nil {
		tok, err := ti.Issue(u.ID.Hex(), u.Role)
		if err != nil {
			h.ErrLog.LogServerError(w, r, "issue token", err)
			return
		}
		resp.Token = tok
		resp.ExpiresIn = int64(ti.TTL().Seconds())
	}
	uierrors.WriteJSON(w, status, resp)
}
