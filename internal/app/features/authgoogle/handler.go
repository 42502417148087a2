// internal/app/features/authgoogle/handler.go
package authgoogle

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	uierrors "github.com/dalemusser/festivo/internal/app/features/errors"
	"github.com/dalemusser/festivo/internal/app/store/oauthstate"
	userstore "github.com/dalemusser/festivo/internal/app/store/users"
	"github.com/dalemusser/festivo/internal/app/system/auditlog"
	"github.com/dalemusser/festivo/internal/app/system/auth"
	"github.com/dalemusser/festivo/internal/app/system/authutil"
	"github.com/dalemusser/festivo/internal/app/system/normalize"
	"github.com/dalemusser/festivo/internal/app/system/timeouts"
	"github.com/dalemusser/festivo/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	stateTTL    = 10 * time.Minute
	userInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
)

// Handler handles Google OAuth authentication.
type Handler struct {
	DB         *mongo.Database
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	ErrLog     *uierrors.ErrorLogger
	AuditLog   *auditlog.Logger
	StateStore *oauthstate.Store

	// OAuth configuration
	ClientID     string
	ClientSecret string
	RedirectURL  string // e.g., "https://fest.example.edu/auth/google/callback"
	Endpoint     oauth2.Endpoint
	UserInfoURL  string

	users *userstore.Store
}

// NewHandler creates a new Google OAuth handler.
func NewHandler(
	db *mongo.Database,
	sessionMgr *auth.SessionManager,
	errLog *uierrors.ErrorLogger,
	audit *auditlog.Logger,
	stateStore *oauthstate.Store,
	clientID, clientSecret, baseURL string,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		DB:           db,
		Log:          logger,
		SessionMgr:   sessionMgr,
		ErrLog:       errLog,
		AuditLog:     audit,
		StateStore:   stateStore,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  baseURL + "/auth/google/callback",
		Endpoint:     google.Endpoint,
		UserInfoURL:  userInfoURL,
		users:        userstore.New(db),
	}
}

// oauth2Config returns the Google OAuth2 configuration.
func (h *Handler) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.ClientID,
		ClientSecret: h.ClientSecret,
		RedirectURL:  h.RedirectURL,
		Scopes: []string{
			"openid",
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: h.Endpoint,
	}
}

// IsConfigured returns true if Google OAuth is configured.
func (h *Handler) IsConfigured() bool {
	return h.ClientID != "" && h.ClientSecret != ""
}

// ServeLogin starts the flow by redirecting to Google's consent screen.
//
// Route: GET /auth/google?return=
func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	if !h.IsConfigured() {
		uierrors.WriteError(w, http.StatusNotFound, "not_found", "Google sign-in is not configured.")
		return
	}

	state, err := generateState()
	if err != nil {
		h.ErrLog.LogServerError(w, r, "generate OAuth state", err)
		return
	}
	verifier := oauth2.GenerateVerifier()
	returnURL := query.Get(r, "return")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.StateStore.Save(ctx, state, verifier, returnURL, stateTTL); err != nil {
		h.ErrLog.LogServerError(w, r, "save OAuth state", err)
		return
	}

	dest := h.oauth2Config().AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
	h.Log.Debug("initiating Google OAuth flow", zap.String("return_url", returnURL))
	http.Redirect(w, r, dest, http.StatusTemporaryRedirect)
}

// ServeCallback exchanges the code, resolves or creates the identity and
// redirects back to the SPA with a bearer token in the URL fragment.
//
// Route: GET /auth/google/callback
func (h *Handler) ServeCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if errParam := q.Get("error"); errParam != "" {
		h.Log.Warn("Google OAuth error",
			zap.String("error", errParam),
			zap.String("description", q.Get("error_description")))
		redirectToLogin(w, r, "google_denied")
		return
	}

	state := q.Get("state")
	if state == "" {
		redirectToLogin(w, r, "invalid_state")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	st, ok, err := h.StateStore.Consume(ctx, state)
	if err != nil {
		h.Log.Error("failed to validate OAuth state", zap.Error(err))
		redirectToLogin(w, r, "internal")
		return
	}
	if !ok {
		h.Log.Warn("invalid or expired OAuth state")
		redirectToLogin(w, r, "invalid_state")
		return
	}

	code := q.Get("code")
	if code == "" {
		redirectToLogin(w, r, "invalid_code")
		return
	}

	token, err := h.oauth2Config().Exchange(ctx, code, oauth2.VerifierOption(st.Verifier))
	if err != nil {
		h.Log.Error("failed to exchange OAuth code", zap.Error(err))
		redirectToLogin(w, r, "token_exchange")
		return
	}

	info, err := h.fetchUserInfo(ctx, token)
	if err != nil {
		h.Log.Error("failed to fetch Google user info", zap.Error(err))
		redirectToLogin(w, r, "user_info")
		return
	}
	if !info.EmailVerified || normalize.Email(info.Email) == "" {
		redirectToLogin(w, r, "unverified_email")
		return
	}

	u, err := h.findOrCreate(ctx, r, info)
	switch {
	case errors.Is(err, errAuthMismatch):
		h.AuditLog.LoginFailedWrongPassword(ctx, r, u.ID, u.Email)
		redirectToLogin(w, r, "use_password")
		return
	case err != nil:
		h.Log.Error("failed to resolve Google user", zap.Error(err))
		redirectToLogin(w, r, "internal")
		return
	}
	if u.IsBlocked {
		h.AuditLog.LoginFailedBlocked(ctx, r, u.ID, u.Email)
		redirectToLogin(w, r, "account_blocked")
		return
	}

	h.signInAndRedirect(ctx, w, r, u, st.ReturnURL)
}

var errAuthMismatch = errors.New("account uses password sign-in")

// googleUserInfo represents user info returned from Google.
type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"verified_email"`
	Name          string `json:"name"`
}

func (h *Handler) fetchUserInfo(ctx context.Context, token *oauth2.Token) (*googleUserInfo, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))

	resp, err := client.Get(h.UserInfoURL)
	if err != nil {
		return nil, fmt.Errorf("fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode user info: %w", err)
	}
	return &info, nil
}

// findOrCreate returns the Google identity for info's email, creating a
// student on first sign-in. A password account with the same email is
// returned together with errAuthMismatch.
func (h *Handler) findOrCreate(ctx context.Context, r *http.Request, info *googleUserInfo) (models.User, error) {
	email := normalize.Email(info.Email)
	u, err := h.users.GetByEmail(ctx, email)
	if err == nil {
		if u.AuthMethod != models.AuthMethodGoogle {
			return *u, errAuthMismatch
		}
		return *u, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return models.User{}, err
	}

	name := normalize.Name(info.Name)
	if name == "" {
		name = email
	}
	created, err := h.users.Create(ctx, models.User{
		Name:       name,
		Email:      email,
		AuthMethod: models.AuthMethodGoogle,
		Role:       models.RoleStudent,
	})
	if errors.Is(err, userstore.ErrDuplicateEmail) {
		// Lost a race with a concurrent first sign-in.
		u, err := h.users.GetByEmail(ctx, email)
		if err != nil {
			return models.User{}, err
		}
		return *u, nil
	}
	if err != nil {
		return models.User{}, err
	}
	h.AuditLog.Signup(ctx, r, created.ID, created.Email, models.AuthMethodGoogle)
	h.Log.Info("created user from Google sign-in", zap.String("user_id", created.ID.Hex()))
	return created, nil
}

func (h *Handler) signInAndRedirect(ctx context.Context, w http.ResponseWriter, r *http.Request, u models.User, returnURL string) {
	if err := h.SessionMgr.SignIn(w, r, authutil.SessionUser(u)); err != nil {
		h.Log.Error("save session failed", zap.Error(err), zap.String("user_id", u.ID.Hex()))
		redirectToLogin(w, r, "session")
		return
	}

	dest := urlutil.SafeReturn(returnURL, "", "/")
	if ti := h.SessionMgr.Tokens(); ti != nil {
		tok, err := ti.Issue(u.ID.Hex(), u.Role)
		if err != nil {
			h.Log.Error("issue token failed", zap.Error(err), zap.String("user_id", u.ID.Hex()))
			redirectToLogin(w, r, "internal")
			return
		}
		dest += "#token=" + url.QueryEscape(tok)
	}

	h.AuditLog.LoginSuccess(ctx, r, u.ID, models.AuthMethodGoogle, u.Email)
	h.Log.Info("user logged in via Google OAuth", zap.String("user_id", u.ID.Hex()))
	http.Redirect(w, r, dest, http.StatusSeeOther)
}

func redirectToLogin(w http.ResponseWriter, r *http.Request, errorCode string) {
	http.Redirect(w, r, "/login?error="+errorCode, http.StatusSeeOther)
}

// generateState creates a cryptographically secure random state string.
func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
