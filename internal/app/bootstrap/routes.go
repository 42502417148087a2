// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	adminusersfeature "github.com/dalemusser/festivo/internal/app/features/adminusers"
	auditlogfeature "github.com/dalemusser/festivo/internal/app/features/auditlog"
	authapifeature "github.com/dalemusser/festivo/internal/app/features/authapi"
	authgooglefeature "github.com/dalemusser/festivo/internal/app/features/authgoogle"
	committeesfeature "github.com/dalemusser/festivo/internal/app/features/committees"
	coordinatorfeature "github.com/dalemusser/festivo/internal/app/features/coordinator"
	errorsfeature "github.com/dalemusser/festivo/internal/app/features/errors"
	eventsfeature "github.com/dalemusser/festivo/internal/app/features/events"
	exportsfeature "github.com/dalemusser/festivo/internal/app/features/exports"
	healthfeature "github.com/dalemusser/festivo/internal/app/features/health"
	memberfeature "github.com/dalemusser/festivo/internal/app/features/member"
	registrationsfeature "github.com/dalemusser/festivo/internal/app/features/registrations"
	scoresfeature "github.com/dalemusser/festivo/internal/app/features/scores"
	verificationfeature "github.com/dalemusser/festivo/internal/app/features/verification"
	"github.com/dalemusser/festivo/internal/app/store/oauthstate"
	userstore "github.com/dalemusser/festivo/internal/app/store/users"
	"github.com/dalemusser/festivo/internal/app/system/auth"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. At this point you have access to:
//   - coreCfg: WAFFLE core configuration (ports, env, timeouts, etc.)
//   - appCfg: app-specific configuration defined in AppConfig
//   - deps: any DB or backend clients bundled in DBDeps
//   - logger: the fully configured zap.Logger for this app
//
// Festivo serves a JSON API only. Every feature router is mounted under
// /api except health, metrics and the Google OAuth redirect flow.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase

	// Create the session manager using app config.
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionTTL, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}
	tokens, err := auth.NewTokenIssuer(appCfg.JWTSecret, appCfg.JWTTTL)
	if err != nil {
		logger.Error("token issuer init failed", zap.Error(err))
		return nil, err
	}
	sessionMgr.SetTokenIssuer(tokens)

	// Set up the UserFetcher so LoadSessionUser fetches fresh user data on each request.
	// This ensures role changes and blocked accounts take effect immediately.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(db))

	svc, err := newServices(appCfg, deps, logger)
	if err != nil {
		return nil, err
	}

	// Create error logger for handlers.
	errLog := errorsfeature.NewErrorLogger(logger)

	r := chi.NewRouter()
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware)
	}

	// Global auth middleware: loads SessionUser into context from the
	// session cookie or a bearer token.
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics.Handler())
	}

	// Authentication
	authHandler := authapifeature.NewHandler(db, sessionMgr, deps.LoginLimiter, errLog, svc.Audit, logger)
	r.Mount("/api/auth", authapifeature.Routes(authHandler, sessionMgr))

	if appCfg.GoogleClientID != "" && appCfg.GoogleClientSecret != "" {
		googleHandler := authgooglefeature.NewHandler(db, sessionMgr, errLog, svc.Audit, oauthstate.New(db),
			appCfg.GoogleClientID, appCfg.GoogleClientSecret, appCfg.BaseURL, logger)
		r.Mount("/auth/google", authgooglefeature.Routes(googleHandler))
		logger.Info("Google sign-in enabled")
	}

	// Events and their registrations share the /api/events prefix.
	eventsHandler := eventsfeature.NewHandler(db, errLog, svc.Audit, logger)
	regHandler := registrationsfeature.NewHandler(svc.Participation, errLog, logger)
	eventsRouter := eventsfeature.Routes(eventsHandler, sessionMgr)
	registrationsfeature.MountEventRoutes(eventsRouter, regHandler, sessionMgr)
	r.Mount("/api/events", eventsRouter)
	r.Mount("/api/users", registrationsfeature.UserRoutes(regHandler, sessionMgr))
	r.Mount("/api/registrations", registrationsfeature.Routes(regHandler, sessionMgr))

	// /api/committee and /api/verify are the paths the web client uses.
	committeesHandler := committeesfeature.NewHandler(db, svc.Reporting, errLog, svc.Audit, logger)
	r.Mount("/api/committees", committeesfeature.Routes(committeesHandler, sessionMgr))
	r.Mount("/api/committee", committeesfeature.Routes(committeesHandler, sessionMgr))

	// Admin console, with exports and the audit viewer nested beneath it.
	adminHandler := adminusersfeature.NewHandler(db, svc.Membership, svc.Participation, svc.Reporting, errLog, svc.Audit, logger)
	adminRouter := adminusersfeature.Routes(adminHandler, sessionMgr)
	exportsHandler := exportsfeature.NewHandler(svc.Participation, errLog, logger)
	adminRouter.Mount("/export", exportsfeature.Routes(exportsHandler, sessionMgr))
	auditHandler := auditlogfeature.NewHandler(db, errLog, logger)
	adminRouter.Mount("/audit", auditlogfeature.Routes(auditHandler, sessionMgr))
	r.Mount("/api/admin", adminRouter)

	coordHandler := coordinatorfeature.NewHandler(db, svc.Membership, svc.Participation, svc.Reporting, errLog, logger)
	r.Mount("/api/coordinator", coordinatorfeature.Routes(coordHandler, sessionMgr))

	memberHandler := memberfeature.NewHandler(db, svc.Participation, svc.Reporting, errLog, logger)
	r.Mount("/api/member", memberfeature.Routes(memberHandler, sessionMgr))

	verifyHandler := verificationfeature.NewHandler(svc.Participation, errLog, logger)
	r.Mount("/api/verification", verificationfeature.Routes(verifyHandler, sessionMgr))
	r.Mount("/api/verify", verificationfeature.Routes(verifyHandler, sessionMgr))

	scoresHandler := scoresfeature.NewHandler(svc.Participation, errLog, logger)
	r.Mount("/api/scores", scoresfeature.Routes(scoresHandler, sessionMgr))

	// JSON 404/405 for everything else
	errorsHandler := errorsfeature.NewHandler()
	r.NotFound(errorsHandler.NotFound)
	r.MethodNotAllowed(errorsHandler.MethodNotAllowed)

	return r, nil
}
