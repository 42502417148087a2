// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dalemusser/festivo/internal/app/store/audit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Config holds audit logging configuration.
//
// Each field accepts "all" (MongoDB + zap), "db" (MongoDB only),
// "log" (zap only) or "off" (disabled).
type Config struct {
	// Auth covers signup, login and logout.
	Auth string
	// Admin covers event/committee CRUD, blocking and payment updates.
	Admin string
	// Membership covers role, coordinator and member changes made by the
	// membership engine, including identity deletion.
	Membership string
	// Participation covers registrations, attendance and scores.
	Participation string
}

// Sink persists audit events. *audit.Store satisfies it.
type Sink interface {
	Log(ctx context.Context, event audit.Event) error
}

// Logger provides convenience methods for logging audit events.
// It logs to both MongoDB (via the Sink) and structured logs (via zap).
type Logger struct {
	store  Sink
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store Sink, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

// getClientIP extracts the client IP from the request.
func getClientIP(r *http.Request) string {
	// Check X-Forwarded-For header first (for reverse proxies)
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}

type requestInfo struct {
	ip        string
	userAgent string
}

type requestKey struct{}

// WithRequest stores the caller's IP and user agent on ctx so that
// code without access to the *http.Request can still attribute events.
func WithRequest(ctx context.Context, r *http.Request) context.Context {
	if r == nil {
		return ctx
	}
	return context.WithValue(ctx, requestKey{}, requestInfo{
		ip:        getClientIP(r),
		userAgent: r.UserAgent(),
	})
}

func requestFrom(ctx context.Context) requestInfo {
	info, _ := ctx.Value(requestKey{}).(requestInfo)
	return info
}

// logToZap logs the event to zap with consistent structure.
func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}

	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.CommitteeID != nil {
		fields = append(fields, zap.String("committee_id", event.CommitteeID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event based on configuration.
// If the logger is nil, this is a no-op (allows tests to use nil audit logger).
// A failure to persist the event is logged and never returned to the caller.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryAdmin:
		setting = l.config.Admin
	case audit.CategoryMembership:
		setting = l.config.Membership
	case audit.CategoryParticipation:
		setting = l.config.Participation
	default:
		setting = "all"
	}
	if setting == "" {
		setting = "all"
	}
	if setting == "off" {
		return
	}

	if event.IP == "" {
		info := requestFrom(ctx)
		event.IP = info.ip
		if event.UserAgent == "" {
			event.UserAgent = info.userAgent
		}
	}

	if setting == "all" || setting == "log" {
		l.logToZap(event)
	}

	if (setting == "all" || setting == "db") && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

// --- Authentication Events ---

// Signup logs a new account created through self-registration.
func (l *Logger) Signup(ctx context.Context, r *http.Request, userID primitive.ObjectID, email, authMethod string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventSignup,
		UserID:    &userID,
		IP:        getClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
		Details: map[string]string{
			"email":       email,
			"auth_method": authMethod,
		},
	})
}

// LoginSuccess logs a successful login.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID primitive.ObjectID, authMethod, email string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		UserID:    &userID,
		IP:        getClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
		Details: map[string]string{
			"auth_method": authMethod,
			"email":       email,
		},
	})
}

// LoginFailedUserNotFound logs a login attempt for an unknown email.
func (l *Logger) LoginFailedUserNotFound(ctx context.Context, r *http.Request, attemptedEmail string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailedUserNotFound,
		IP:            getClientIP(r),
		UserAgent:     r.UserAgent(),
		Success:       false,
		FailureReason: "user not found",
		Details:       map[string]string{"attempted_email": attemptedEmail},
	})
}

// LoginFailedWrongPassword logs a login attempt with an incorrect password.
func (l *Logger) LoginFailedWrongPassword(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailedWrongPassword,
		UserID:        &userID,
		IP:            getClientIP(r),
		UserAgent:     r.UserAgent(),
		Success:       false,
		FailureReason: "wrong password",
		Details:       map[string]string{"email": email},
	})
}

// LoginFailedBlocked logs a login attempt by a blocked account.
func (l *Logger) LoginFailedBlocked(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailedBlocked,
		UserID:        &userID,
		IP:            getClientIP(r),
		UserAgent:     r.UserAgent(),
		Success:       false,
		FailureReason: "account blocked",
		Details:       map[string]string{"email": email},
	})
}

// LoginFailedRateLimit logs a login attempt rejected by the rate limiter.
func (l *Logger) LoginFailedRateLimit(ctx context.Context, r *http.Request, email string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailedRateLimit,
		IP:            getClientIP(r),
		UserAgent:     r.UserAgent(),
		Success:       false,
		FailureReason: "too many attempts",
		Details:       map[string]string{"email": email},
	})
}

// Logout logs a user logout.
func (l *Logger) Logout(ctx context.Context, r *http.Request, userIDStr string) {
	event := audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLogout,
		IP:        getClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
	}
	if oid, err := primitive.ObjectIDFromHex(userIDStr); err == nil {
		event.UserID = &oid
	}
	l.Log(ctx, event)
}

// --- Admin Events ---

func (l *Logger) admin(ctx context.Context, r *http.Request, eventType string, actorID primitive.ObjectID, userID, committeeID *primitive.ObjectID, details map[string]string) {
	l.Log(ctx, audit.Event{
		Category:    audit.CategoryAdmin,
		EventType:   eventType,
		ActorID:     &actorID,
		UserID:      userID,
		CommitteeID: committeeID,
		IP:          getClientIP(r),
		UserAgent:   r.UserAgent(),
		Success:     true,
		Details:     details,
	})
}

// UserUpdated logs a profile update made by an administrator.
func (l *Logger) UserUpdated(ctx context.Context, r *http.Request, actorID, targetUserID primitive.ObjectID, fieldsChanged string) {
	l.admin(ctx, r, audit.EventUserUpdated, actorID, &targetUserID, nil, map[string]string{
		"fields_changed": fieldsChanged,
	})
}

// UserBlocked logs a block or unblock of an account.
func (l *Logger) UserBlocked(ctx context.Context, r *http.Request, actorID, targetUserID primitive.ObjectID, blocked bool) {
	eventType := audit.EventUserUnblocked
	if blocked {
		eventType = audit.EventUserBlocked
	}
	l.admin(ctx, r, eventType, actorID, &targetUserID, nil, nil)
}

// CommitteeCreated logs committee creation.
func (l *Logger) CommitteeCreated(ctx context.Context, r *http.Request, actorID, committeeID primitive.ObjectID, name string) {
	l.admin(ctx, r, audit.EventCommitteeCreated, actorID, nil, &committeeID, map[string]string{"name": name})
}

// CommitteeUpdated logs a committee update.
func (l *Logger) CommitteeUpdated(ctx context.Context, r *http.Request, actorID, committeeID primitive.ObjectID, fieldsChanged string) {
	l.admin(ctx, r, audit.EventCommitteeUpdated, actorID, nil, &committeeID, map[string]string{"fields_changed": fieldsChanged})
}

// CommitteeDeleted logs a committee soft-delete.
func (l *Logger) CommitteeDeleted(ctx context.Context, r *http.Request, actorID, committeeID primitive.ObjectID, name string) {
	l.admin(ctx, r, audit.EventCommitteeDeleted, actorID, nil, &committeeID, map[string]string{"name": name})
}

// EventCreated logs creation of a festival event.
func (l *Logger) EventCreated(ctx context.Context, r *http.Request, actorID, eventID primitive.ObjectID, committeeID *primitive.ObjectID, title string) {
	l.admin(ctx, r, audit.EventEventCreated, actorID, nil, committeeID, map[string]string{
		"event_id": eventID.Hex(),
		"title":    title,
	})
}

// EventUpdated logs an update to a festival event.
func (l *Logger) EventUpdated(ctx context.Context, r *http.Request, actorID, eventID primitive.ObjectID, committeeID *primitive.ObjectID, fieldsChanged string) {
	l.admin(ctx, r, audit.EventEventUpdated, actorID, nil, committeeID, map[string]string{
		"event_id":       eventID.Hex(),
		"fields_changed": fieldsChanged,
	})
}

// EventDeleted logs a festival event soft-delete.
func (l *Logger) EventDeleted(ctx context.Context, r *http.Request, actorID, eventID primitive.ObjectID, committeeID *primitive.ObjectID, title string) {
	l.admin(ctx, r, audit.EventEventDeleted, actorID, nil, committeeID, map[string]string{
		"event_id": eventID.Hex(),
		"title":    title,
	})
}

// EventMembersAssigned logs a coordinator replacing an event roster.
func (l *Logger) EventMembersAssigned(ctx context.Context, r *http.Request, actorID, eventID, committeeID primitive.ObjectID, count int) {
	l.admin(ctx, r, audit.EventEventMembersAssigned, actorID, nil, &committeeID, map[string]string{
		"event_id": eventID.Hex(),
		"count":    strconv.Itoa(count),
	})
}

// PaymentUpdated logs a change of a registration's payment status.
func (l *Logger) PaymentUpdated(ctx context.Context, r *http.Request, actorID, registrationID primitive.ObjectID, status string) {
	l.admin(ctx, r, audit.EventPaymentUpdated, actorID, nil, nil, map[string]string{
		"registration_id": registrationID.Hex(),
		"status":          status,
	})
}

// --- Membership Events ---
//
// These take no *http.Request; the IP and user agent come from the
// context (see WithRequest).

// Membership logs the outcome of a membership engine operation. A nil
// opErr records success; otherwise the event is recorded as a failure
// with the error text as the reason.
func (l *Logger) Membership(ctx context.Context, eventType string, actorID primitive.ObjectID, userID, committeeID *primitive.ObjectID, details map[string]string, opErr error) {
	event := audit.Event{
		Category:    audit.CategoryMembership,
		EventType:   eventType,
		ActorID:     &actorID,
		UserID:      userID,
		CommitteeID: committeeID,
		Success:     opErr == nil,
		Details:     details,
	}
	if opErr != nil {
		event.FailureReason = opErr.Error()
	}
	l.Log(ctx, event)
}

// RoleAssigned logs a successful role assignment.
func (l *Logger) RoleAssigned(ctx context.Context, actorID, userID primitive.ObjectID, committeeID *primitive.ObjectID, fromRole, toRole string) {
	l.Membership(ctx, audit.EventRoleAssigned, actorID, &userID, committeeID, map[string]string{
		"from_role": fromRole,
		"to_role":   toRole,
	}, nil)
}

// CoordinatorAdded logs a user becoming coordinator of a committee.
func (l *Logger) CoordinatorAdded(ctx context.Context, actorID, userID, committeeID primitive.ObjectID) {
	l.Membership(ctx, audit.EventCoordinatorAdded, actorID, &userID, &committeeID, nil, nil)
}

// CoordinatorRemoved logs a user losing coordinatorship of a committee.
func (l *Logger) CoordinatorRemoved(ctx context.Context, actorID, userID, committeeID primitive.ObjectID, demoted bool) {
	l.Membership(ctx, audit.EventCoordinatorRemoved, actorID, &userID, &committeeID, map[string]string{
		"demoted": boolToString(demoted),
	}, nil)
}

// MemberAdded logs a user joining a committee as member.
func (l *Logger) MemberAdded(ctx context.Context, actorID, userID, committeeID primitive.ObjectID) {
	l.Membership(ctx, audit.EventMemberAdded, actorID, &userID, &committeeID, nil, nil)
}

// MemberRemoved logs a user leaving a committee.
func (l *Logger) MemberRemoved(ctx context.Context, actorID, userID, committeeID primitive.ObjectID, demoted bool) {
	l.Membership(ctx, audit.EventMemberRemoved, actorID, &userID, &committeeID, map[string]string{
		"demoted": boolToString(demoted),
	}, nil)
}

// IdentityDeleted logs the removal of an account and all of its references.
func (l *Logger) IdentityDeleted(ctx context.Context, actorID, userID primitive.ObjectID, email, role string) {
	l.Membership(ctx, audit.EventIdentityDeleted, actorID, &userID, nil, map[string]string{
		"email": email,
		"role":  role,
	}, nil)
}

// CommitteeAssigned logs an admin setting a user's primary committee.
func (l *Logger) CommitteeAssigned(ctx context.Context, actorID, userID, committeeID primitive.ObjectID, fromCommitteeID *primitive.ObjectID) {
	var details map[string]string
	if fromCommitteeID != nil {
		details = map[string]string{"from_committee_id": fromCommitteeID.Hex()}
	}
	l.Membership(ctx, audit.EventCommitteeAssigned, actorID, &userID, &committeeID, details, nil)
}

// CommitteeUnassigned logs an admin clearing a user's primary committee.
func (l *Logger) CommitteeUnassigned(ctx context.Context, actorID, userID, committeeID primitive.ObjectID, fromRole, toRole string) {
	l.Membership(ctx, audit.EventCommitteeCleared, actorID, &userID, &committeeID, map[string]string{
		"from_role": fromRole,
		"to_role":   toRole,
	}, nil)
}

// RoleStateRepaired logs a reconcile repair. actorID is zero for the
// operator CLI.
func (l *Logger) RoleStateRepaired(ctx context.Context, actorID, userID primitive.ObjectID, committeeID *primitive.ObjectID, rule string) {
	l.Membership(ctx, audit.EventRoleStateRepaired, actorID, &userID, committeeID, map[string]string{
		"rule": rule,
	}, nil)
}

// --- Helper functions ---

func boolToString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// --- Participation Events ---

func (l *Logger) participation(ctx context.Context, eventType string, actorID primitive.ObjectID, userID *primitive.ObjectID, details map[string]string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryParticipation,
		EventType: eventType,
		ActorID:   &actorID,
		UserID:    userID,
		Success:   true,
		Details:   details,
	})
}

// RegistrationCreated logs a new event registration made by its leader.
func (l *Logger) RegistrationCreated(ctx context.Context, leaderID, registrationID, eventID primitive.ObjectID, groupSize int) {
	l.participation(ctx, audit.EventRegistrationCreated, leaderID, &leaderID, map[string]string{
		"registration_id": registrationID.Hex(),
		"event_id":        eventID.Hex(),
		"group_size":      strconv.Itoa(groupSize),
	})
}

// AttendanceMarked logs a staff member recording attendance for a participant.
func (l *Logger) AttendanceMarked(ctx context.Context, actorID, registrationID, participantID primitive.ObjectID, status string) {
	l.participation(ctx, audit.EventAttendanceMarked, actorID, &participantID, map[string]string{
		"registration_id": registrationID.Hex(),
		"status":          status,
	})
}

// ScoreRecorded logs a judge submitting or replacing a score.
func (l *Logger) ScoreRecorded(ctx context.Context, actorID, registrationID, participantID primitive.ObjectID, round string, score float64) {
	l.participation(ctx, audit.EventScoreRecorded, actorID, &participantID, map[string]string{
		"registration_id": registrationID.Hex(),
		"round":           round,
		"score":           strconv.FormatFloat(score, 'f', -1, 64),
	})
}
