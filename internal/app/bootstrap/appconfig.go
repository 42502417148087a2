// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers
// the framework-level settings (ports, TLS, log level, CORS, body limits).
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session and bearer token configuration
	SessionKey    string // Secret key for signing session cookies (must be strong in production)
	SessionName   string // Cookie name for sessions (default: festivo-session)
	SessionDomain string // Cookie domain (blank means current host)
	SessionTTL    time.Duration
	JWTSecret     string
	JWTTTL        time.Duration

	// Base URL for OAuth redirects, e.g. "https://fest.example.edu"
	BaseURL string

	// Google OAuth (optional)
	GoogleClientID     string
	GoogleClientSecret string

	// Audit routing per category: all, db, log or off
	AuditLogAuth          string
	AuditLogAdmin         string
	AuditLogMembership    string
	AuditLogParticipation string

	// Membership engine write mode: auto, txn or compensate
	MembershipTxMode string

	LoginRateLimit int // attempts per minute per IP

	SuperAdminEmail string

	TimeoutShort  time.Duration
	TimeoutMedium time.Duration
	TimeoutLong   time.Duration
}
