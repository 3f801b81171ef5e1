// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for sudhub.
//
// These values come from environment variables (SUDHUB_*), configuration
// files, or command-line flags, loaded in LoadConfig. WAFFLE's CoreConfig
// carries the framework settings (ports, TLS, logging, CORS); everything
// specific to this app lives here and is passed to every lifecycle hook.
type AppConfig struct {
	// Document backend
	BackendBaseURL    string        // REST base path, e.g. http://localhost:5000
	BackendCookieName string        // cookie carrying the user's backend credential
	BackendTimeout    time.Duration // zero keeps transport defaults

	// MongoDB holds sudhub's own state: audit events, preferences, submissions
	MongoURI      string
	MongoDatabase string

	// Session management
	SessionKey    string        // signing key; at least 32 bytes in prod
	SessionName   string        // cookie name (default: sudhub-session)
	SessionDomain string        // blank means current host
	SessionMaxAge time.Duration // idle lifetime of the session cookie

	// Uploads and duplicate-submit guard
	MaxUploadMB   int
	SubmissionTTL time.Duration

	// Audit logging: all, db, log or off
	AuditLogAuth      string
	AuditLogWorkspace string
	AuditLogAdmin     string
}

// MaxUploadBytes is the upload limit in bytes.
func (c AppConfig) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}
