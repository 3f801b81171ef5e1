// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dalemusser/sudhub/internal/app/store/audit"
	"github.com/dalemusser/sudhub/internal/app/system/ratelimit"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Setting values for a category.
const (
	All = "all" // MongoDB + zap
	DB  = "db"  // MongoDB only
	Log = "log" // zap only
	Off = "off" // disabled
)

// Config holds audit logging configuration, one setting per category.
type Config struct {
	Auth      string // sign-in, sign-out, registration
	Workspace string // workspace, branch, request, file and access mutations
	Admin     string // departments, users
}

// Logger records audit events to MongoDB (via audit.Store) and zap.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

// NewNopLogger returns a Logger that drops every event.
func NewNopLogger() *Logger {
	return &Logger{zapLog: zap.NewNop(), config: Config{Auth: Off, Workspace: Off, Admin: Off}}
}

// ValidSetting reports whether v is one of all, db, log, off.
func ValidSetting(v string) bool {
	switch v {
	case All, DB, Log, Off:
		return true
	}
	return false
}

func (l *Logger) setting(category string) string {
	var s string
	switch category {
	case audit.CategoryAuth:
		s = l.config.Auth
	case audit.CategoryWorkspace:
		s = l.config.Workspace
	case audit.CategoryAdmin:
		s = l.config.Admin
	}
	if s == "" {
		return All
	}
	return s
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
	if event.Actor != "" {
		fields = append(fields, zap.String("actor", event.Actor))
	}
	if event.Target != "" {
		fields = append(fields, zap.String("target", event.Target))
	}
	if event.RequestID != "" {
		fields = append(fields, zap.String("request_id", event.RequestID))
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
// A nil Logger is a no-op.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}
	setting := l.setting(event.Category)
	if setting == Off {
		return
	}
	if setting == All || setting == Log {
		l.logToZap(event)
	}
	if (setting == All || setting == DB) && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

func fromRequest(r *http.Request, category, eventType, actor string) audit.Event {
	return audit.Event{
		Category:  category,
		EventType: eventType,
		Actor:     actor,
		IP:        ratelimit.ClientIP(r),
		UserAgent: r.UserAgent(),
		RequestID: middleware.GetReqID(r.Context()),
	}
}

// --- Authentication Events ---

// LoginSuccess logs a successful sign-in.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, loginID, role string) {
	e := fromRequest(r, audit.CategoryAuth, audit.EventLoginSuccess, loginID)
	e.Success = true
	e.Details = map[string]string{"role": role}
	l.Log(ctx, e)
}

// LoginFailed logs a rejected sign-in. status is the backend's HTTP status,
// or 0 when the backend could not be reached.
func (l *Logger) LoginFailed(ctx context.Context, r *http.Request, loginID, reason string, status int) {
	e := fromRequest(r, audit.CategoryAuth, audit.EventLoginFailed, loginID)
	e.FailureReason = reason
	e.Details = map[string]string{"status": strconv.Itoa(status)}
	l.Log(ctx, e)
}

// Logout logs a sign-out.
func (l *Logger) Logout(ctx context.Context, r *http.Request, loginID string) {
	e := fromRequest(r, audit.CategoryAuth, audit.EventLogout, loginID)
	e.Success = true
	l.Log(ctx, e)
}

// Registered logs a new account.
func (l *Logger) Registered(ctx context.Context, r *http.Request, loginID, username string) {
	e := fromRequest(r, audit.CategoryAuth, audit.EventRegistered, loginID)
	e.Success = true
	e.Details = map[string]string{"username": username}
	l.Log(ctx, e)
}

// RegisterFailed logs a rejected registration.
func (l *Logger) RegisterFailed(ctx context.Context, r *http.Request, loginID, reason string) {
	e := fromRequest(r, audit.CategoryAuth, audit.EventRegisterFailed, loginID)
	e.FailureReason = reason
	l.Log(ctx, e)
}

// SessionRejected logs a backend refusing a stored credential, which ends
// the local session.
func (l *Logger) SessionRejected(ctx context.Context, r *http.Request, loginID string) {
	e := fromRequest(r, audit.CategoryAuth, audit.EventSessionRejected, loginID)
	e.FailureReason = "backend rejected credential"
	l.Log(ctx, e)
}

// --- Mutation Events ---

// Mutation logs the outcome of one dispatched write. A nil err is success.
func (l *Logger) Mutation(ctx context.Context, r *http.Request, category, op, actor, target string, err error) {
	e := fromRequest(r, category, op, actor)
	e.Target = target
	e.Success = err == nil
	if err != nil {
		e.FailureReason = err.Error()
	}
	l.Log(ctx, e)
}

// DuplicateDropped logs a resubmitted form that was not dispatched again.
func (l *Logger) DuplicateDropped(ctx context.Context, r *http.Request, category, op, actor, target string) {
	e := fromRequest(r, category, audit.EventDuplicateDropped, actor)
	e.Target = target
	e.Success = true
	e.Details = map[string]string{"operation": op}
	l.Log(ctx, e)
}
