package auth

import (
	"time"

	pkglogger "github.com/BradenHooton/supportportal/pkg/logger"
)

// FailureRecorder is the write side of the attempt tracker.
type FailureRecorder interface {
	RecordFailure(identity string)
}

// AuthenticationFailure is raised once credential verification has definitively
// failed for Identity.
type AuthenticationFailure struct {
	Identity  string
	IPAddress string
	UserAgent string
	At        time.Time
}

// AuthenticationFailureListener routes failed-login signals into the tracker.
type AuthenticationFailureListener struct {
	recorder    FailureRecorder
	auditLogger *pkglogger.AuditLogger
	env         string
}

// NewAuthenticationFailureListener creates a listener. auditLogger may be nil.
func NewAuthenticationFailureListener(recorder FailureRecorder, auditLogger *pkglogger.AuditLogger, env string) *AuthenticationFailureListener {
	return &AuthenticationFailureListener{
		recorder:    recorder,
		auditLogger: auditLogger,
		env:         env,
	}
}

// OnAuthenticationFailure records the failure. Events without an identity are
// dropped.
func (l *AuthenticationFailureListener) OnAuthenticationFailure(event AuthenticationFailure) {
	if event.Identity == "" {
		return
	}

	l.recorder.RecordFailure(event.Identity)

	if l.auditLogger == nil {
		return
	}
	l.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType:     "login_failed",
		IPAddress:     event.IPAddress,
		UserAgent:     event.UserAgent,
		FailureReason: "invalid_credentials",
		Success:       false,
		Metadata: map[string]string{
			"identity": pkglogger.RedactedIdentity(event.Identity, l.env),
		},
	})
}

var (
	_ FailureRecorder = (*AttemptTracker)(nil)
	_ FailureCounter  = (*AttemptTracker)(nil)
)
