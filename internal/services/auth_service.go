package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/BradenHooton/supportportal/internal/auth"
	"github.com/BradenHooton/supportportal/internal/models"
	pkglogger "github.com/BradenHooton/supportportal/pkg/logger"
)

// UserStore is the slice of the user repository the login flow needs
type UserStore interface {
	// FindByIdentity looks a user up by username or email, case-insensitively.
	FindByIdentity(ctx context.Context, identity string) (*models.User, error)
	SetLocked(ctx context.Context, id string, locked bool) error
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
}

// CredentialVerifier compares a plaintext password with a stored hash. An
// empty hash must still cost a full comparison and return false.
type CredentialVerifier interface {
	Verify(plaintext, credentialHash string) bool
}

// FailureListener receives the failed-login signal
type FailureListener interface {
	OnAuthenticationFailure(event auth.AuthenticationFailure)
}

// LockoutEvaluator decides whether an identity is locked
type LockoutEvaluator interface {
	Evaluate(identity string, currentlyLocked bool) models.LockoutDecision
	MaxAttempts() int
}

// TokenService issues and verifies bearer tokens
type TokenService interface {
	Issue(subject string, authorities []string, ttl time.Duration) (*models.BearerToken, error)
	Verify(tokenString string) (*models.Principal, error)
}

// ClientInfo describes the caller of a login request
type ClientInfo struct {
	IPAddress string
	UserAgent string
}

// AuthResult is a successful login
type AuthResult struct {
	User  *models.User
	Token *models.BearerToken
}

// AuthServiceConfig wires the login flow's collaborators
type AuthServiceConfig struct {
	Store       UserStore
	Verifier    CredentialVerifier
	Failures    FailureListener
	Policy      LockoutEvaluator
	Tracker     TrackerEvictor // optional
	Tokens      TokenService
	Timing      *auth.TimingDelay // optional
	TokenTTL    time.Duration
	Logger      *slog.Logger
	AuditLogger *pkglogger.AuditLogger
	Env         string
}

// AuthService runs the login state machine and validates presented tokens
type AuthService struct {
	store       UserStore
	verifier    CredentialVerifier
	failures    FailureListener
	policy      LockoutEvaluator
	tracker     TrackerEvictor
	tokens      TokenService
	timing      *auth.TimingDelay
	tokenTTL    time.Duration
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
	env         string
	now         func() time.Time
}

// NewAuthService creates a new AuthService
func NewAuthService(cfg AuthServiceConfig) *AuthService {
	return &AuthService{
		store:       cfg.Store,
		verifier:    cfg.Verifier,
		failures:    cfg.Failures,
		policy:      cfg.Policy,
		tracker:     cfg.Tracker,
		tokens:      cfg.Tokens,
		timing:      cfg.Timing,
		tokenTTL:    cfg.TokenTTL,
		logger:      cfg.Logger,
		auditLogger: cfg.AuditLogger,
		env:         cfg.Env,
		now:         time.Now,
	}
}

// NormalizeIdentity is the canonical form used for lookups and tracker keys
func NormalizeIdentity(identity string) string {
	return strings.ToLower(strings.TrimSpace(identity))
}

// Authenticate verifies identity (username or email) and password and returns
// a bearer token.
//
// Errors: ErrInvalidCredentials, ErrAccountLocked, ErrAccountDisabled, or a
// wrapped ErrStoreUnavailable when the user store cannot answer. A store
// failure never counts as a failed attempt.
func (s *AuthService) Authenticate(ctx context.Context, identity, password string, client ClientInfo) (*AuthResult, error) {
	start := s.now()

	identity = NormalizeIdentity(identity)
	if identity == "" || password == "" {
		s.logger.Info("login rejected: missing identity or password")
		return nil, s.reject(ctx, start, models.ErrInvalidCredentials)
	}

	user, err := s.store.FindByIdentity(ctx, identity)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			s.logger.Error("user store lookup failed", slog.Any("error", err))
			return nil, storeUnavailable(err)
		}
		user = nil
	}

	key := identity
	hash := ""
	if user != nil {
		key = NormalizeIdentity(user.Username)
		hash = user.PasswordHash
	}

	if matched := s.verifier.Verify(password, hash); !matched || user == nil {
		return nil, s.onMismatch(ctx, start, key, user, client)
	}

	decision := s.policy.Evaluate(key, user.Locked)
	if decision.Locked {
		if user.Locked {
			s.applyEviction(key, decision)
		} else {
			s.lockAccount(ctx, key, user, client)
		}
		s.auditFailure(user.UserID, "account_locked", client)
		return nil, s.reject(ctx, start, models.ErrAccountLocked)
	}

	if !user.Active {
		s.logger.Info("login blocked: account disabled", slog.String("user_id", user.UserID))
		s.auditFailure(user.UserID, "account_disabled", client)
		return nil, s.reject(ctx, start, models.ErrAccountDisabled)
	}

	token, err := s.tokens.Issue(user.Username, user.Authorities, s.tokenTTL)
	if err != nil {
		s.logger.Error("failed to issue token", slog.String("user_id", user.UserID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	loginAt := s.now()
	if err := s.store.TouchLastLogin(ctx, user.ID, loginAt); err != nil {
		s.logger.Warn("failed to record last login", slog.String("user_id", user.UserID), slog.Any("error", err))
	}
	user.LastLoginDisplayAt = user.LastLoginAt
	user.LastLoginAt = &loginAt

	s.logger.Info("user logged in", slog.String("user_id", user.UserID))
	if s.auditLogger != nil {
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType: "login_success",
			UserID:    user.UserID,
			IPAddress: client.IPAddress,
			UserAgent: client.UserAgent,
			Success:   true,
		})
	}

	s.timing.WaitFrom(ctx, start, true)
	return &AuthResult{User: user, Token: token}, nil
}

// onMismatch handles a definitive credential mismatch. Unknown identities are
// counted like known ones so the answer never depends on account existence.
func (s *AuthService) onMismatch(ctx context.Context, start time.Time, key string, user *models.User, client ClientInfo) error {
	s.failures.OnAuthenticationFailure(auth.AuthenticationFailure{
		Identity:  key,
		IPAddress: client.IPAddress,
		UserAgent: client.UserAgent,
		At:        s.now(),
	})

	// A flagged account answers the same whether or not the password matched
	if user != nil && user.Locked {
		s.applyEviction(key, s.policy.Evaluate(key, true))
		return s.reject(ctx, start, models.ErrAccountLocked)
	}

	decision := s.policy.Evaluate(key, false)
	if !decision.Locked {
		s.logger.Info("login failed: invalid credentials", slog.Int("remaining_attempts", decision.RemainingAttempts))
		return s.reject(ctx, start, models.ErrInvalidCredentials)
	}

	if user != nil {
		s.lockAccount(ctx, key, user, client)
	}
	return s.reject(ctx, start, models.ErrAccountLocked)
}

// lockAccount persists the lock flag. A failed write is logged; the attempt is
// rejected either way and the next one re-evaluates against the tracker.
//
// Once the flag is stored it is the only lock that counts, so the tracker entry
// is dropped. Clearing the flag later, by any path, starts from zero failures.
func (s *AuthService) lockAccount(ctx context.Context, key string, user *models.User, client ClientInfo) {
	if err := s.store.SetLocked(ctx, user.ID, true); err != nil {
		s.logger.Error("failed to persist account lock", slog.String("user_id", user.UserID), slog.Any("error", err))
		return
	}
	user.Locked = true
	s.applyEviction(key, s.policy.Evaluate(key, true))

	s.logger.Warn("account locked after repeated failures", slog.String("user_id", user.UserID))
	if s.auditLogger != nil {
		s.auditLogger.LogAccountLocked(user.UserID, client.IPAddress, s.policy.MaxAttempts())
	}
}

// applyEviction clears the tracker entry when the decision asks for it
func (s *AuthService) applyEviction(key string, decision models.LockoutDecision) {
	if decision.EvictTracker && s.tracker != nil {
		s.tracker.Evict(key)
	}
}

func (s *AuthService) auditFailure(userID, reason string, client ClientInfo) {
	if s.auditLogger == nil {
		return
	}
	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType:     "login_failed",
		UserID:        userID,
		IPAddress:     client.IPAddress,
		UserAgent:     client.UserAgent,
		FailureReason: reason,
	})
}

func (s *AuthService) reject(ctx context.Context, start time.Time, err error) error {
	s.timing.WaitFrom(ctx, start, false)
	return err
}

// ValidateToken verifies a presented bearer token
func (s *AuthService) ValidateToken(tokenString string) (*models.Principal, error) {
	principal, err := s.tokens.Verify(tokenString)
	if err != nil {
		s.logger.Debug("token rejected", slog.Any("error", err))
		if s.auditLogger != nil {
			s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
				EventType:     "token_rejected",
				FailureReason: tokenFailureReason(err),
			})
		}
		return nil, err
	}
	return principal, nil
}

func tokenFailureReason(err error) string {
	switch {
	case errors.Is(err, models.ErrTokenExpired):
		return "expired"
	case errors.Is(err, models.ErrTokenInvalidSignature):
		return "invalid_signature"
	default:
		return "malformed"
	}
}

func storeUnavailable(err error) error {
	if errors.Is(err, models.ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", models.ErrStoreUnavailable, err)
}
