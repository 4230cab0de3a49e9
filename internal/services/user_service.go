package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/BradenHooton/supportportal/internal/models"
	"github.com/BradenHooton/supportportal/pkg/auth"
	pkglogger "github.com/BradenHooton/supportportal/pkg/logger"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	UserStore
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, limit, offset int) ([]*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	Update(ctx context.Context, user *models.User) (*models.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	DeleteByUsername(ctx context.Context, username string) error
}

// TrackerEvictor clears an identity's failure history
type TrackerEvictor interface {
	Evict(identity string)
}

// Mailer delivers generated passwords
type Mailer interface {
	SendNewPassword(ctx context.Context, email, firstName, password string) error
}

// RegisterInput is a self-service sign-up
type RegisterInput struct {
	FirstName string
	LastName  string
	Username  string
	Email     string
	Password  string
}

// UserInput is an administrative create or update
type UserInput struct {
	FirstName string
	LastName  string
	Username  string
	Email     string
	Role      string
	Active    bool
	NotLocked bool
}

// UserService handles user business logic
type UserService struct {
	repo        UserRepository
	policy      LockoutEvaluator
	tracker     TrackerEvictor
	mailer      Mailer
	baseURL     string
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
	now         func() time.Time
}

// NewUserService creates a new UserService
func NewUserService(repo UserRepository, policy LockoutEvaluator, tracker TrackerEvictor, mailer Mailer, baseURL string, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *UserService {
	return &UserService{
		repo:        repo,
		policy:      policy,
		tracker:     tracker,
		mailer:      mailer,
		baseURL:     strings.TrimRight(baseURL, "/"),
		logger:      logger,
		auditLogger: auditLogger,
		now:         time.Now,
	}
}

// Register creates an active ROLE_USER account with the caller's password
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	email := NormalizeIdentity(in.Email)

	if err := auth.ValidatePassword(in.Password); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrBadRequest, err)
	}
	if err := s.checkAvailable(ctx, "", username, email); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	user, err := s.newUser(in.FirstName, in.LastName, username, email, models.RoleUser, true, false)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = hash

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, s.repoError("failed to create user", err)
	}

	s.logger.Info("user registered", slog.String("user_id", created.UserID))
	s.audit("user_registered", created.UserID, "", nil)
	return created, nil
}

// AddUser creates an account on behalf of an administrator. The password is
// generated and mailed to the new user.
func (s *UserService) AddUser(ctx context.Context, in UserInput, actor string) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	email := NormalizeIdentity(in.Email)

	role, err := models.ParseRole(in.Role)
	if err != nil {
		return nil, err
	}
	if err := s.checkAvailable(ctx, "", username, email); err != nil {
		return nil, err
	}

	password, err := auth.GeneratePassword()
	if err != nil {
		s.logger.Error("failed to generate password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	user, err := s.newUser(in.FirstName, in.LastName, username, email, role, in.Active, !in.NotLocked)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = hash

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, s.repoError("failed to create user", err)
	}

	if err := s.mailer.SendNewPassword(ctx, created.Email, created.FirstName, password); err != nil {
		s.logger.Error("failed to send new account password", slog.String("user_id", created.UserID), slog.Any("error", err))
	}

	s.logger.Info("user created", slog.String("user_id", created.UserID), slog.String("role", role))
	s.audit("user_created", created.UserID, actor, map[string]string{"role": role})
	return created, nil
}

// UpdateUser applies an administrative update to the account currently named
// currentUsername. Clearing the lock flag also clears the login failure
// history, otherwise the next attempt would re-lock the account at once.
func (s *UserService) UpdateUser(ctx context.Context, currentUsername string, in UserInput, actor string) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	email := NormalizeIdentity(in.Email)

	role, err := models.ParseRole(in.Role)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByUsername(ctx, strings.TrimSpace(currentUsername))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, s.repoError("failed to get user", err)
	}
	if err := s.checkAvailable(ctx, existing.ID, username, email); err != nil {
		return nil, err
	}

	authorities, err := models.AuthoritiesForRole(role)
	if err != nil {
		return nil, err
	}

	previousKey := NormalizeIdentity(existing.Username)
	wasLocked := existing.Locked

	existing.FirstName = strings.TrimSpace(in.FirstName)
	existing.LastName = strings.TrimSpace(in.LastName)
	existing.Username = username
	existing.Email = email
	existing.Role = role
	existing.Authorities = authorities
	existing.Active = in.Active
	existing.Locked = !in.NotLocked

	updated, err := s.repo.Update(ctx, existing)
	if err != nil {
		return nil, s.repoError("failed to update user", err)
	}

	if wasLocked && !updated.Locked {
		s.clearFailures(previousKey, NormalizeIdentity(updated.Username))
		s.logger.Info("account unlocked", slog.String("user_id", updated.UserID))
		s.audit("account_unlocked", updated.UserID, actor, nil)
	}

	s.logger.Info("user updated", slog.String("user_id", updated.UserID))
	s.audit("user_updated", updated.UserID, actor, map[string]string{"role": role})
	return updated, nil
}

// clearFailures evicts tracker state for an account whose lock flag was just
// cleared
func (s *UserService) clearFailures(keys ...string) {
	for _, key := range keys {
		if decision := s.policy.Evaluate(key, true); decision.EvictTracker {
			s.tracker.Evict(key)
		}
	}
}

// DeleteUser removes the account named username
func (s *UserService) DeleteUser(ctx context.Context, username, actor string) error {
	username = strings.TrimSpace(username)

	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		return s.repoError("failed to get user", err)
	}

	if err := s.repo.DeleteByUsername(ctx, user.Username); err != nil {
		return s.repoError("failed to delete user", err)
	}
	s.tracker.Evict(NormalizeIdentity(user.Username))

	s.logger.Info("user deleted", slog.String("user_id", user.UserID))
	s.audit("user_deleted", user.UserID, actor, nil)
	return nil
}

// ListUsers retrieves a page of users
func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error) {
	users, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, s.repoError("failed to list users", err)
	}
	return users, nil
}

// FindUser retrieves a user by username
func (s *UserService) FindUser(ctx context.Context, username string) (*models.User, error) {
	user, err := s.repo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, s.repoError("failed to get user", err)
	}
	return user, nil
}

// ResetPassword replaces the password of the account registered to email with
// a generated one and mails it
func (s *UserService) ResetPassword(ctx context.Context, email string) error {
	user, err := s.repo.GetByEmail(ctx, NormalizeIdentity(email))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		return s.repoError("failed to get user", err)
	}

	password, err := auth.GeneratePassword()
	if err != nil {
		s.logger.Error("failed to generate password", slog.Any("error", err))
		return models.ErrInternalServer
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.repo.UpdatePassword(ctx, user.ID, hash); err != nil {
		return s.repoError("failed to update password", err)
	}

	if err := s.mailer.SendNewPassword(ctx, user.Email, user.FirstName, password); err != nil {
		s.logger.Error("failed to send reset password", slog.String("user_id", user.UserID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("password reset", slog.String("user_id", user.UserID))
	s.audit("password_reset", user.UserID, "", nil)
	return nil
}

// checkAvailable enforces unique usernames and emails. currentID excludes the
// account being updated; empty means a new account.
func (s *UserService) checkAvailable(ctx context.Context, currentID, username, email string) error {
	if username == "" || email == "" {
		return fmt.Errorf("%w: username and email are required", models.ErrBadRequest)
	}

	byUsername, err := s.repo.GetByUsername(ctx, username)
	switch {
	case err == nil && byUsername.ID != currentID:
		return models.ErrUsernameExists
	case err != nil && !errors.Is(err, models.ErrNotFound):
		return s.repoError("failed to check username", err)
	}

	byEmail, err := s.repo.GetByEmail(ctx, email)
	switch {
	case err == nil && byEmail.ID != currentID:
		return models.ErrEmailExists
	case err != nil && !errors.Is(err, models.ErrNotFound):
		return s.repoError("failed to check email", err)
	}

	return nil
}

func (s *UserService) newUser(firstName, lastName, username, email, role string, active, locked bool) (*models.User, error) {
	userID, err := auth.GenerateUserID()
	if err != nil {
		s.logger.Error("failed to generate user id", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	authorities, err := models.AuthoritiesForRole(role)
	if err != nil {
		return nil, err
	}

	return &models.User{
		UserID:          userID,
		FirstName:       strings.TrimSpace(firstName),
		LastName:        strings.TrimSpace(lastName),
		Username:        username,
		Email:           email,
		ProfileImageURL: s.profileImageURL(username),
		Role:            role,
		Authorities:     authorities,
		Active:          active,
		Locked:          locked,
		JoinedAt:        s.now(),
	}, nil
}

func (s *UserService) profileImageURL(username string) string {
	return s.baseURL + "/user/image/profile/" + username
}

// repoError keeps conflict and availability errors visible to the transport
// layer and collapses everything else to ErrInternalServer
func (s *UserService) repoError(msg string, err error) error {
	switch {
	case errors.Is(err, models.ErrUsernameExists), errors.Is(err, models.ErrEmailExists):
		return err
	case errors.Is(err, models.ErrStoreUnavailable):
		s.logger.Error(msg, slog.Any("error", err))
		return err
	default:
		s.logger.Error(msg, slog.Any("error", err))
		return models.ErrInternalServer
	}
}

func (s *UserService) audit(eventType, userID, actor string, metadata map[string]string) {
	if s.auditLogger == nil {
		return
	}
	s.auditLogger.LogAccountAction(eventType, userID, actor, metadata)
}
