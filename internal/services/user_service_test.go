package services

import (
	"context"
	"errors"
	"testing"

	"github.com/BradenHooton/supportportal/internal/auth"
	"github.com/BradenHooton/supportportal/internal/models"
	pkgauth "github.com/BradenHooton/supportportal/pkg/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUserService(repo UserRepository) (*UserService, *auth.AttemptTracker, *MockMailer) {
	tracker := auth.NewAttemptTracker(0)
	mailer := &MockMailer{}
	svc := NewUserService(repo, auth.NewLockoutPolicy(tracker, 5), tracker, mailer, "http://localhost:8081/", discardLogger(), nil)
	return svc, tracker, mailer
}

func TestUserService_Register_Success(t *testing.T) {
	repo := NewMemoryUserRepository()
	svc, _, _ := newTestUserService(repo)

	user, err := svc.Register(context.Background(), RegisterInput{
		FirstName: " Alice ",
		LastName:  "Smith",
		Username:  "alice",
		Email:     "Alice@Example.com",
		Password:  testPassword,
	})

	require.NoError(t, err)
	assert.Equal(t, "Alice", user.FirstName)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.Equal(t, []string{models.AuthorityUserRead}, user.Authorities)
	assert.True(t, user.Active)
	assert.False(t, user.Locked)
	assert.Len(t, user.UserID, pkgauth.UserIDLen)
	assert.Equal(t, "http://localhost:8081/user/image/profile/alice", user.ProfileImageURL)
	assert.NoError(t, pkgauth.ComparePassword(user.PasswordHash, testPassword))
}

func TestUserService_Register_DuplicateUsername(t *testing.T) {
	repo := NewMemoryUserRepository(NewTestUser("u1", "alice", "alice@example.com"))
	svc, _, _ := newTestUserService(repo)

	_, err := svc.Register(context.Background(), RegisterInput{
		Username: "ALICE",
		Email:    "other@example.com",
		Password: testPassword,
	})

	assert.ErrorIs(t, err, models.ErrUsernameExists)
}

func TestUserService_Register_DuplicateEmail(t *testing.T) {
	repo := NewMemoryUserRepository(NewTestUser("u1", "alice", "alice@example.com"))
	svc, _, _ := newTestUserService(repo)

	_, err := svc.Register(context.Background(), RegisterInput{
		Username: "alice2",
		Email:    "alice@example.com",
		Password: testPassword,
	})

	assert.ErrorIs(t, err, models.ErrEmailExists)
}

func TestUserService_Register_WeakPassword(t *testing.T) {
	svc, _, _ := newTestUserService(NewMemoryUserRepository())

	_, err := svc.Register(context.Background(), RegisterInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "short",
	})

	assert.ErrorIs(t, err, models.ErrBadRequest)
}

func TestUserService_AddUser_MailsGeneratedPassword(t *testing.T) {
	repo := NewMemoryUserRepository()
	svc, _, mailer := newTestUserService(repo)

	user, err := svc.AddUser(context.Background(), UserInput{
		FirstName: "Hank",
		LastName:  "Rogers",
		Username:  "hank",
		Email:     "hank@example.com",
		Role:      "hr",
		Active:    true,
		NotLocked: true,
	}, "root")

	require.NoError(t, err)
	assert.Equal(t, models.RoleHR, user.Role)
	assert.Equal(t, []string{models.AuthorityUserRead, models.AuthorityUserUpdate}, user.Authorities)
	assert.False(t, user.Locked)

	password := mailer.Sent["hank@example.com"]
	assert.Len(t, password, pkgauth.GeneratedPasswordLen)
	assert.NoError(t, pkgauth.ComparePassword(user.PasswordHash, password))
}

func TestUserService_AddUser_CreatesLockedAccount(t *testing.T) {
	svc, _, _ := newTestUserService(NewMemoryUserRepository())

	user, err := svc.AddUser(context.Background(), UserInput{
		Username: "ivan",
		Email:    "ivan@example.com",
		Role:     models.RoleUser,
		Active:   true,
	}, "root")

	require.NoError(t, err)
	assert.True(t, user.Locked)
}

func TestUserService_AddUser_UnknownRole(t *testing.T) {
	svc, _, _ := newTestUserService(NewMemoryUserRepository())

	_, err := svc.AddUser(context.Background(), UserInput{Username: "x", Email: "x@example.com", Role: "ROLE_GOD"}, "root")

	assert.ErrorIs(t, err, models.ErrBadRequest)
}

func TestUserService_UpdateUser_NotFound(t *testing.T) {
	svc, _, _ := newTestUserService(NewMemoryUserRepository())

	_, err := svc.UpdateUser(context.Background(), "ghost", UserInput{Username: "ghost", Email: "g@example.com", Role: models.RoleUser}, "root")

	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestUserService_UpdateUser_EmailTakenByOtherUser(t *testing.T) {
	repo := NewMemoryUserRepository(
		NewTestUser("u1", "alice", "alice@example.com"),
		NewTestUser("u2", "bob", "bob@example.com"),
	)
	svc, _, _ := newTestUserService(repo)

	_, err := svc.UpdateUser(context.Background(), "alice", UserInput{
		Username:  "alice",
		Email:     "bob@example.com",
		Role:      models.RoleUser,
		Active:    true,
		NotLocked: true,
	}, "root")

	assert.ErrorIs(t, err, models.ErrEmailExists)
}

func TestUserService_UpdateUser_RoleChangeUpdatesAuthorities(t *testing.T) {
	repo := NewMemoryUserRepository(NewTestUser("u1", "alice", "alice@example.com"))
	svc, _, _ := newTestUserService(repo)

	updated, err := svc.UpdateUser(context.Background(), "alice", UserInput{
		FirstName: "Alice",
		Username:  "alice",
		Email:     "alice@example.com",
		Role:      "super_admin",
		Active:    true,
		NotLocked: true,
	}, "root")

	require.NoError(t, err)
	assert.Equal(t, models.RoleSuperAdmin, updated.Role)
	assert.Contains(t, updated.Authorities, models.AuthorityUserDelete)
	assert.Equal(t, models.RoleSuperAdmin, repo.Get("u1").Role)
}

func TestUserService_UpdateUser_UnlockEvictsTracker(t *testing.T) {
	locked := NewTestUser("u1", "alice", "alice@example.com")
	locked.Locked = true
	repo := NewMemoryUserRepository(locked)
	svc, tracker, _ := newTestUserService(repo)
	for i := 0; i < 5; i++ {
		tracker.RecordFailure("alice")
	}

	_, err := svc.UpdateUser(context.Background(), "alice", UserInput{
		Username:  "alice",
		Email:     "alice@example.com",
		Role:      models.RoleUser,
		Active:    true,
		NotLocked: true,
	}, "root")

	require.NoError(t, err)
	assert.False(t, repo.Get("u1").Locked)
	assert.Equal(t, 0, tracker.FailureCount("alice"))
}

func TestUserService_UpdateUser_KeepingLockKeepsTracker(t *testing.T) {
	locked := NewTestUser("u1", "alice", "alice@example.com")
	locked.Locked = true
	repo := NewMemoryUserRepository(locked)
	svc, tracker, _ := newTestUserService(repo)
	tracker.RecordFailure("alice")

	_, err := svc.UpdateUser(context.Background(), "alice", UserInput{
		Username: "alice",
		Email:    "alice@example.com",
		Role:     models.RoleUser,
		Active:   true,
	}, "root")

	require.NoError(t, err)
	assert.True(t, repo.Get("u1").Locked)
	assert.Equal(t, 1, tracker.FailureCount("alice"))
}

func TestUserService_DeleteUser(t *testing.T) {
	repo := NewMemoryUserRepository(NewTestUser("u1", "alice", "alice@example.com"))
	svc, tracker, _ := newTestUserService(repo)
	tracker.RecordFailure("alice")

	require.NoError(t, svc.DeleteUser(context.Background(), "alice", "root"))

	assert.Nil(t, repo.Get("u1"))
	assert.Equal(t, 0, tracker.FailureCount("alice"))
	assert.ErrorIs(t, svc.DeleteUser(context.Background(), "alice", "root"), models.ErrNotFound)
}

func TestUserService_FindUser(t *testing.T) {
	repo := NewMemoryUserRepository(NewTestUser("u1", "alice", "alice@example.com"))
	svc, _, _ := newTestUserService(repo)

	user, err := svc.FindUser(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)

	_, err = svc.FindUser(context.Background(), "nobody")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestUserService_FindUser_StoreUnavailable(t *testing.T) {
	repo := &MockUserRepository{
		GetByUsernameFunc: func(ctx context.Context, username string) (*models.User, error) {
			return nil, models.ErrStoreUnavailable
		},
	}
	svc, _, _ := newTestUserService(repo)

	_, err := svc.FindUser(context.Background(), "alice")

	assert.ErrorIs(t, err, models.ErrStoreUnavailable)
}

func TestUserService_ListUsers_DatabaseError(t *testing.T) {
	repo := &MockUserRepository{
		ListFunc: func(ctx context.Context, limit, offset int) ([]*models.User, error) {
			return nil, errors.New("syntax error")
		},
	}
	svc, _, _ := newTestUserService(repo)

	_, err := svc.ListUsers(context.Background(), 10, 0)

	assert.Equal(t, models.ErrInternalServer, err)
}

func TestUserService_ResetPassword(t *testing.T) {
	hash, err := pkgauth.HashPassword(testPassword)
	require.NoError(t, err)
	repo := NewMemoryUserRepository(NewTestUserWithPassword("u1", "alice", "alice@example.com", hash))
	svc, _, mailer := newTestUserService(repo)

	require.NoError(t, svc.ResetPassword(context.Background(), "ALICE@example.com"))

	sent := mailer.Sent["alice@example.com"]
	require.Len(t, sent, pkgauth.GeneratedPasswordLen)
	stored := repo.Get("u1")
	assert.NoError(t, pkgauth.ComparePassword(stored.PasswordHash, sent))
	assert.Error(t, pkgauth.ComparePassword(stored.PasswordHash, testPassword))
}

func TestUserService_ResetPassword_UnknownEmail(t *testing.T) {
	svc, _, mailer := newTestUserService(NewMemoryUserRepository())

	err := svc.ResetPassword(context.Background(), "nobody@example.com")

	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Empty(t, mailer.Sent)
}

func TestUserService_ResetPassword_MailFailure(t *testing.T) {
	repo := NewMemoryUserRepository(NewTestUser("u1", "alice", "alice@example.com"))
	svc, _, mailer := newTestUserService(repo)
	mailer.SendNewPasswordFunc = func(ctx context.Context, email, firstName, password string) error {
		return errors.New("ses throttled")
	}

	err := svc.ResetPassword(context.Background(), "alice@example.com")

	assert.Equal(t, models.ErrInternalServer, err)
}
