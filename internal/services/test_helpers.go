package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/BradenHooton/supportportal/internal/models"
)

// MockUserRepository implements UserRepository for testing
type MockUserRepository struct {
	FindByIdentityFunc   func(ctx context.Context, identity string) (*models.User, error)
	SetLockedFunc        func(ctx context.Context, id string, locked bool) error
	TouchLastLoginFunc   func(ctx context.Context, id string, at time.Time) error
	GetByUsernameFunc    func(ctx context.Context, username string) (*models.User, error)
	GetByEmailFunc       func(ctx context.Context, email string) (*models.User, error)
	ListFunc             func(ctx context.Context, limit, offset int) ([]*models.User, error)
	CreateFunc           func(ctx context.Context, user *models.User) (*models.User, error)
	UpdateFunc           func(ctx context.Context, user *models.User) (*models.User, error)
	UpdatePasswordFunc   func(ctx context.Context, id, passwordHash string) error
	DeleteByUsernameFunc func(ctx context.Context, username string) error
}

func (m *MockUserRepository) FindByIdentity(ctx context.Context, identity string) (*models.User, error) {
	if m.FindByIdentityFunc != nil {
		return m.FindByIdentityFunc(ctx, identity)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) SetLocked(ctx context.Context, id string, locked bool) error {
	if m.SetLockedFunc != nil {
		return m.SetLockedFunc(ctx, id, locked)
	}
	return nil
}

func (m *MockUserRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	if m.TouchLastLoginFunc != nil {
		return m.TouchLastLoginFunc(ctx, id, at)
	}
	return nil
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	if m.GetByUsernameFunc != nil {
		return m.GetByUsernameFunc(ctx, username)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	return []*models.User{}, nil
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) (*models.User, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, user)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	if m.UpdatePasswordFunc != nil {
		return m.UpdatePasswordFunc(ctx, id, passwordHash)
	}
	return nil
}

func (m *MockUserRepository) DeleteByUsername(ctx context.Context, username string) error {
	if m.DeleteByUsernameFunc != nil {
		return m.DeleteByUsernameFunc(ctx, username)
	}
	return nil
}

// MockMailer implements Mailer and remembers what it sent
type MockMailer struct {
	SendNewPasswordFunc func(ctx context.Context, email, firstName, password string) error

	mu   sync.Mutex
	Sent map[string]string // email -> password
}

func (m *MockMailer) SendNewPassword(ctx context.Context, email, firstName, password string) error {
	m.mu.Lock()
	if m.Sent == nil {
		m.Sent = make(map[string]string)
	}
	m.Sent[email] = password
	m.mu.Unlock()

	if m.SendNewPasswordFunc != nil {
		return m.SendNewPasswordFunc(ctx, email, firstName, password)
	}
	return nil
}

// MemoryUserRepository is an in-memory UserRepository keyed by ID
type MemoryUserRepository struct {
	mu    sync.Mutex
	users map[string]*models.User
	seq   int

	// LookupErr, when set, is returned by FindByIdentity
	LookupErr error
}

// NewMemoryUserRepository creates an empty in-memory repository
func NewMemoryUserRepository(users ...*models.User) *MemoryUserRepository {
	r := &MemoryUserRepository{users: make(map[string]*models.User)}
	for _, u := range users {
		r.put(u)
	}
	return r
}

func (r *MemoryUserRepository) put(u *models.User) {
	if u.ID == "" {
		r.seq++
		u.ID = fmt.Sprintf("id-%d", r.seq)
	}
	cp := *u
	r.users[u.ID] = &cp
}

func (r *MemoryUserRepository) find(match func(*models.User) bool) (*models.User, error) {
	for _, u := range r.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, models.ErrNotFound
}

func (r *MemoryUserRepository) FindByIdentity(ctx context.Context, identity string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, models.ErrStoreUnavailable
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.LookupErr != nil {
		return nil, r.LookupErr
	}
	return r.find(func(u *models.User) bool {
		return strings.EqualFold(u.Username, identity) || strings.EqualFold(u.Email, identity)
	})
}

func (r *MemoryUserRepository) SetLocked(ctx context.Context, id string, locked bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return models.ErrNotFound
	}
	u.Locked = locked
	return nil
}

func (r *MemoryUserRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return models.ErrNotFound
	}
	u.LastLoginDisplayAt = u.LastLoginAt
	u.LastLoginAt = &at
	return nil
}

func (r *MemoryUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.find(func(u *models.User) bool { return strings.EqualFold(u.Username, username) })
}

func (r *MemoryUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.find(func(u *models.User) bool { return strings.EqualFold(u.Email, email) })
}

func (r *MemoryUserRepository) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.User, 0, len(r.users))
	for _, u := range r.users {
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

func (r *MemoryUserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.put(user)
	cp := *r.users[user.ID]
	return &cp, nil
}

func (r *MemoryUserRepository) Update(ctx context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return nil, models.ErrNotFound
	}
	cp := *user
	r.users[user.ID] = &cp
	out := cp
	return &out, nil
}

func (r *MemoryUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return models.ErrNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (r *MemoryUserRepository) DeleteByUsername(ctx context.Context, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, u := range r.users {
		if strings.EqualFold(u.Username, username) {
			delete(r.users, id)
			return nil
		}
	}
	return models.ErrNotFound
}

// Get returns a copy of the stored user with id
func (r *MemoryUserRepository) Get(id string) *models.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil
	}
	cp := *u
	return &cp
}

// NewTestUser creates an active, unlocked ROLE_USER account
func NewTestUser(id, username, email string) *models.User {
	now := time.Now()
	return &models.User{
		ID:          id,
		UserID:      "1234567890",
		FirstName:   "Test",
		LastName:    "User",
		Username:    username,
		Email:       email,
		Role:        models.RoleUser,
		Authorities: []string{models.AuthorityUserRead},
		Active:      true,
		JoinedAt:    now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// NewTestUserWithPassword creates a user with a password hash
func NewTestUserWithPassword(id, username, email, passwordHash string) *models.User {
	user := NewTestUser(id, username, email)
	user.PasswordHash = passwordHash
	return user
}
