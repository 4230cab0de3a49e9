package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/BradenHooton/supportportal/internal/database"
	"github.com/BradenHooton/supportportal/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

const userColumns = `id, user_id, first_name, last_name, username, email, password_hash,
	profile_image_url, role, authorities, is_active, is_locked,
	last_login_at, last_login_display_at, joined_at, created_at, updated_at`

type UserRepository struct {
	pool         *pgxpool.Pool
	queryTimeout time.Duration
}

// NewUserRepository creates a repository. Every query is bounded by
// queryTimeout on top of the caller's context; zero means no extra bound.
func NewUserRepository(db *database.DB, queryTimeout time.Duration) *UserRepository {
	return &UserRepository{pool: db.Pool, queryTimeout: queryTimeout}
}

func (r *UserRepository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.queryTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.queryTimeout)
}

// rowScanner interface for scanning user rows (supports both single row and multiple rows)
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUserRow(scanner rowScanner) (*models.User, error) {
	var user models.User
	var authorities []string

	err := scanner.Scan(
		&user.ID, &user.UserID, &user.FirstName, &user.LastName, &user.Username, &user.Email, &user.PasswordHash,
		&user.ProfileImageURL, &user.Role, &authorities, &user.Active, &user.Locked,
		&user.LastLoginAt, &user.LastLoginDisplayAt, &user.JoinedAt, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	if authorities == nil {
		authorities = []string{}
	}
	user.Authorities = authorities

	return &user, nil
}

func scanUserRows(rows pgx.Rows) ([]*models.User, error) {
	defer rows.Close()

	users := make([]*models.User, 0)
	for rows.Next() {
		user, err := scanUserRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, database.MapPostgresError(err)
	}

	return users, nil
}

// FindByIdentity matches identity against username or email, case-insensitively
func (r *UserRepository) FindByIdentity(ctx context.Context, identity string) (*models.User, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `SELECT ` + userColumns + ` FROM users WHERE lower(username) = $1 OR lower(email) = $1 LIMIT 1`
	return scanUserRow(r.pool.QueryRow(ctx, query, strings.ToLower(strings.TrimSpace(identity))))
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `SELECT ` + userColumns + ` FROM users WHERE lower(username) = lower($1)`
	return scanUserRow(r.pool.QueryRow(ctx, query, username))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`
	return scanUserRow(r.pool.QueryRow(ctx, query, email))
}

func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `SELECT ` + userColumns + ` FROM users ORDER BY joined_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return scanUserRows(rows)
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	user.ID = uuid.New().String()
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.JoinedAt.IsZero() {
		user.JoinedAt = now
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}

	query := `
		INSERT INTO users (id, user_id, first_name, last_name, username, email, password_hash,
			profile_image_url, role, authorities, is_active, is_locked, joined_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING ` + userColumns

	return scanUserRow(r.pool.QueryRow(ctx, query,
		user.ID, user.UserID, user.FirstName, user.LastName, user.Username, user.Email, user.PasswordHash,
		user.ProfileImageURL, user.Role, pq.Array(user.Authorities), user.Active, user.Locked,
		user.JoinedAt, user.CreatedAt, user.UpdatedAt,
	))
}

// Update writes the profile, role and flags of user, keyed by user.ID
func (r *UserRepository) Update(ctx context.Context, user *models.User) (*models.User, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `
		UPDATE users SET first_name = $2, last_name = $3, username = $4, email = $5,
			profile_image_url = $6, role = $7, authorities = $8, is_active = $9, is_locked = $10,
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns

	return scanUserRow(r.pool.QueryRow(ctx, query,
		user.ID, user.FirstName, user.LastName, user.Username, user.Email,
		user.ProfileImageURL, user.Role, pq.Array(user.Authorities), user.Active, user.Locked,
	))
}

func (r *UserRepository) SetLocked(ctx context.Context, id string, locked bool) error {
	return r.execOne(ctx, `UPDATE users SET is_locked = $2, updated_at = NOW() WHERE id = $1`, id, locked)
}

// TouchLastLogin shifts the previous login time into the display column
func (r *UserRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	return r.execOne(ctx, `
		UPDATE users SET last_login_display_at = last_login_at, last_login_at = $2
		WHERE id = $1`, id, at)
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return r.execOne(ctx, `UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`, id, passwordHash)
}

func (r *UserRepository) DeleteByUsername(ctx context.Context, username string) error {
	return r.execOne(ctx, `DELETE FROM users WHERE lower(username) = lower($1)`, username)
}

func (r *UserRepository) execOne(ctx context.Context, query string, args ...interface{}) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
