package models

import (
	"time"
)

// User is the persisted portal account.
type User struct {
	ID                 string
	UserID             string // public 10-digit identifier
	FirstName          string
	LastName           string
	Username           string
	Email              string
	PasswordHash       string
	ProfileImageURL    string
	Role               string
	Authorities        []string
	Active             bool
	Locked             bool
	LastLoginAt        *time.Time
	LastLoginDisplayAt *time.Time
	JoinedAt           time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
