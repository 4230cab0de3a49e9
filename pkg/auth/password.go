package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

const (
	MinPasswordLen = 8
	MaxPasswordLen = 72 // bcrypt ignores anything past 72 bytes

	GeneratedPasswordLen = 10
	UserIDLen            = 10
)

// BcryptCost is the work factor for new hashes. Tests lower it.
var BcryptCost = 12

const (
	alphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	digits       = "0123456789"
)

// PasswordValidationError holds validation error details (internal use only)
type PasswordValidationError struct {
	Errors []string
}

func (e *PasswordValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "password validation failed"
	}
	return "invalid password"
}

var commonPasswords = map[string]bool{
	"password":     true,
	"12345678":     true,
	"qwerty123":    true,
	"password123":  true,
	"password123!": true,
	"passw0rd":     true,
	"letmein123":   true,
	"welcome123":   true,
	"trustno1":     true,
	"support123":   true,
}

func HashPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashedBytes), nil
}

func ComparePassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// BcryptVerifier compares plaintext against stored bcrypt hashes. An empty
// hash is compared against a throwaway hash so unknown accounts cost the same
// as known ones, and always fails.
type BcryptVerifier struct {
	once      sync.Once
	dummyHash []byte
}

// NewBcryptVerifier creates a verifier
func NewBcryptVerifier() *BcryptVerifier {
	return &BcryptVerifier{}
}

// Verify reports whether plaintext matches credentialHash
func (v *BcryptVerifier) Verify(plaintext, credentialHash string) bool {
	if credentialHash == "" {
		_ = bcrypt.CompareHashAndPassword(v.dummy(), []byte(plaintext))
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(credentialHash), []byte(plaintext)) == nil
}

func (v *BcryptVerifier) dummy() []byte {
	v.once.Do(func() {
		hash, err := bcrypt.GenerateFromPassword([]byte("unknown-account-placeholder"), BcryptCost)
		if err != nil {
			// Only fails for an out-of-range cost
			hash, _ = bcrypt.GenerateFromPassword([]byte("unknown-account-placeholder"), bcrypt.DefaultCost)
		}
		v.dummyHash = hash
	})
	return v.dummyHash
}

// GeneratePassword returns a random alphanumeric password for accounts created
// or reset by an administrator
func GeneratePassword() (string, error) {
	return randomString(alphanumeric, GeneratedPasswordLen)
}

// GenerateUserID returns the 10-digit public account number
func GenerateUserID() (string, error) {
	return randomString(digits, UserIDLen)
}

func randomString(alphabet string, n int) (string, error) {
	max := big.NewInt(int64(len(alphabet)))
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate random string: %w", err)
		}
		b.WriteByte(alphabet[idx.Int64()])
	}
	return b.String(), nil
}

// ValidatePassword enforces the password policy for self-registration
func ValidatePassword(password string) error {
	errors := make([]string, 0)

	if len(password) < MinPasswordLen {
		errors = append(errors, fmt.Sprintf("must be at least %d characters", MinPasswordLen))
	}
	if len(password) > MaxPasswordLen {
		errors = append(errors, fmt.Sprintf("must be at most %d characters", MaxPasswordLen))
	}

	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}

	if !hasUpper {
		errors = append(errors, "must contain at least one uppercase letter")
	}
	if !hasLower {
		errors = append(errors, "must contain at least one lowercase letter")
	}
	if !hasDigit {
		errors = append(errors, "must contain at least one digit")
	}
	if commonPasswords[strings.ToLower(password)] {
		errors = append(errors, "is too common")
	}

	if len(errors) > 0 {
		return &PasswordValidationError{Errors: errors}
	}
	return nil
}
