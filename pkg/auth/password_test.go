package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	BcryptCost = bcrypt.MinCost
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name       string
		password   string
		shouldFail bool
	}{
		{"valid strong password", "SecurePass123", false},
		{"valid with symbols", "MyP@ssw0rd!", false},
		{"too short", "Pass1", true},
		{"missing uppercase", "securepass123", true},
		{"missing lowercase", "SECUREPASS123", true},
		{"missing digit", "SecurePassXyz", true},
		{"common password rejected", "Password123", true},
		{"too long", "Aa1" + strings.Repeat("x", 80), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.shouldFail {
				require.Error(t, err)
				assert.Equal(t, "invalid password", err.Error())
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestHashAndComparePassword(t *testing.T) {
	hash, err := HashPassword("SecurePass123")
	require.NoError(t, err)
	assert.NotEqual(t, "SecurePass123", hash)

	assert.NoError(t, ComparePassword(hash, "SecurePass123"))
	assert.Error(t, ComparePassword(hash, "WrongPass123"))

	_, err = HashPassword("")
	assert.Error(t, err)
}

func TestBcryptVerifier(t *testing.T) {
	hash, err := HashPassword("SecurePass123")
	require.NoError(t, err)

	v := NewBcryptVerifier()
	assert.True(t, v.Verify("SecurePass123", hash))
	assert.False(t, v.Verify("securepass123", hash))
	assert.False(t, v.Verify("SecurePass123", "not-a-bcrypt-hash"))
}

func TestBcryptVerifier_EmptyHashAlwaysFails(t *testing.T) {
	v := NewBcryptVerifier()

	assert.False(t, v.Verify("", ""))
	assert.False(t, v.Verify("unknown-account-placeholder", ""))
	assert.NotEmpty(t, v.dummyHash)
}

func TestGeneratePassword(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		pwd, err := GeneratePassword()
		require.NoError(t, err)
		assert.Len(t, pwd, GeneratedPasswordLen)
		for _, r := range pwd {
			assert.True(t, strings.ContainsRune(alphanumeric, r), "unexpected rune %q", r)
		}
		seen[pwd] = true
	}
	assert.Greater(t, len(seen), 45)
}

func TestGenerateUserID(t *testing.T) {
	id, err := GenerateUserID()
	require.NoError(t, err)
	assert.Len(t, id, UserIDLen)
	for _, r := range id {
		assert.True(t, r >= '0' && r <= '9')
	}
}
