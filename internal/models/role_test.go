package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"ROLE_USER", RoleUser},
		{"role_admin", RoleAdmin},
		{"super_admin", RoleSuperAdmin},
		{" hr ", RoleHR},
	}

	for _, tt := range tests {
		got, err := ParseRole(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestParseRole_Unknown(t *testing.T) {
	_, err := ParseRole("ROLE_OWNER")
	assert.True(t, errors.Is(err, ErrBadRequest))

	_, err = ParseRole("")
	assert.True(t, errors.Is(err, ErrBadRequest))
}

func TestAuthoritiesForRole(t *testing.T) {
	user, err := AuthoritiesForRole(RoleUser)
	require.NoError(t, err)
	assert.Equal(t, []string{AuthorityUserRead}, user)

	super, err := AuthoritiesForRole(RoleSuperAdmin)
	require.NoError(t, err)
	assert.Contains(t, super, AuthorityUserDelete)
	assert.Len(t, super, 4)

	admin, err := AuthoritiesForRole(RoleAdmin)
	require.NoError(t, err)
	assert.NotContains(t, admin, AuthorityUserDelete)
}

func TestAuthoritiesForRole_ReturnsCopy(t *testing.T) {
	first, err := AuthoritiesForRole(RoleUser)
	require.NoError(t, err)
	first[0] = "tampered"

	second, err := AuthoritiesForRole(RoleUser)
	require.NoError(t, err)
	assert.Equal(t, AuthorityUserRead, second[0])
}

func TestIsTokenError(t *testing.T) {
	assert.True(t, IsTokenError(ErrTokenExpired))
	assert.True(t, IsTokenError(ErrTokenMalformed))
	assert.True(t, IsTokenError(ErrTokenInvalidSignature))
	assert.False(t, IsTokenError(ErrInvalidCredentials))
}

func TestRoles_EveryRoleParses(t *testing.T) {
	roles := Roles()
	assert.Len(t, roles, 5)
	for _, r := range roles {
		parsed, err := ParseRole(r)
		require.NoError(t, err)
		assert.Equal(t, r, parsed)
	}
}
