package models

import (
	"fmt"
	"strings"
)

// Authority strings carried in bearer tokens
const (
	AuthorityUserRead   = "user:read"
	AuthorityUserCreate = "user:create"
	AuthorityUserUpdate = "user:update"
	AuthorityUserDelete = "user:delete"
)

// Role names as stored on the user record
const (
	RoleUser       = "ROLE_USER"
	RoleHR         = "ROLE_HR"
	RoleManager    = "ROLE_MANAGER"
	RoleAdmin      = "ROLE_ADMIN"
	RoleSuperAdmin = "ROLE_SUPER_ADMIN"
)

var roleOrder = []string{RoleUser, RoleHR, RoleManager, RoleAdmin, RoleSuperAdmin}

var roleAuthorities = map[string][]string{
	RoleUser:       {AuthorityUserRead},
	RoleHR:         {AuthorityUserRead, AuthorityUserUpdate},
	RoleManager:    {AuthorityUserRead, AuthorityUserUpdate},
	RoleAdmin:      {AuthorityUserRead, AuthorityUserCreate, AuthorityUserUpdate},
	RoleSuperAdmin: {AuthorityUserRead, AuthorityUserCreate, AuthorityUserUpdate, AuthorityUserDelete},
}

// Roles lists every role from least to most privileged
func Roles() []string {
	out := make([]string, len(roleOrder))
	copy(out, roleOrder)
	return out
}

// ParseRole normalizes a role name. Matching is case-insensitive and the ROLE_
// prefix is optional.
func ParseRole(role string) (string, error) {
	name := strings.ToUpper(strings.TrimSpace(role))
	if name != "" && !strings.HasPrefix(name, "ROLE_") {
		name = "ROLE_" + name
	}
	if _, ok := roleAuthorities[name]; !ok {
		return "", fmt.Errorf("%w: unknown role %q", ErrBadRequest, role)
	}
	return name, nil
}

// AuthoritiesForRole returns a copy of the authorities granted to role.
func AuthoritiesForRole(role string) ([]string, error) {
	name, err := ParseRole(role)
	if err != nil {
		return nil, err
	}
	granted := roleAuthorities[name]
	out := make([]string, len(granted))
	copy(out, granted)
	return out, nil
}
