package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims is the signed body of a bearer token. Subject, issued-at and
// expiry live in the registered claims.
type TokenClaims struct {
	Authorities []string `json:"authorities"`
	jwt.RegisteredClaims
}

// BearerToken is a freshly issued token together with its decoded contents.
type BearerToken struct {
	Value       string
	Subject     string
	IssuedAt    time.Time
	ExpiresAt   time.Time
	Authorities []string
}

// Principal is what a verified token tells downstream authorization checks.
type Principal struct {
	Subject     string
	Authorities []string
}

// HasAuthority reports whether the principal was granted a.
func (p *Principal) HasAuthority(a string) bool {
	for _, have := range p.Authorities {
		if have == a {
			return true
		}
	}
	return false
}
