package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BradenHooton/supportportal/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	DefaultTokenIssuer   = "Support Portal"
	DefaultTokenAudience = "User Management Portal"

	// MinTokenTTL is the smallest lifetime a token can carry; JWT timestamps
	// have one-second precision.
	MinTokenTTL = time.Second
)

var signingMethod = jwt.SigningMethodHS512

// TokenIssuerConfig is fixed at startup. Changing the secret invalidates all
// outstanding tokens.
type TokenIssuerConfig struct {
	Secret    string
	Issuer    string
	Audience  string
	ClockSkew time.Duration // applied to exp/iat checks only
}

// TokenIssuer signs and verifies stateless bearer tokens
type TokenIssuer struct {
	secret    []byte
	issuer    string
	audience  string
	clockSkew time.Duration
	now       func() time.Time
}

// NewTokenIssuer creates a TokenIssuer. The secret is copied and never
// mutated afterwards.
func NewTokenIssuer(cfg TokenIssuerConfig) (*TokenIssuer, error) {
	if cfg.Secret == "" {
		return nil, errors.New("token signing secret is required")
	}
	if cfg.ClockSkew < 0 {
		return nil, errors.New("token clock skew cannot be negative")
	}
	if cfg.Issuer == "" {
		cfg.Issuer = DefaultTokenIssuer
	}
	if cfg.Audience == "" {
		cfg.Audience = DefaultTokenAudience
	}

	return &TokenIssuer{
		secret:    []byte(cfg.Secret),
		issuer:    cfg.Issuer,
		audience:  cfg.Audience,
		clockSkew: cfg.ClockSkew,
		now:       time.Now,
	}, nil
}

// setClock replaces the time source.
func (ti *TokenIssuer) setClock(now func() time.Time) {
	ti.now = now
}

// Issue mints a token for subject valid for ttl from now.
func (ti *TokenIssuer) Issue(subject string, authorities []string, ttl time.Duration) (*models.BearerToken, error) {
	if strings.TrimSpace(subject) == "" {
		return nil, errors.New("token subject is required")
	}
	if ttl < MinTokenTTL {
		return nil, fmt.Errorf("token ttl must be at least %s", MinTokenTTL)
	}

	granted := make([]string, len(authorities))
	copy(granted, authorities)

	issuedAt := jwt.NewNumericDate(ti.now())
	expiresAt := jwt.NewNumericDate(issuedAt.Add(ttl))

	claims := &models.TokenClaims{
		Authorities: granted,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   subject,
			Issuer:    ti.issuer,
			Audience:  jwt.ClaimStrings{ti.audience},
			IssuedAt:  issuedAt,
			ExpiresAt: expiresAt,
		},
	}

	value, err := jwt.NewWithClaims(signingMethod, claims).SignedString(ti.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &models.BearerToken{
		Value:       value,
		Subject:     subject,
		IssuedAt:    issuedAt.Time,
		ExpiresAt:   expiresAt.Time,
		Authorities: granted,
	}, nil
}

// Verify checks the signature first and the validity window second. The
// returned error is always one of ErrTokenMalformed, ErrTokenInvalidSignature
// or ErrTokenExpired.
func (ti *TokenIssuer) Verify(tokenString string) (*models.Principal, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil, models.ErrTokenMalformed
	}

	// Expiry is inclusive: a token stops verifying at exp+ClockSkew itself, not
	// one second later. Claims carry whole seconds.
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithIssuer(ti.issuer),
		jwt.WithAudience(ti.audience),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(ti.clockSkew),
		jwt.WithTimeFunc(ti.now),
	)

	claims := &models.TokenClaims{}
	_, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return ti.secret, nil
	})
	if err != nil {
		return nil, classifyTokenError(err)
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", models.ErrTokenMalformed)
	}

	authorities := claims.Authorities
	if authorities == nil {
		authorities = []string{}
	}

	return &models.Principal{
		Subject:     claims.Subject,
		Authorities: authorities,
	}, nil
}

func classifyTokenError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %v", models.ErrTokenMalformed, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", models.ErrTokenInvalidSignature, err)
	case errors.Is(err, jwt.ErrTokenExpired),
		errors.Is(err, jwt.ErrTokenUsedBeforeIssued),
		errors.Is(err, jwt.ErrTokenNotValidYet):
		return fmt.Errorf("%w: %v", models.ErrTokenExpired, err)
	default:
		return fmt.Errorf("%w: %v", models.ErrTokenMalformed, err)
	}
}
