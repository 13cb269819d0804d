package mockbackend

import (
	"errors"
	"fmt"
	"sync"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// tokenClaims are the claims carried by an issued bearer token
type tokenClaims struct {
	Role string `json:"role"`
	jwtlib.RegisteredClaims
}

// tokenIssuer signs and verifies HS256 bearer tokens and remembers revoked ones
type tokenIssuer struct {
	secret []byte
	ttl    time.Duration

	mu      sync.RWMutex
	revoked map[string]time.Time // jti to expiry
}

func newTokenIssuer(secret []byte, ttl time.Duration) *tokenIssuer {
	return &tokenIssuer{
		secret:  secret,
		ttl:     ttl,
		revoked: make(map[string]time.Time),
	}
}

// Issue creates a signed token for the account
func (t *tokenIssuer) Issue(a *Account) (string, error) {
	now := NowTimeFunc()
	claims := tokenClaims{
		Role: string(a.Role),
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   a.ID,
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(t.ttl)),
			ID:        uuid.New().String(),
		},
	}
	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify parses raw and returns its claims if it is signed, unexpired and not revoked
func (t *tokenIssuer) Verify(raw string) (*tokenClaims, error) {
	claims := &tokenClaims{}
	token, err := jwtlib.ParseWithClaims(raw, claims, func(*jwtlib.Token) (any, error) {
		return t.secret, nil
	},
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithTimeFunc(NowTimeFunc),
		jwtlib.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if claims.ID == "" {
		return nil, errors.New("token missing jti claim")
	}
	if t.isRevoked(claims.ID) {
		return nil, errors.New("token revoked")
	}
	return claims, nil
}

// Revoke invalidates a token until its natural expiry
func (t *tokenIssuer) Revoke(claims *tokenClaims) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cleanupLocked()
	t.revoked[claims.ID] = claims.ExpiresAt.Time
}

func (t *tokenIssuer) isRevoked(jti string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.revoked[jti]
	return ok
}

func (t *tokenIssuer) cleanupLocked() {
	now := NowTimeFunc()
	for jti, exp := range t.revoked {
		if now.After(exp) {
			delete(t.revoked, jti)
		}
	}
}
