package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/benefits-desk/internal/domain"
)

// TokenManager validates JWTs issued by the identity platform. The desk
// never issues credentials itself; it only verifies what SSO minted.
type TokenManager struct {
	secret []byte
}

// NewTokenManager builds a manager around the shared signing secret.
func NewTokenManager(secret string) *TokenManager {
	return &TokenManager{secret: []byte(secret)}
}

// Claims describes the JWT payload carried by platform tokens.
type Claims struct {
	TenantID string           `json:"tenant_id"`
	Name     string           `json:"name,omitempty"`
	Role     domain.ActorRole `json:"role"`
	jwt.RegisteredClaims
}

// ParseToken validates the signature and expiry and returns the claims.
func (tm *TokenManager) ParseToken(tokenStr string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// IssueToken signs a token for the subject, used by tests and local
// tooling; production tokens come from the identity platform.
func (tm *TokenManager) IssueToken(subjectID, tenantID, name string, role domain.ActorRole, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		TenantID: tenantID,
		Name:     name,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tm.secret)
}
