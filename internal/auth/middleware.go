package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/benefits-desk/internal/domain"
	apperrors "github.com/spec-kit/benefits-desk/pkg/util"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller.
type Principal struct {
	SubjectID string
	TenantID  string
	Name      string
	Role      domain.ActorRole
}

// Actor converts the principal to the domain actor attached to mutations.
func (p *Principal) Actor() domain.Actor {
	return domain.Actor{ID: p.SubjectID, Name: p.Name, Role: p.Role}
}

// AuthMiddleware validates bearer tokens. Verification is stateless: the
// claims carry everything the desk needs.
type AuthMiddleware struct {
	tokens *TokenManager
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}
	if strings.TrimSpace(claims.TenantID) == "" {
		return apperrors.NewUnauthorized("token missing tenant")
	}

	c.Locals(principalKey, &Principal{
		SubjectID: claims.Subject,
		TenantID:  claims.TenantID,
		Name:      claims.Name,
		Role:      claims.Role,
	})
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated caller.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
