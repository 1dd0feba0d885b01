package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/claims-service/pkg/util/errorutil"
)

const (
	actorKey     = "claims_actor"
	actorHeader  = "X-User-ID"
	defaultActor = "system"
)

// ActorMiddleware resolves who is acting on a request. Identity is
// informational: it lands in audit events, it does not gate access.
type ActorMiddleware struct {
	tokens *TokenManager
}

// NewActorMiddleware constructs middleware.
func NewActorMiddleware(tokens *TokenManager) *ActorMiddleware {
	return &ActorMiddleware{tokens: tokens}
}

// Handle takes the actor from a bearer token's subject, then from the
// X-User-ID header, then falls back to "system". A bearer token that does not
// verify is rejected.
func (m *ActorMiddleware) Handle(c *fiber.Ctx) error {
	actor := defaultActor

	if authHeader := c.Get(fiber.HeaderAuthorization); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return apperrors.NewUnauthorized("invalid authorization header")
		}
		claims, err := m.tokens.ParseToken(strings.TrimSpace(parts[1]))
		if err != nil {
			return apperrors.NewUnauthorized("invalid token")
		}
		actor = claims.Subject
	} else if header := strings.TrimSpace(c.Get(actorHeader)); header != "" {
		actor = header
	}

	c.Locals(actorKey, actor)
	return c.Next()
}

// ActorFromContext returns the acting user for the request.
func ActorFromContext(c *fiber.Ctx) string {
	if actor, ok := c.Locals(actorKey).(string); ok && actor != "" {
		return actor
	}
	return defaultActor
}
