package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/clinicore/clinic-api/internal/model"
	"github.com/clinicore/clinic-api/pkg/auth"
	apperrors "github.com/clinicore/clinic-api/pkg/errors"
	"github.com/clinicore/clinic-api/pkg/httputil"
)

const contextActorKey = "actor"

type AuthMiddleware struct {
	tokens *auth.TokenManager
}

func NewAuthMiddleware(tokens *auth.TokenManager) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Authenticate verifies the bearer token and stores the resulting Actor
// in the request context. Every protected route runs behind this.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abortWith(c, apperrors.Unauthorized("missing authorization header"))
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			abortWith(c, apperrors.Unauthorized("invalid authorization format"))
			return
		}

		actor, err := m.tokens.Verify(parts[1])
		if err != nil {
			abortWith(c, err)
			return
		}

		c.Set(contextActorKey, actor)
		c.Next()
	}
}

// RequireCapability rejects actors whose role set does not resolve the
// capability. Handlers still re-check ownership; this gate only filters
// whole role classes.
func RequireCapability(capability model.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := ActorFromContext(c)
		if actor == nil {
			abortWith(c, apperrors.Unauthorized("not authenticated"))
			return
		}
		if !actor.HasCapability(capability) {
			abortWith(c, apperrors.Forbidden("insufficient permissions"))
			return
		}
		c.Next()
	}
}

// ActorFromContext returns the authenticated actor, or nil outside an
// authenticated route.
func ActorFromContext(c *gin.Context) *model.Actor {
	v, ok := c.Get(contextActorKey)
	if !ok {
		return nil
	}
	actor, ok := v.(*model.Actor)
	if !ok {
		return nil
	}
	return actor
}

func abortWith(c *gin.Context, err error) {
	httputil.RespondWithError(c, err)
	c.Abort()
}
