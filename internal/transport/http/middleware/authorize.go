package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/core/domain"
	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/infra/logger"
	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/transport/http/reqctx"
	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/transport/http/response"
	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/usecase"
)

// Policy declares what a route or route group requires.
type Policy struct {
	Authenticate     bool
	CheckPermissions bool
}

// Public is the zero policy.
var Public = Policy{}

// ResolvePolicy returns route when set, else the group default.
func ResolvePolicy(group Policy, route *Policy) Policy {
	if route != nil {
		return *route
	}
	return group
}

// PermissionChecker decides path-level access.
type PermissionChecker interface {
	Check(ctx context.Context, identity *domain.Identity, path string) usecase.Decision
}

// AuthorizationInterceptor guards handlers behind a Policy.
type AuthorizationInterceptor struct {
	identities  IdentityResolver
	permissions PermissionChecker
	metrics     DecisionRecorder
	logger      *zap.Logger
}

// NewAuthorizationInterceptor constructs an interceptor. metrics may be nil.
func NewAuthorizationInterceptor(identities IdentityResolver, permissions PermissionChecker, metrics DecisionRecorder, logger *zap.Logger) *AuthorizationInterceptor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthorizationInterceptor{identities: identities, permissions: permissions, metrics: metrics, logger: logger}
}

// Require returns a middleware enforcing policy. The RequestContext it
// attaches is removed again when the handler chain returns or panics.
func (i *AuthorizationInterceptor) Require(policy Policy) gin.HandlerFunc {
	if !policy.Authenticate {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		original := c.Request.Context()
		defer reqctx.Clear(c, original)

		ctx := c.Request.Context()
		clientIP := reqctx.ClientIP(c.Request)
		anonymous := reqctx.New(nil, clientIP, domain.AuthResult{}, GetTraceID(c))

		principal, ok := reqctx.PrincipalFrom(c)
		if !ok || principal.IsAnonymous() {
			i.record("unauthenticated")
			response.Unauthorized(c, anonymous)
			return
		}

		identity, err := i.identities.Get(ctx, principal.Email)
		if err != nil || identity == nil {
			logger.WithContext(ctx).Warn("identity lookup failed during authorization",
				zap.String("email", logger.MaskEmail(principal.Email)),
				zap.Error(err),
			)
			i.record("lookup_failed")
			response.Unauthorized(c, anonymous)
			return
		}

		rc := reqctx.New(identity, clientIP, domain.AuthSucceeded(), GetTraceID(c))
		reqctx.Attach(c, rc)

		if policy.CheckPermissions && i.permissions.Check(c.Request.Context(), identity, c.Request.URL.Path) != usecase.Allow {
			i.record("forbidden")
			response.Forbidden(c, rc, "")
			return
		}

		i.record("allowed")
		c.Next()
	}
}

func (i *AuthorizationInterceptor) record(outcome string) {
	if i.metrics != nil {
		i.metrics.Decision("authorize", outcome)
	}
}
