package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/core/domain"
	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/infra/logger"
	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/transport/http/reqctx"
)

const bearerPrefix = "Bearer "

// TokenValidator resolves a bearer token to the owning identity's email.
type TokenValidator interface {
	Validate(ctx context.Context, token string) (string, error)
}

// IdentityResolver loads the full identity for an email.
type IdentityResolver interface {
	Get(ctx context.Context, email string) (*domain.Identity, error)
}

// DecisionRecorder counts pipeline outcomes.
type DecisionRecorder interface {
	Decision(stage, outcome string)
}

// RequestAuthenticator establishes the caller of a request from its bearer
// token. It never rejects; unauthenticated requests continue as anonymous.
type RequestAuthenticator struct {
	tokens      TokenValidator
	identities  IdentityResolver
	publicPaths []string
	metrics     DecisionRecorder
	logger      *zap.Logger
}

// NewRequestAuthenticator constructs a RequestAuthenticator. metrics may be nil.
func NewRequestAuthenticator(tokens TokenValidator, identities IdentityResolver, publicPaths []string, metrics DecisionRecorder, logger *zap.Logger) *RequestAuthenticator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RequestAuthenticator{
		tokens:      tokens,
		identities:  identities,
		publicPaths: append([]string(nil), publicPaths...),
		metrics:     metrics,
		logger:      logger,
	}
}

// ShouldBypass reports whether a request skips authentication entirely: it
// carries no Authorization header and its path is on the public allow-list.
func (a *RequestAuthenticator) ShouldBypass(path string, hasAuthorizationHeader bool) bool {
	if hasAuthorizationHeader {
		return false
	}
	for _, prefix := range a.publicPaths {
		if prefix != "" && strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// Authenticate returns the filter stage. A principal already set on the
// request is left untouched.
func (a *RequestAuthenticator) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if a.ShouldBypass(c.Request.URL.Path, header != "") {
			c.Next()
			return
		}

		if p, ok := reqctx.PrincipalFrom(c); !ok || p.IsAnonymous() {
			principal, outcome := a.resolve(c.Request.Context(), header)
			a.record(outcome)
			reqctx.SetPrincipal(c, principal)
		}

		c.Next()
	}
}

func (a *RequestAuthenticator) resolve(ctx context.Context, header string) (reqctx.Principal, string) {
	token, ok := BearerToken(header)
	if !ok {
		return reqctx.Anonymous, "no_token"
	}

	email, err := a.tokens.Validate(ctx, token)
	if err != nil {
		logger.WithContext(ctx).Debug("session rejected",
			zap.String("token", logger.MaskToken(token)),
			zap.Error(err),
		)
		return reqctx.Anonymous, "invalid_token"
	}

	identity, err := a.identities.Get(ctx, email)
	if err != nil {
		logger.WithContext(ctx).Warn("identity lookup failed during authentication",
			zap.String("email", logger.MaskEmail(email)),
			zap.Error(err),
		)
		return reqctx.Anonymous, "lookup_failed"
	}

	return reqctx.Principal{Email: identity.Email, Identity: identity}, "authenticated"
}

func (a *RequestAuthenticator) record(outcome string) {
	if a.metrics != nil {
		a.metrics.Decision("authenticate", outcome)
	}
}

// BearerToken extracts the token from an Authorization header value. The
// "Bearer " prefix is matched exactly and the remainder is taken verbatim.
func BearerToken(header string) (string, bool) {
	token, ok := strings.CutPrefix(header, bearerPrefix)
	if !ok || token == "" {
		return "", false
	}
	return token, true
}
