package interceptors

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/core/domain"
	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/infra/logger"
	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/usecase"
)

const (
	authorizationKey = "authorization"
	bearerPrefix     = "Bearer "
)

// errUnauthenticated is the only status returned for a failed authentication,
// whatever the cause.
var errUnauthenticated = status.Error(codes.Unauthenticated, "authentication required")

// TokenValidator resolves a bearer token to the owning identity's email.
type TokenValidator interface {
	Validate(ctx context.Context, token string) (string, error)
}

// IdentityResolver loads the full identity for an email.
type IdentityResolver interface {
	Get(ctx context.Context, email string) (*domain.Identity, error)
}

// PermissionChecker decides access to a full method name.
type PermissionChecker interface {
	Check(ctx context.Context, identity *domain.Identity, path string) usecase.Decision
}

// DecisionRecorder counts pipeline outcomes.
type DecisionRecorder interface {
	Decision(stage, outcome string)
}

// AuthOptions fine-tunes interceptor behaviour.
type AuthOptions struct {
	PublicMethods []string
	Metrics       DecisionRecorder
	Logger        *zap.Logger
}

// AuthInterceptor applies session validation and path permissions to unary calls.
type AuthInterceptor struct {
	tokens      TokenValidator
	identities  IdentityResolver
	permissions PermissionChecker
	metrics     DecisionRecorder
	logger      *zap.Logger
	public      map[string]struct{}
}

// NewAuthInterceptor constructs a new AuthInterceptor instance.
func NewAuthInterceptor(tokens TokenValidator, identities IdentityResolver, permissions PermissionChecker, opts AuthOptions) *AuthInterceptor {
	public := make(map[string]struct{}, len(opts.PublicMethods))
	for _, method := range opts.PublicMethods {
		if method = strings.TrimSpace(method); method != "" {
			public[method] = struct{}{}
		}
	}

	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &AuthInterceptor{
		tokens:      tokens,
		identities:  identities,
		permissions: permissions,
		metrics:     opts.Metrics,
		logger:      log,
		public:      public,
	}
}

// UnaryServerInterceptor returns a gRPC unary interceptor enforcing authentication
// and permissions for every non-public method.
func (ai *AuthInterceptor) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if _, ok := ai.public[info.FullMethod]; ok {
			return handler(ctx, req)
		}

		identity, err := ai.authenticate(ctx, info.FullMethod)
		if err != nil {
			return nil, err
		}

		if ai.permissions == nil || ai.permissions.Check(ctx, identity, info.FullMethod) != usecase.Allow {
			ai.record("authorize", "forbidden")
			return nil, status.Error(codes.PermissionDenied, "access denied")
		}
		ai.record("authorize", "allowed")

		return handler(WithIdentity(ctx, identity), req)
	}
}

func (ai *AuthInterceptor) authenticate(ctx context.Context, method string) (*domain.Identity, error) {
	if ai.tokens == nil || ai.identities == nil {
		ai.record("authenticate", "no_token")
		return nil, errUnauthenticated
	}

	token, err := tokenFromMetadata(ctx)
	if err != nil {
		ai.logger.Debug("gRPC call without usable token",
			zap.String("method", method),
			zap.Error(err),
		)
		ai.record("authenticate", "no_token")
		return nil, errUnauthenticated
	}

	email, err := ai.tokens.Validate(ctx, token)
	if err != nil {
		ai.logger.Debug("gRPC session rejected",
			zap.String("method", method),
			zap.String("token", logger.MaskToken(token)),
			zap.Error(err),
		)
		ai.record("authenticate", "invalid_token")
		return nil, errUnauthenticated
	}

	identity, err := ai.identities.Get(ctx, email)
	if err != nil || identity == nil {
		ai.logger.Warn("gRPC identity lookup failed",
			zap.String("method", method),
			zap.String("email", logger.MaskEmail(email)),
			zap.Error(err),
		)
		ai.record("authenticate", "lookup_failed")
		return nil, errUnauthenticated
	}

	ai.record("authenticate", "authenticated")
	return identity, nil
}

func (ai *AuthInterceptor) record(stage, outcome string) {
	if ai.metrics != nil {
		ai.metrics.Decision(stage, outcome)
	}
}

type identityContextKey struct{}

// WithIdentity returns a derived context carrying the authenticated identity.
func WithIdentity(ctx context.Context, identity *domain.Identity) context.Context {
	if identity == nil {
		return ctx
	}
	return context.WithValue(ctx, identityContextKey{}, identity)
}

// IdentityFromContext extracts the authenticated identity when present.
func IdentityFromContext(ctx context.Context) (*domain.Identity, bool) {
	if ctx == nil {
		return nil, false
	}
	identity, ok := ctx.Value(identityContextKey{}).(*domain.Identity)
	return identity, ok && identity != nil
}

func tokenFromMetadata(ctx context.Context) (string, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", errors.New("missing metadata")
	}

	values := md.Get(authorizationKey)
	if len(values) == 0 || values[0] == "" {
		return "", domain.ErrMissingToken
	}

	token, ok := strings.CutPrefix(values[0], bearerPrefix)
	if !ok || token == "" {
		return "", domain.ErrMissingToken
	}
	return token, nil
}
