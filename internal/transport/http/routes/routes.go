package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/infra/config"
	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/transport/http/handlers"
	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/transport/http/middleware"
)

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config        *config.AppConfig
	Logger        *zap.Logger
	Gatherer      prometheus.Gatherer
	HTTPMetrics   *middleware.HTTPMetrics
	RateLimiter   *middleware.RateLimiter
	Authenticator *middleware.RequestAuthenticator
	Interceptor   *middleware.AuthorizationInterceptor

	Auth            handlers.AuthUsecase
	IdentityCache   handlers.IdentityCacheAdmin
	PermissionCache handlers.PermissionCacheAdmin
	Sessions        handlers.SessionPurger
	Readiness       []handlers.ReadinessCheck
}

// Route is one endpoint. Policy, when set, overrides the group default.
type Route struct {
	Method     string
	Path       string
	Policy     *middleware.Policy
	Middleware []gin.HandlerFunc
	Handler    gin.HandlerFunc
}

// Group is a set of routes sharing a prefix and a default policy.
type Group struct {
	Prefix string
	Policy middleware.Policy
	Routes []Route
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config != nil && deps.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.EnrichContext())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))
	r.Use(deps.HTTPMetrics.Handler())
	if deps.Config != nil {
		r.Use(middleware.CORS(deps.Config.App.AllowedOrigins))
	}
	if deps.Authenticator != nil {
		r.Use(deps.Authenticator.Authenticate())
	}

	health := handlers.NewHealthHandler(deps.Readiness...)
	r.GET("/healthz", health.Status)
	r.GET("/readyz", health.Ready)
	r.GET("/actuator/health", health.Status)

	metricsHandler := promhttp.Handler()
	if deps.Gatherer != nil {
		metricsHandler = promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})
	}
	r.GET("/metrics", gin.WrapH(metricsHandler))

	if deps.Interceptor != nil {
		for _, g := range APIGroups(deps) {
			Mount(r, deps.Interceptor, g)
		}
	}

	return r
}

// Mount registers every route of g behind the interceptor configured with the
// route's effective policy.
func Mount(r gin.IRouter, interceptor *middleware.AuthorizationInterceptor, g Group) {
	group := r.Group(g.Prefix)
	for _, route := range g.Routes {
		chain := make([]gin.HandlerFunc, 0, len(route.Middleware)+2)
		chain = append(chain, route.Middleware...)
		chain = append(chain, interceptor.Require(middleware.ResolvePolicy(g.Policy, route.Policy)), route.Handler)
		group.Handle(route.Method, route.Path, chain...)
	}
}

// APIGroups declares the /api surface.
func APIGroups(deps Dependencies) []Group {
	authenticated := &middleware.Policy{Authenticate: true}
	var groups []Group

	if deps.Auth != nil {
		auth := handlers.NewAuthHandler(deps.Auth)
		groups = append(groups, Group{
			Prefix: "/api/auth",
			Policy: middleware.Public,
			Routes: []Route{
				{Method: http.MethodPost, Path: "/login", Middleware: rateLimit(deps, "auth_login_ip", loginLimit(deps)), Handler: auth.Login},
				{Method: http.MethodPost, Path: "/register", Middleware: rateLimit(deps, "auth_register_ip", registerLimit(deps)), Handler: auth.Register},
				{Method: http.MethodPost, Path: "/logout", Policy: authenticated, Handler: auth.Logout},
				{Method: http.MethodPost, Path: "/logout-all", Policy: authenticated, Handler: auth.LogoutAll},
			},
		})
	}

	secure := handlers.NewSecureHandler()
	groups = append(groups, Group{
		Prefix: "/api/secure",
		Policy: middleware.Policy{Authenticate: true},
		Routes: []Route{
			{Method: http.MethodGet, Path: "/profile", Handler: secure.Profile},
			{Method: http.MethodPost, Path: "/data", Handler: secure.PostData},
			{Method: http.MethodGet, Path: "/check-owner/:id", Handler: secure.CheckOwner},
		},
	})

	if deps.IdentityCache != nil && deps.PermissionCache != nil && deps.Sessions != nil {
		admin := handlers.NewAdminHandler(deps.IdentityCache, deps.PermissionCache, deps.Sessions)
		groups = append(groups, Group{
			Prefix: "/api/admin",
			Policy: middleware.Policy{Authenticate: true, CheckPermissions: true},
			Routes: []Route{
				{Method: http.MethodGet, Path: "/cache/stats", Handler: admin.CacheStats},
				{Method: http.MethodDelete, Path: "/cache", Handler: admin.ClearCaches},
				{Method: http.MethodDelete, Path: "/cache/identities/:email", Handler: admin.EvictIdentity},
				{Method: http.MethodDelete, Path: "/cache/roles/:id", Handler: admin.EvictRole},
				{Method: http.MethodDelete, Path: "/tokens/expired", Handler: admin.PurgeExpiredTokens},
			},
		})
	}

	return groups
}

func loginLimit(deps Dependencies) int {
	if deps.Config == nil {
		return 0
	}
	return deps.Config.RateLimit.LoginMaxAttempts
}

func registerLimit(deps Dependencies) int {
	if deps.Config == nil {
		return 0
	}
	return deps.Config.RateLimit.RegisterMaxAttempts
}

func rateLimit(deps Dependencies, name string, limit int) []gin.HandlerFunc {
	if deps.RateLimiter == nil || limit <= 0 {
		return nil
	}

	window := deps.Config.RateLimit.WindowDuration
	if window <= 0 {
		window = time.Minute
	}

	return []gin.HandlerFunc{deps.RateLimiter.RateLimit(middleware.RateLimitRule{
		Name:       name,
		Limit:      limit,
		Window:     window,
		Identifier: middleware.ClientIPIdentifier(),
	})}
}
