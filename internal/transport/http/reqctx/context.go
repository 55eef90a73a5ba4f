// Package reqctx carries the per-request authentication state between the
// auth middleware and handlers. Values are immutable once attached.
package reqctx

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/core/domain"
)

const (
	principalKey      = "cms.principal"
	requestContextKey = "cms.request_context"

	anonymousEmail = "anonymousUser"
)

type principalCtxKey struct{}

type requestCtxKey struct{}

// Principal is the caller established by the authenticator.
type Principal struct {
	Email    string
	Identity *domain.Identity
}

// Anonymous is the principal of a request that carried no valid session.
var Anonymous = Principal{Email: anonymousEmail}

// IsAnonymous reports whether p is the anonymous sentinel or empty.
func (p Principal) IsAnonymous() bool {
	return p.Email == "" || p.Email == anonymousEmail
}

// RequestContext exposes the resolved caller to handlers.
type RequestContext struct {
	identity   *domain.Identity
	clientIP   string
	authResult domain.AuthResult
	traceID    string
}

// New builds a RequestContext.
func New(identity *domain.Identity, clientIP string, result domain.AuthResult, traceID string) RequestContext {
	return RequestContext{identity: identity, clientIP: clientIP, authResult: result, traceID: traceID}
}

func (r RequestContext) Identity() *domain.Identity { return r.identity }

func (r RequestContext) ClientIP() string { return r.clientIP }

func (r RequestContext) AuthResult() domain.AuthResult { return r.authResult }

func (r RequestContext) TraceID() string { return r.traceID }

// IsAuthenticated reports whether an identity was resolved for the request.
func (r RequestContext) IsAuthenticated() bool {
	return r.identity != nil && r.authResult.OK
}

// SetPrincipal attaches p to the gin context and the request context.
func SetPrincipal(c *gin.Context, p Principal) {
	c.Set(principalKey, p)
	c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), principalCtxKey{}, p))
}

// PrincipalFrom returns the principal set for this request, if any.
func PrincipalFrom(c *gin.Context) (Principal, bool) {
	if v, ok := c.Get(principalKey); ok {
		if p, ok := v.(Principal); ok {
			return p, true
		}
	}
	return Principal{}, false
}

// Attach stores rc on the gin context and the request context.
func Attach(c *gin.Context, rc RequestContext) {
	c.Set(requestContextKey, rc)
	c.Request = c.Request.WithContext(WithContext(c.Request.Context(), rc))
}

// Clear removes the RequestContext from c and restores the request context
// that was current before Attach.
func Clear(c *gin.Context, original context.Context) {
	c.Set(requestContextKey, nil)
	if original != nil {
		c.Request = c.Request.WithContext(original)
	}
}

// Current returns the RequestContext attached to c, or an unauthenticated one.
func Current(c *gin.Context) RequestContext {
	if v, ok := c.Get(requestContextKey); ok {
		if rc, ok := v.(RequestContext); ok {
			return rc
		}
	}
	return RequestContext{clientIP: ClientIP(c.Request)}
}

// WithContext returns a copy of ctx carrying rc.
func WithContext(ctx context.Context, rc RequestContext) context.Context {
	return context.WithValue(ctx, requestCtxKey{}, rc)
}

// FromContext extracts a RequestContext from ctx.
func FromContext(ctx context.Context) (RequestContext, bool) {
	if ctx == nil {
		return RequestContext{}, false
	}
	rc, ok := ctx.Value(requestCtxKey{}).(RequestContext)
	return rc, ok
}

// ClientIP returns the first X-Forwarded-For hop, else the peer address.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
