package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/infra/cache"
	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/infra/logger"
	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/transport/http/reqctx"
	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/transport/http/response"
)

// IdentityCacheAdmin is the identity cache surface the admin routes need.
type IdentityCacheAdmin interface {
	Evict(email string)
	Clear()
	Stats() cache.Stats
}

// PermissionCacheAdmin is the permission cache surface the admin routes need.
type PermissionCacheAdmin interface {
	Evict(roleID int64)
	Clear()
	Stats() cache.Stats
}

// SessionPurger deletes expired sessions.
type SessionPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// AdminHandler serves cache and session maintenance endpoints.
type AdminHandler struct {
	identities  IdentityCacheAdmin
	permissions PermissionCacheAdmin
	sessions    SessionPurger
}

func NewAdminHandler(identities IdentityCacheAdmin, permissions PermissionCacheAdmin, sessions SessionPurger) *AdminHandler {
	return &AdminHandler{identities: identities, permissions: permissions, sessions: sessions}
}

type cacheStats struct {
	Live       int     `json:"live"`
	Pruned     int     `json:"pruned"`
	TTLSeconds float64 `json:"ttlSeconds"`
}

func toCacheStats(s cache.Stats) cacheStats {
	return cacheStats{Live: s.Live, Pruned: s.Pruned, TTLSeconds: s.TTL.Seconds()}
}

// CacheStats prunes both caches and reports their sizes.
func (h *AdminHandler) CacheStats(c *gin.Context) {
	response.OK(c, reqctx.Current(c), gin.H{
		"identities":  toCacheStats(h.identities.Stats()),
		"permissions": toCacheStats(h.permissions.Stats()),
	}, "", nil)
}

// ClearCaches drops every cached identity and grant set.
func (h *AdminHandler) ClearCaches(c *gin.Context) {
	rc := reqctx.Current(c)
	h.identities.Clear()
	h.permissions.Clear()
	logger.WithContext(c.Request.Context()).Info("auth caches cleared", zap.Int64("by", rc.Identity().ID))
	response.OK(c, rc, nil, "Caches cleared", nil)
}

// EvictIdentity drops one cached identity.
func (h *AdminHandler) EvictIdentity(c *gin.Context) {
	rc := reqctx.Current(c)
	email := c.Param("email")
	if email == "" {
		response.BadRequest(c, rc, "email is required")
		return
	}
	h.identities.Evict(email)
	response.OK(c, rc, nil, "Identity evicted", nil)
}

// EvictRole drops one role's cached grants.
func (h *AdminHandler) EvictRole(c *gin.Context) {
	rc := reqctx.Current(c)
	roleID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || roleID <= 0 {
		response.Fail(c, rc, http.StatusBadRequest, "role id must be a positive integer")
		return
	}
	h.permissions.Evict(roleID)
	response.OK(c, rc, nil, "Role grants evicted", nil)
}

// PurgeExpiredTokens deletes every expired session row.
func (h *AdminHandler) PurgeExpiredTokens(c *gin.Context) {
	rc := reqctx.Current(c)
	purged, err := h.sessions.PurgeExpired(c.Request.Context())
	if err != nil {
		RespondWithMappedError(c, rc, err, nil, http.StatusInternalServerError, "purge failed")
		return
	}
	response.OK(c, rc, gin.H{"purged": purged}, "Expired tokens purged", nil)
}
