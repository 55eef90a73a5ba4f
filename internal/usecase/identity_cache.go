package usecase

import (
	"context"
	"fmt"

	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/core/domain"
	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/core/port"
	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/infra/cache"
)

// IdentityCache memoizes identity lookups by email. Returned identities are
// shared between requests and must be treated as read-only.
type IdentityCache struct {
	entries *cache.TTL[string, *domain.Identity]
}

// NewIdentityCache wraps identities with a TTL cache.
func NewIdentityCache(identities port.IdentityRepository, cfg cache.Config) *IdentityCache {
	return &IdentityCache{
		entries: cache.New(func(ctx context.Context, email string) (*domain.Identity, error) {
			return identities.GetByEmail(ctx, email)
		}, cfg),
	}
}

// Get returns the identity for email, loading it on a miss.
func (c *IdentityCache) Get(ctx context.Context, email string) (*domain.Identity, error) {
	identity, err := c.entries.Get(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrIdentityLookupFailed, err)
	}
	return identity, nil
}

// Evict drops email from the cache.
func (c *IdentityCache) Evict(email string) {
	c.entries.Evict(email)
}

// Clear drops every cached identity.
func (c *IdentityCache) Clear() {
	c.entries.Clear()
}

// Stats prunes expired identities and reports what remains.
func (c *IdentityCache) Stats() cache.Stats {
	return c.entries.Stats()
}
