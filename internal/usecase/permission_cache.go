package usecase

import (
	"context"
	"fmt"

	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/core/domain"
	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/core/port"
	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/infra/cache"
)

// PermissionCache memoizes the functions granted to each role.
type PermissionCache struct {
	entries *cache.TTL[int64, []domain.Function]
}

// NewPermissionCache wraps functions with a per-role TTL cache.
func NewPermissionCache(functions port.FunctionRepository, cfg cache.Config) *PermissionCache {
	return &PermissionCache{
		entries: cache.New(func(ctx context.Context, roleID int64) ([]domain.Function, error) {
			return functions.ListByRoleIDs(ctx, []int64{roleID})
		}, cfg),
	}
}

// Get returns the functions granted to roleID.
func (c *PermissionCache) Get(ctx context.Context, roleID int64) ([]domain.Function, error) {
	functions, err := c.entries.Get(ctx, roleID)
	if err != nil {
		return nil, fmt.Errorf("load grants for role %d: %w", roleID, err)
	}
	return functions, nil
}

// GetByRoles merges the grants of every role in order, keeping the first
// occurrence of each function.
func (c *PermissionCache) GetByRoles(ctx context.Context, roleIDs []int64) ([]domain.Function, error) {
	seen := make(map[int64]struct{})
	var merged []domain.Function
	for _, roleID := range roleIDs {
		functions, err := c.Get(ctx, roleID)
		if err != nil {
			return nil, err
		}
		for _, fn := range functions {
			if _, dup := seen[fn.ID]; dup {
				continue
			}
			seen[fn.ID] = struct{}{}
			merged = append(merged, fn)
		}
	}
	return merged, nil
}

// Evict drops the grants cached for roleID.
func (c *PermissionCache) Evict(roleID int64) {
	c.entries.Evict(roleID)
}

// Clear drops every cached grant set.
func (c *PermissionCache) Clear() {
	c.entries.Clear()
}

// Stats prunes expired grant sets and reports what remains.
func (c *PermissionCache) Stats() cache.Stats {
	return c.entries.Stats()
}
