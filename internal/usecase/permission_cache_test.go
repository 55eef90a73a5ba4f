package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/core/domain"
	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/infra/cache"
)

var (
	articlesFn = domain.Function{ID: 1, APIURLPrefix: "/api/articles"}
	mediaFn    = domain.Function{ID: 2, APIURLPrefix: "/api/media"}
	usersFn    = domain.Function{ID: 3, APIURLPrefix: "/api/users"}
)

func TestPermissionCache_GetByRolesMergesInOrder(t *testing.T) {
	repo := &stubFunctionRepo{byRole: map[int64][]domain.Function{
		10: {articlesFn, mediaFn},
		20: {mediaFn, usersFn},
	}}
	grants := NewPermissionCache(repo, cache.Config{TTL: time.Minute})

	merged, err := grants.GetByRoles(context.Background(), []int64{10, 20, 10})
	if err != nil {
		t.Fatalf("GetByRoles returned error: %v", err)
	}

	want := []int64{1, 2, 3}
	if len(merged) != len(want) {
		t.Fatalf("expected %d functions, got %+v", len(want), merged)
	}
	for i, id := range want {
		if merged[i].ID != id {
			t.Fatalf("position %d: expected function %d, got %d", i, id, merged[i].ID)
		}
	}
	if repo.roleCalls != 2 {
		t.Fatalf("expected one load per distinct role, got %d", repo.roleCalls)
	}
}

func TestPermissionCache_EvictRole(t *testing.T) {
	repo := &stubFunctionRepo{byRole: map[int64][]domain.Function{10: {articlesFn}}}
	grants := NewPermissionCache(repo, cache.Config{TTL: time.Hour})
	ctx := context.Background()

	_, _ = grants.Get(ctx, 10)
	repo.byRole[10] = []domain.Function{articlesFn, mediaFn}

	cached, _ := grants.Get(ctx, 10)
	if len(cached) != 1 {
		t.Fatalf("expected cached grant set, got %+v", cached)
	}

	grants.Evict(10)
	fresh, _ := grants.Get(ctx, 10)
	if len(fresh) != 2 {
		t.Fatalf("expected reloaded grant set, got %+v", fresh)
	}
}

func TestPermissionCache_PropagatesStoreErrors(t *testing.T) {
	repo := &stubFunctionRepo{roleErr: errStoreDown}
	grants := NewPermissionCache(repo, cache.Config{})

	if _, err := grants.GetByRoles(context.Background(), []int64{1}); !errors.Is(err, errStoreDown) {
		t.Fatalf("expected store error, got %v", err)
	}
}
