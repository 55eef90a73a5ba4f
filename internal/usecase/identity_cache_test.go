package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/core/domain"
	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/infra/cache"
	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/repository"
)

func TestIdentityCache_ServesRepeatLookupsFromMemory(t *testing.T) {
	repo := newStubIdentityRepo(domain.Identity{ID: 1, Email: "a@example.com", Roles: []domain.Role{{ID: 2, Name: "EDITOR"}}})
	identities := NewIdentityCache(repo, cache.Config{TTL: time.Minute})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		identity, err := identities.Get(ctx, "a@example.com")
		if err != nil {
			t.Fatalf("Get returned error: %v", err)
		}
		if identity.ID != 1 || len(identity.Roles) != 1 {
			t.Fatalf("unexpected identity: %+v", identity)
		}
	}
	if repo.callCount() != 1 {
		t.Fatalf("expected one store lookup, got %d", repo.callCount())
	}
}

func TestIdentityCache_ReloadsAfterTTL(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	repo := newStubIdentityRepo(domain.Identity{ID: 1, Email: "a@example.com"})
	identities := NewIdentityCache(repo, cache.Config{TTL: 5 * time.Minute, Now: func() time.Time { return now }})
	ctx := context.Background()

	if _, err := identities.Get(ctx, "a@example.com"); err != nil {
		t.Fatalf("Get returned error: %v", err)
	}

	now = now.Add(5 * time.Minute)
	_, _ = identities.Get(ctx, "a@example.com")
	if repo.callCount() != 1 {
		t.Fatalf("expected entry to be live at its expiry instant, got %d lookups", repo.callCount())
	}

	now = now.Add(time.Second)
	_, _ = identities.Get(ctx, "a@example.com")
	if repo.callCount() != 2 {
		t.Fatalf("expected reload after expiry, got %d lookups", repo.callCount())
	}
}

func TestIdentityCache_EvictForcesReload(t *testing.T) {
	repo := newStubIdentityRepo(domain.Identity{ID: 1, Email: "a@example.com"})
	identities := NewIdentityCache(repo, cache.Config{TTL: time.Hour})
	ctx := context.Background()

	_, _ = identities.Get(ctx, "a@example.com")
	identities.Evict("a@example.com")
	_, _ = identities.Get(ctx, "a@example.com")

	if repo.callCount() != 2 {
		t.Fatalf("expected reload after evict, got %d lookups", repo.callCount())
	}
	if stats := identities.Stats(); stats.Live != 1 {
		t.Fatalf("expected one live entry, got %+v", stats)
	}

	identities.Clear()
	if stats := identities.Stats(); stats.Live != 0 {
		t.Fatalf("expected empty cache after Clear, got %+v", stats)
	}
}

func TestIdentityCache_WrapsLookupFailures(t *testing.T) {
	repo := newStubIdentityRepo()
	identities := NewIdentityCache(repo, cache.Config{})
	ctx := context.Background()

	_, err := identities.Get(ctx, "ghost@example.com")
	if !errors.Is(err, domain.ErrIdentityLookupFailed) || !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrIdentityLookupFailed wrapping ErrNotFound, got %v", err)
	}

	repo.err = errStoreDown
	_, err = identities.Get(ctx, "ghost@example.com")
	if !errors.Is(err, domain.ErrIdentityLookupFailed) || !errors.Is(err, errStoreDown) {
		t.Fatalf("expected wrapped store failure, got %v", err)
	}
	if repo.callCount() != 2 {
		t.Fatalf("expected failures not to be cached, got %d lookups", repo.callCount())
	}
}
