// Package cache provides a lazily expiring, concurrency-safe memoization layer
// used in front of the identity and permission stores.
package cache

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultTTL applies when Config.TTL is not positive.
	DefaultTTL = 5 * time.Minute
	// DefaultLoadTimeout bounds a shared load when Config.LoadTimeout is not positive.
	DefaultLoadTimeout = 10 * time.Second
)

// Loader recomputes the value for key from the backing source.
type Loader[K comparable, V any] func(ctx context.Context, key K) (V, error)

// Config tunes a TTL cache.
type Config struct {
	TTL time.Duration
	// LoadTimeout bounds a load. Loads are detached from the caller's
	// cancellation because concurrent callers share them.
	LoadTimeout time.Duration
	Now         func() time.Time
	// Observe, when set, is called on every Get with whether it was served from memory.
	Observe func(hit bool)
}

// Stats reports the cache population after pruning.
type Stats struct {
	Live   int
	Pruned int
	TTL    time.Duration
}

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// TTL memoizes Loader results for a fixed time-to-live. Expiry is checked when
// an entry is read; nothing refreshes entries in the background.
type TTL[K comparable, V any] struct {
	ttl         time.Duration
	loadTimeout time.Duration
	load        Loader[K, V]
	entries *xsync.MapOf[K, entry[V]]
	flights singleflight.Group
	// generation moves on every Evict and Clear so that loads started before
	// an invalidation do not write their result back.
	generation atomic.Uint64
	now        func() time.Time
	observe    func(hit bool)
}

// New constructs a TTL cache around load.
func New[K comparable, V any](load Loader[K, V], cfg Config) *TTL[K, V] {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	loadTimeout := cfg.LoadTimeout
	if loadTimeout <= 0 {
		loadTimeout = DefaultLoadTimeout
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &TTL[K, V]{
		ttl:         ttl,
		loadTimeout: loadTimeout,
		load:        load,
		entries:     xsync.NewMapOf[K, entry[V]](),
		now:         now,
		observe:     cfg.Observe,
	}
}

// Get returns the live entry for key or loads, stores and returns a fresh one.
// Concurrent misses for the same key share one load. Load errors are not cached.
// A caller whose ctx ends stops waiting; the shared load carries on for the others.
func (c *TTL[K, V]) Get(ctx context.Context, key K) (V, error) {
	if e, ok := c.entries.Load(key); ok && !c.now().After(e.expiresAt) {
		c.record(true)
		return e.value, nil
	}
	c.record(false)

	gen := c.generation.Load()
	flight := c.flights.DoChan(flightKey(key), func() (_ any, err error) {
		// DoChan re-panics on its own goroutine, where nothing can recover.
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("cache load panicked: %v", r)
			}
		}()

		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.loadTimeout)
		defer cancel()

		value, err := c.load(loadCtx, key)
		if err != nil {
			return nil, err
		}
		if c.generation.Load() == gen {
			c.entries.Store(key, entry[V]{value: value, expiresAt: c.now().Add(c.ttl)})
		}
		return value, nil
	})

	var zero V
	select {
	case res := <-flight:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(V), nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Evict drops key so the next Get reloads it.
func (c *TTL[K, V]) Evict(key K) {
	c.generation.Add(1)
	c.flights.Forget(flightKey(key))
	c.entries.Delete(key)
}

// Clear drops every entry.
func (c *TTL[K, V]) Clear() {
	c.generation.Add(1)
	c.entries.Range(func(key K, _ entry[V]) bool {
		c.flights.Forget(flightKey(key))
		return true
	})
	c.entries.Clear()
}

// Stats removes expired entries and reports what remains.
func (c *TTL[K, V]) Stats() Stats {
	now := c.now()
	pruned := 0
	c.entries.Range(func(key K, e entry[V]) bool {
		if now.After(e.expiresAt) {
			c.entries.Delete(key)
			pruned++
		}
		return true
	})
	return Stats{Live: c.entries.Size(), Pruned: pruned, TTL: c.ttl}
}

func (c *TTL[K, V]) record(hit bool) {
	if c.observe != nil {
		c.observe(hit)
	}
}

func flightKey[K comparable](key K) string {
	return fmt.Sprint(key)
}
