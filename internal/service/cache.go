// Package service holds the cached entity services. Reads are cache-aside;
// writes hit the repository first and invalidate cache entries afterwards.
package service

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Clark-Hu/movie-catalog/internal/domain"
)

// DefaultItemTTL is how long entity items and listings stay cached.
const DefaultItemTTL = 600 * time.Second

// Cache is the subset of *cache.Gate the services rely on. Implementations
// never return errors; failures degrade to misses and dropped writes.
type Cache interface {
	Get(ctx context.Context, key string, dst any) bool
	Set(ctx context.Context, key string, value any, ttl time.Duration)
	Delete(ctx context.Context, keys ...string)
	DeleteByPrefix(ctx context.Context, prefix string)
}

type nopCache struct{}

func (nopCache) Get(context.Context, string, any) bool           { return false }
func (nopCache) Set(context.Context, string, any, time.Duration) {}
func (nopCache) Delete(context.Context, ...string)               {}
func (nopCache) DeleteByPrefix(context.Context, string)          {}

// keyspace builds the cache keys of one entity kind.
type keyspace struct {
	kind string
	// expandInItemKey is set for kinds whose views vary with the expand flag.
	expandInItemKey bool
}

func (k keyspace) item(id string, expand bool) string {
	if k.expandInItemKey {
		return fmt.Sprintf("%s:%s:expand=%t", k.kind, id, expand)
	}
	return fmt.Sprintf("%s:%s", k.kind, id)
}

// items returns every item key that may hold id.
func (k keyspace) items(id string) []string {
	if k.expandInItemKey {
		return []string{k.item(id, true), k.item(id, false)}
	}
	return []string{k.item(id, false)}
}

func (k keyspace) list(q domain.ListQuery) string {
	key := fmt.Sprintf("%spage=%d:limit=%d:sortBy=%s:order=%s", k.listPrefix(), q.Page, q.Limit, q.SortBy, q.Order)
	if k.expandInItemKey {
		key += fmt.Sprintf(":expand=%t", q.Expand)
	}
	return key
}

func (k keyspace) listPrefix() string {
	return k.kind + ":list:"
}

// cacheAside runs the read-through and invalidation steps shared by every
// entity kind. T is the normalized view that gets cached.
type cacheAside[T any] struct {
	cache Cache
	keys  keyspace
	ttl   time.Duration
}

// read returns the cached value under key or loads, caches, and returns it.
func (c cacheAside[T]) read(ctx context.Context, key string, load func(context.Context) (T, error)) (T, error) {
	var cached T
	if c.cache.Get(ctx, key, &cached) {
		return cached, nil
	}

	value, err := load(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	c.cache.Set(ctx, key, value, c.ttl)
	return value, nil
}

// readPage assembles a page from concurrently fetched rows and total. An
// empty key disables caching for this call.
func (c cacheAside[T]) readPage(
	ctx context.Context,
	key string,
	q domain.ListQuery,
	fetch func(context.Context) ([]T, error),
	count func(context.Context) (int64, error),
) (domain.Page[T], error) {
	if key != "" {
		var cached domain.Page[T]
		if c.cache.Get(ctx, key, &cached) {
			return cached, nil
		}
	}

	var (
		data  []T
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		data, err = fetch(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = count(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.Page[T]{}, err
	}

	page := domain.NewPage(data, q, total)
	if key != "" {
		c.cache.Set(ctx, key, page, c.ttl)
	}
	return page, nil
}

// store caches a freshly written value under key.
func (c cacheAside[T]) store(ctx context.Context, key string, value T) {
	c.cache.Set(ctx, key, value, c.ttl)
}

// invalidate drops every item key of id and all listings of the kind.
func (c cacheAside[T]) invalidate(ctx context.Context, id string) {
	c.cache.Delete(ctx, c.keys.items(id)...)
	c.invalidateLists(ctx)
}

func (c cacheAside[T]) invalidateLists(ctx context.Context) {
	c.cache.DeleteByPrefix(ctx, c.keys.listPrefix())
}
