package content

import (
	"context"
	"errors"

	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-repository-cache/cache"
	repositorycache "github.com/goliatone/go-repository-cache/repositorycache"
)

// ReadCache is the go-repository-cache service shared by the article and blog
// read repositories. A nil ReadCache disables caching.
type ReadCache struct {
	service    cache.CacheService
	serializer cache.KeySerializer
}

// NewReadCache returns nil unless both the service and serializer are set.
func NewReadCache(service cache.CacheService, serializer cache.KeySerializer) *ReadCache {
	if service == nil || serializer == nil {
		return nil
	}
	return &ReadCache{service: service, serializer: serializer}
}

// Invalidate drops every cached read for the entity types in keys. Keys
// without cached repositories are ignored.
func (c *ReadCache) Invalidate(ctx context.Context, keys ...string) error {
	if c == nil {
		return nil
	}
	var errs []error
	for _, key := range keys {
		if _, ok := cachedTypes[key]; !ok {
			continue
		}
		if err := c.service.DeleteByPrefix(ctx, key+cache.KeySeparator); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// cachedTypes are the entity keys whose repositories are cached. The key
// doubles as the cache namespace.
var cachedTypes = map[string]struct{}{
	"article": {},
	"blog":    {},
}

func wrapWithCache[T any](base repository.Repository[T], c *ReadCache) repository.Repository[T] {
	if c == nil {
		return base
	}
	return repositorycache.New(base, c.service, c.serializer)
}
