package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
	"github.com/angelmondragon/storefront/pkg/redis"
	"golang.org/x/sync/singleflight"
)

// Cache is the subset of the redis client used for catalog responses.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	CatalogKey(parts ...string) string
}

// CachedSource serves catalog reads from Redis, falling back to the upstream
// source and collapsing concurrent misses for the same resource.
type CachedSource struct {
	upstream Source
	cache    Cache
	ttl      time.Duration
	logg     *logger.Logger
	metrics  *metrics.CatalogMetrics
	group    singleflight.Group
}

// NewCachedSource wraps upstream. A nil cache disables caching but keeps miss collapsing.
func NewCachedSource(upstream Source, cache Cache, ttl time.Duration, logg *logger.Logger, m *metrics.CatalogMetrics) *CachedSource {
	return &CachedSource{
		upstream: upstream,
		cache:    cache,
		ttl:      ttl,
		logg:     logg,
		metrics:  m,
	}
}

func (s *CachedSource) Categories(ctx context.Context) ([]Category, error) {
	return load(ctx, s, ResourceCategories, s.upstream.Categories)
}

func (s *CachedSource) Products(ctx context.Context) ([]Product, error) {
	return load(ctx, s, ResourceProducts, s.upstream.Products)
}

func (s *CachedSource) ProductBySlug(ctx context.Context, slug string) (*Product, error) {
	return productBySlug(ctx, s, slug)
}

func (s *CachedSource) Gallery(ctx context.Context) ([]GalleryImage, error) {
	return load(ctx, s, ResourceGallery, s.upstream.Gallery)
}

func load[T any](ctx context.Context, s *CachedSource, resource string, fetch func(context.Context) (T, error)) (T, error) {
	v, err, _ := s.group.Do(resource, func() (any, error) {
		// every waiter shares this load; detach it from the first caller's cancellation
		shared := context.WithoutCancel(ctx)

		if cached, ok := readCache[T](shared, s, resource); ok {
			s.metrics.CacheHit(resource)
			return cached, nil
		}
		s.metrics.CacheMiss(resource)

		fresh, err := fetch(shared)
		if err != nil {
			return nil, err
		}
		s.writeCache(shared, resource, fresh)
		return fresh, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

func readCache[T any](ctx context.Context, s *CachedSource, resource string) (T, bool) {
	var out T
	if s.cache == nil {
		return out, false
	}
	raw, err := s.cache.Get(ctx, s.cache.CatalogKey(resource))
	if err != nil {
		if !errors.Is(err, redis.ErrNil) && s.logg != nil {
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"resource": resource, "error": err.Error()}), "catalog cache read failed")
		}
		return out, false
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		if s.logg != nil {
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"resource": resource, "error": err.Error()}), "catalog cache entry undecodable")
		}
		return out, false
	}
	return out, true
}

func (s *CachedSource) writeCache(ctx context.Context, resource string, value any) {
	if s.cache == nil || s.ttl <= 0 {
		return
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, s.cache.CatalogKey(resource), string(payload), s.ttl); err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"resource": resource, "error": err.Error()}), "catalog cache write failed")
	}
}
