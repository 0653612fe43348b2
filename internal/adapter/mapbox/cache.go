package mapbox

import (
	"context"
	"strings"

	"github.com/couchcryptid/emissions-dashboard/internal/domain"
	"github.com/couchcryptid/emissions-dashboard/internal/observability"
	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedGeocoder wraps a Geocoder with an in-memory LRU cache keyed by the
// normalized search text.
type CachedGeocoder struct {
	inner   domain.Geocoder
	cache   *lru.Cache[string, domain.GeocodingResult]
	metrics *observability.Metrics
}

// NewCachedGeocoder creates a cache decorator around a geocoder.
func NewCachedGeocoder(inner domain.Geocoder, maxEntries int, metrics *observability.Metrics) (*CachedGeocoder, error) {
	cache, err := lru.New[string, domain.GeocodingResult](maxEntries)
	if err != nil {
		return nil, err
	}
	return &CachedGeocoder{inner: inner, cache: cache, metrics: metrics}, nil
}

func (c *CachedGeocoder) ForwardGeocode(ctx context.Context, query string) (domain.GeocodingResult, error) {
	key := cacheKey(query)
	if result, ok := c.cache.Get(key); ok {
		c.metrics.GeocodeCache.WithLabelValues("hit").Inc()
		return result, nil
	}
	c.metrics.GeocodeCache.WithLabelValues("miss").Inc()

	result, err := c.inner.ForwardGeocode(ctx, query)
	if err != nil {
		return result, err
	}
	// Only cache non-empty results so transient "not found" responses can be retried.
	if result.FormattedAddress != "" {
		c.cache.Add(key, result)
	}
	return result, nil
}

// Len returns the number of cached entries.
func (c *CachedGeocoder) Len() int { return c.cache.Len() }

func cacheKey(query string) string {
	return strings.ToLower(strings.Join(strings.Fields(query), " "))
}
