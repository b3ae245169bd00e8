package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"sort"
	"strings"

	"github.com/chatgptnotes/adamrit.in-sub001/internal/domain/providers"
	"github.com/chatgptnotes/adamrit.in-sub001/internal/infrastructure/observability"
)

const responseCachePrefix = "http:cache:"

// CacheConfig holds cache configuration for specific routes
type CacheConfig struct {
	TTLSeconds int
	Enabled    bool
}

// CacheMiddleware caches successful GET responses of read-only catalog
// routes. Keys include the catalog version, so loading a new catalog
// orphans every old entry.
type CacheMiddleware struct {
	cache        providers.CacheProvider
	version      string
	metrics      *observability.Metrics
	routeConfigs map[string]CacheConfig
	prefixes     []string
}

// DefaultCacheRoutes are the catalog routes worth caching
func DefaultCacheRoutes() map[string]CacheConfig {
	return map[string]CacheConfig{
		"/api/catalog/search": {TTLSeconds: 300, Enabled: true},
		"/api/catalog/":       {TTLSeconds: 3600, Enabled: true},
	}
}

// NewCacheMiddleware creates a new cache middleware
func NewCacheMiddleware(cache providers.CacheProvider, catalogVersion string, metrics *observability.Metrics, routes map[string]CacheConfig) *CacheMiddleware {
	prefixes := make([]string, 0, len(routes))
	for pattern := range routes {
		prefixes = append(prefixes, pattern)
	}
	// Longest prefix wins, independent of map iteration order.
	sort.Slice(prefixes, func(i, j int) bool { return len(prefixes[i]) > len(prefixes[j]) })

	return &CacheMiddleware{
		cache:        cache,
		version:      catalogVersion,
		metrics:      metrics,
		routeConfigs: routes,
		prefixes:     prefixes,
	}
}

// Middleware returns the cache middleware handler
func (m *CacheMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || m.cache == nil {
			next.ServeHTTP(w, r)
			return
		}

		config := m.getRouteConfig(r.URL.Path)
		if !config.Enabled {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		logger := observability.LoggerFromContext(ctx)
		cacheKey := m.generateCacheKey(r)

		if cached, err := m.cache.Get(ctx, cacheKey); err == nil {
			observability.RecordCacheHit(ctx, m.metrics, "catalog")
			w.Header().Set("X-Cache", "HIT")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(cached)
			return
		}

		observability.RecordCacheMiss(ctx, m.metrics, "catalog")
		w.Header().Set("X-Cache", "MISS")

		recorder := &responseRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
			body:           &bytes.Buffer{},
		}
		next.ServeHTTP(recorder, r)

		if recorder.statusCode == http.StatusOK && recorder.body.Len() > 0 {
			if err := m.cache.Set(ctx, cacheKey, recorder.body.Bytes(), config.TTLSeconds); err != nil {
				logger.Warn().Err(err).Str("path", r.URL.Path).Msg("failed to cache response")
			}
		}
	})
}

func (m *CacheMiddleware) getRouteConfig(path string) CacheConfig {
	if config, exists := m.routeConfigs[path]; exists {
		return config
	}
	for _, pattern := range m.prefixes {
		if strings.HasPrefix(path, pattern) {
			return m.routeConfigs[pattern]
		}
	}
	return CacheConfig{Enabled: false}
}

func (m *CacheMiddleware) generateCacheKey(r *http.Request) string {
	key := m.version + ":" + r.Method + ":" + r.URL.Path
	if query := r.URL.Query(); len(query) > 0 {
		key += "?" + query.Encode()
	}

	hash := sha256.Sum256([]byte(key))
	return responseCachePrefix + hex.EncodeToString(hash[:])
}

// responseRecorder captures the response for caching
type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
	written    bool
}

func (r *responseRecorder) WriteHeader(statusCode int) {
	if !r.written {
		r.statusCode = statusCode
		r.ResponseWriter.WriteHeader(statusCode)
		r.written = true
	}
}

func (r *responseRecorder) Write(data []byte) (int, error) {
	if !r.written {
		r.WriteHeader(http.StatusOK)
	}
	r.body.Write(data)
	return r.ResponseWriter.Write(data)
}
