package middleware

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatgptnotes/adamrit.in-sub001/internal/adapters/cache"
)

func countingHandler(body string, calls *int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	})
}

func TestCacheMiddleware_CachesCatalogReads(t *testing.T) {
	calls := 0
	m := NewCacheMiddleware(cache.NewMemoryAdapter(), "v1", nil, DefaultCacheRoutes())
	handler := m.Middleware(countingHandler(`{"diagnoses":[]}`, &calls))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/api/catalog/diagnoses", nil))
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/api/catalog/diagnoses", nil))
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, `{"diagnoses":[]}`, second.Body.String())
	assert.Equal(t, 1, calls)
}

func TestCacheMiddleware_SkipsSessionsAndWrites(t *testing.T) {
	calls := 0
	m := NewCacheMiddleware(cache.NewMemoryAdapter(), "v1", nil, DefaultCacheRoutes())
	handler := m.Middleware(countingHandler(`{}`, &calls))

	for i := 0; i < 2; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/sessions/abc", nil))
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/catalog/diagnoses", nil))
	}
	assert.Equal(t, 4, calls)
}

func TestCacheMiddleware_KeyIncludesVersionAndQuery(t *testing.T) {
	m := NewCacheMiddleware(nil, "v1", nil, DefaultCacheRoutes())
	other := NewCacheMiddleware(nil, "v2", nil, DefaultCacheRoutes())

	a := httptest.NewRequest(http.MethodGet, "/api/catalog/search?q=app&type=diagnosis", nil)
	b := httptest.NewRequest(http.MethodGet, "/api/catalog/search?type=diagnosis&q=app", nil)
	c := httptest.NewRequest(http.MethodGet, "/api/catalog/search?q=chole", nil)

	assert.Equal(t, m.generateCacheKey(a), m.generateCacheKey(b))
	assert.NotEqual(t, m.generateCacheKey(a), m.generateCacheKey(c))
	assert.NotEqual(t, m.generateCacheKey(a), other.generateCacheKey(a))
	assert.Equal(t, 300, m.getRouteConfig("/api/catalog/search").TTLSeconds)
	assert.Equal(t, 3600, m.getRouteConfig("/api/catalog/surgery/sx-1/complications").TTLSeconds)
}

func TestCORSMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) })
	handler := CORSMiddleware(CORSConfig{AllowedOrigins: ParseAllowedOrigins("https://desk.example.org, https://ops.example.org")})(next)

	req := httptest.NewRequest(http.MethodGet, "/api/catalog/diagnoses", nil)
	req.Header.Set("Origin", "https://ops.example.org")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "https://ops.example.org", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, http.StatusTeapot, rec.Code)

	req = httptest.NewRequest(http.MethodOptions, "/api/sessions", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	assert.Equal(t, []string{"*"}, ParseAllowedOrigins(" , "))
}

func TestETag_NotModified(t *testing.T) {
	calls := 0
	handler := ETag(countingHandler(`{"surgeries":[]}`, &calls))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/catalog/surgeries", nil))
	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)

	req := httptest.NewRequest(http.MethodGet, "/api/catalog/surgeries", nil)
	req.Header.Set("If-None-Match", etag)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestResponseOptimization_LeavesStreamsAlone(t *testing.T) {
	calls := 0
	handler := ResponseOptimization(countingHandler("data: {}\n\n", &calls))

	req := httptest.NewRequest(http.MethodGet, "/api/stream/sessions/abc", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("ETag"))
	assert.Empty(t, rec.Header().Get("Content-Encoding"))
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "data: {}\n\n", rec.Body.String())
}

func TestCompression(t *testing.T) {
	calls := 0
	handler := Compression(countingHandler(`{"ok":true}`, &calls))

	req := httptest.NewRequest(http.MethodGet, "/api/catalog/diagnoses", nil)
	req.Header.Set("Accept-Encoding", "gzip, deflate")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
	reader, err := gzip.NewReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	body, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, string(body))
}

func TestLoggingMiddleware_PassesStatus(t *testing.T) {
	handler := LoggingMiddleware(ObservabilityMiddleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
