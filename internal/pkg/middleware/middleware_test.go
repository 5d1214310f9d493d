package middleware_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gofulfill/internal/domain"
	"gofulfill/internal/pkg/cache"
	"gofulfill/internal/pkg/logger"
	"gofulfill/internal/pkg/middleware"
	"gofulfill/internal/pkg/token"
)

var quiet = logger.NewLoggerWithOutput("error", io.Discard)

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func protected(tokens *token.Service) http.HandlerFunc {
	auth := middleware.NewAuthMiddleware(tokens, quiet)
	admin := middleware.PermissionMiddleware(quiet, domain.RoleAdmin)
	return auth(admin(okHandler))
}

func TestAuth_AllowsAdmin(t *testing.T) {
	tokens := token.NewService("segredo", time.Hour)
	signed, err := tokens.GenerateToken("ops", string(domain.RoleAdmin))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/v1/warehouses/A/restock", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	protected(tokens)(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestAuth_Rejections(t *testing.T) {
	tokens := token.NewService("segredo", time.Hour)
	viewer, err := tokens.GenerateToken("ops", string(domain.RoleViewer))
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"sem header", "", http.StatusUnauthorized},
		{"esquema errado", "Basic abc", http.StatusUnauthorized},
		{"token inválido", "Bearer xyz", http.StatusUnauthorized},
		{"papel insuficiente", "Bearer " + viewer, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/warehouses/A/restock", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			protected(tokens)(rec, req)

			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		})
	}
}

func TestPermission_WithoutAuthIsUnauthorized(t *testing.T) {
	rec := httptest.NewRecorder()
	middleware.PermissionMiddleware(quiet, domain.RoleAdmin)(okHandler)(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// fakeCache é um cache.Client em memória; a expiração só é registrada.
type fakeCache struct {
	mu      sync.Mutex
	data    map[string]int
	expires map[string]int
	err     error
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: map[string]int{}, expires: map[string]int{}}
}

var _ cache.Client = (*fakeCache)(nil)

func (f *fakeCache) Incr(_ context.Context, key string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	f.data[key]++
	return int64(f.data[key]), nil
}

func (f *fakeCache) Expire(_ context.Context, key string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.expires[key]++
	return nil
}

func (f *fakeCache) Ping(context.Context) error { return f.err }

func serve(h http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/v1/products", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiter_Redis(t *testing.T) {
	h := middleware.RateLimiter(middleware.NewRedisLimiter(newFakeCache(), 3, time.Minute, time.Second), quiet)(http.HandlerFunc(okHandler))

	for i := 0; i < 3; i++ {
		rec := serve(h, "10.0.0.1:5000")
		require.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, strconv.Itoa(2-i), rec.Header().Get("X-RateLimit-Remaining"))
	}
	rec := serve(h, "10.0.0.1:5001")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "RATE_LIMITED")

	// Outro IP tem a própria janela.
	assert.Equal(t, http.StatusNoContent, serve(h, "10.0.0.2:5000").Code)
}

func TestRedisLimiter_ConcurrentFirstRequestsAreAllCounted(t *testing.T) {
	c := newFakeCache()
	limiter := middleware.NewRedisLimiter(c, 5, time.Minute, time.Second)

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, _, err := limiter.Allow(context.Background(), "10.0.0.1")
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, allowed)
	assert.Equal(t, 20, c.data["rate-limit:10.0.0.1"])
	assert.Equal(t, 1, c.expires["rate-limit:10.0.0.1"], "a expiração é definida uma vez por janela")
}

func TestRateLimiter_FailsOpenWhenCacheDown(t *testing.T) {
	c := newFakeCache()
	c.err = errors.New("dial tcp: connection refused")
	h := middleware.RateLimiter(middleware.NewRedisLimiter(c, 1, time.Minute, time.Second), quiet)(http.HandlerFunc(okHandler))

	assert.Equal(t, http.StatusNoContent, serve(h, "10.0.0.1:5000").Code)
	assert.Equal(t, http.StatusNoContent, serve(h, "10.0.0.1:5000").Code)
}

func TestRateLimiter_Local(t *testing.T) {
	local := middleware.NewLocalLimiter(2, time.Hour)
	h := middleware.RateLimiter(local, quiet)(http.HandlerFunc(okHandler))

	assert.Equal(t, http.StatusNoContent, serve(h, "10.0.0.1:1").Code)
	assert.Equal(t, http.StatusNoContent, serve(h, "10.0.0.1:2").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(h, "10.0.0.1:3").Code)
	assert.Equal(t, http.StatusNoContent, serve(h, "10.0.0.9:1").Code)

	local.Cleanup(0)
	assert.Equal(t, http.StatusNoContent, serve(h, "10.0.0.1:4").Code)
}
