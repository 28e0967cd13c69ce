package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nithish2321/EntraceEase/internal/config"
	"github.com/nithish2321/EntraceEase/internal/utils"
)

const secret = "test-secret"

func ok(c echo.Context) error { return c.String(http.StatusOK, "ok") }

func serve(t *testing.T, h echo.HandlerFunc, authz string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/thing", nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	require.NoError(t, h(c))
	return rec
}

func bearer(t *testing.T, role, scope string) string {
	t.Helper()
	tok, err := utils.NewAccessToken(secret, "u1", role, scope, 5)
	require.NoError(t, err)
	return "Bearer " + tok.Token
}

func TestJWTAuth(t *testing.T) {
	h := JWTAuth(secret)(func(c echo.Context) error {
		assert.Equal(t, "u1", c.Get(CtxUserID))
		assert.Equal(t, utils.RoleCollege, Role(c))
		assert.Equal(t, "college-1", ScopeID(c))
		return ok(c)
	})

	assert.Equal(t, http.StatusUnauthorized, serve(t, h, "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(t, h, "Bearer not-a-token").Code)

	other, err := utils.NewAccessToken("other", "u1", utils.RoleCollege, "college-1", 5)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, serve(t, h, "Bearer "+other.Token).Code)

	assert.Equal(t, http.StatusOK, serve(t, h, bearer(t, utils.RoleCollege, "college-1")).Code)
}

func TestRequireRole(t *testing.T) {
	chain := func(roles ...string) echo.HandlerFunc {
		return JWTAuth(secret)(RequireRole(roles...)(ok))
	}

	tests := []struct {
		name  string
		allow []string
		role  string
		scope string
		want  int
	}{
		{"admin allowed", []string{utils.RoleAdmin}, utils.RoleAdmin, "", http.StatusOK},
		{"college allowed", []string{utils.RoleCollege}, utils.RoleCollege, "c1", http.StatusOK},
		{"wrong role", []string{utils.RoleAdmin}, utils.RoleCollege, "c1", http.StatusForbidden},
		{"college without scope", []string{utils.RoleCollege}, utils.RoleCollege, "", http.StatusForbidden},
		{"test center without scope", []string{utils.RoleTestCenter}, utils.RoleTestCenter, "", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, chain(tt.allow...), bearer(t, tt.role, tt.scope))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestCacheAndRateLimitPassThroughWithoutRedis(t *testing.T) {
	cache := NewRedisCache(config.CacheConfig{Enabled: true, Methods: map[string]bool{"GET": true}}, nil)
	limit := NewTokenBucket(config.RateLimitConfig{Enabled: true, Capacity: 1}, nil, nil)

	for i := 0; i < 3; i++ {
		rec := serve(t, limit(cache(ok)), "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("X-Cache"))
		assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
	}

	purger := NewCachePurger(config.CacheConfig{Enabled: true}, nil)
	assert.Nil(t, purger)
	assert.NoError(t, purger.Invalidate(context.Background()))
}

func TestBuildRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/bookings", nil)
	req.Header.Set(echo.HeaderXRealIP, "10.0.0.1")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/bookings")

	cfg := config.RateLimitConfig{Prefix: "rl"}
	for strategy, want := range map[string]string{
		"ip":             "rl:ip:10.0.0.1",
		"scope":          "rl:scope:anon",
		"scope_route":    "rl:scope:anon:route:POST /v1/bookings",
		"ip_scope_route": "rl:ip:10.0.0.1:scope:anon:route:POST /v1/bookings",
	} {
		cfg.KeyStrategy = strategy
		assert.Equal(t, want, buildRateKey(cfg, c), strategy)
	}

	c.Set(CtxUserID, "u9")
	cfg.KeyStrategy = "scope"
	assert.Equal(t, "rl:scope:u9", buildRateKey(cfg, c))
	c.Set(CtxScopeID, "college-7")
	assert.Equal(t, "rl:scope:college-7", buildRateKey(cfg, c))
}

func TestCachePayload(t *testing.T) {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	bs, err := encodePayload(http.StatusOK, h, []byte(`{"items":[]}`))
	require.NoError(t, err)

	status, hdr, body, okay := decodePayload(bs)
	require.True(t, okay)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "application/json", hdr.Get("Content-Type"))
	assert.Equal(t, `{"items":[]}`, string(body))

	_, _, _, okay = decodePayload([]byte{0, 1})
	assert.False(t, okay)
}
