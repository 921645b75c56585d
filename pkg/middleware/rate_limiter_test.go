package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLimitedEcho(rl *RateLimiter, userID string) *echo.Echo {
	e := echo.New()
	if userID != "" {
		e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				c.Set("user_id", userID)
				return next(c)
			}
		})
	}
	e.Use(rl.RateLimitMiddleware())
	e.GET("/usage", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	return e
}

func doRequest(e *echo.Echo, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/usage", nil)
	req.Header.Set(echo.HeaderXRealIP, ip)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiter_AllowsBurstThenBlocks(t *testing.T) {
	rl := NewRateLimiter(1, 3, nil)
	defer rl.Stop()
	e := newLimitedEcho(rl, "")

	for i := 0; i < 3; i++ {
		rec := doRequest(e, "10.0.0.1")
		require.Equal(t, http.StatusOK, rec.Code, "request %d should pass", i+1)
	}

	rec := doRequest(e, "10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "rate_limit_exceeded")
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}

func TestRateLimiter_SeparateIPs(t *testing.T) {
	rl := NewRateLimiter(1, 1, nil)
	defer rl.Stop()
	e := newLimitedEcho(rl, "")

	assert.Equal(t, http.StatusOK, doRequest(e, "10.0.0.1").Code)
	assert.Equal(t, http.StatusTooManyRequests, doRequest(e, "10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, doRequest(e, "10.0.0.2").Code)
	assert.Equal(t, 2, rl.Visitors())
}

func TestRateLimiter_UserKeyIgnoresIP(t *testing.T) {
	rl := NewRateLimiter(1, 1, UserOrIPKey("user_id"))
	defer rl.Stop()
	e := newLimitedEcho(rl, "user-1")

	assert.Equal(t, http.StatusOK, doRequest(e, "10.0.0.1").Code)
	// same user from another address shares the bucket
	assert.Equal(t, http.StatusTooManyRequests, doRequest(e, "10.0.0.2").Code)
}

func TestUserOrIPKey(t *testing.T) {
	e := echo.New()
	key := UserOrIPKey("user_id")

	tests := []struct {
		name   string
		userID interface{}
		want   string
	}{
		{"authenticated", "user-1", "user:user-1"},
		{"empty id falls back", "", "ip:10.0.0.9"},
		{"wrong type falls back", 42, "ip:10.0.0.9"},
		{"anonymous", nil, "ip:10.0.0.9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(echo.HeaderXRealIP, "10.0.0.9")
			c := e.NewContext(req, httptest.NewRecorder())
			if tt.userID != nil {
				c.Set("user_id", tt.userID)
			}
			assert.Equal(t, tt.want, key(c))
		})
	}
}

func TestRateLimiter_PruneDropsFullBuckets(t *testing.T) {
	rl := NewRateLimiter(60, 5, nil)
	defer rl.Stop()

	rl.GetLimiter("ip:idle")
	busy := rl.GetLimiter("ip:busy")
	for i := 0; i < 5; i++ {
		busy.Allow()
	}

	rl.prune()

	assert.Equal(t, 1, rl.Visitors())
}

func TestRateLimiter_StopTwice(t *testing.T) {
	rl := NewRateLimiter(60, 5, nil)
	rl.Stop()
	assert.NotPanics(t, rl.Stop)
}

func TestRateLimiter_SkippedPathUsesOnlyRouteLimiter(t *testing.T) {
	global := NewRateLimiter(10, 10, nil)
	defer global.Stop()
	webhook := NewRateLimiter(100, 20, nil)
	defer webhook.Stop()

	e := echo.New()
	e.Use(global.RateLimitMiddlewareWithSkipper(SkipPaths("/subscriptions/webhook")))
	e.POST("/subscriptions/webhook", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]bool{"received": true})
	}, webhook.RateLimitMiddleware())
	e.GET("/usage", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	codes := map[int]int{}
	for i := 0; i < 20; i++ {
		req := httptest.NewRequest(http.MethodPost, "/subscriptions/webhook", nil)
		req.Header.Set(echo.HeaderXRealIP, "54.187.174.169")
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		codes[rec.Code]++
	}
	assert.Equal(t, map[int]int{http.StatusOK: 20}, codes)
	assert.Equal(t, 0, global.Visitors())

	for i := 0; i < 10; i++ {
		require.Equal(t, http.StatusOK, doRequest(e, "54.187.174.169").Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, doRequest(e, "54.187.174.169").Code)
}

func TestSkipPaths(t *testing.T) {
	e := echo.New()
	skip := SkipPaths("/subscriptions/webhook", "/health")

	for path, want := range map[string]bool{
		"/subscriptions/webhook":  true,
		"/health":                 true,
		"/subscriptions/checkout": false,
		"/":                       false,
	} {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, path, nil), httptest.NewRecorder())
		assert.Equal(t, want, skip(c), path)
	}
}
