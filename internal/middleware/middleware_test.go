package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/time/rate"
)

func init() {
	// Set Gin to test mode
	gin.SetMode(gin.TestMode)
}

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func serve(router http.Handler, method, path string, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRateLimiter_RejectsAfterBurst(t *testing.T) {
	limiter := NewRateLimiter("contact", rate.Every(time.Hour), 2)
	router := gin.New()
	router.POST("/api/contact", limiter.Middleware(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	assert.Equal(t, http.StatusOK, serve(router, "POST", "/api/contact", "", nil).Code)
	assert.Equal(t, http.StatusOK, serve(router, "POST", "/api/contact", "", nil).Code)

	w := serve(router, "POST", "/api/contact", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.JSONEq(t, `{"success":false,"error":"Rate limit exceeded. Please try again later."}`, w.Body.String())
	assert.Equal(t, 1, limiter.Visitors())
}

func TestRateLimiter_TracksClientsSeparately(t *testing.T) {
	limiter := NewRateLimiter("contact", rate.Every(time.Hour), 1)
	router := gin.New()
	router.POST("/api/contact", limiter.Middleware(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	send := func(ip string) int {
		req := httptest.NewRequest("POST", "/api/contact", nil)
		req.RemoteAddr = ip + ":12345"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send("192.0.2.1"))
	assert.Equal(t, http.StatusOK, send("192.0.2.2"))
	assert.Equal(t, http.StatusTooManyRequests, send("192.0.2.1"))
	assert.Equal(t, 2, limiter.Visitors())
}

func TestRateLimiter_ZeroRateDisabled(t *testing.T) {
	limiter := NewRateLimiter("contact", 0, 0)
	router := gin.New()
	router.POST("/api/contact", limiter.Middleware(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for i := 0; i < 10; i++ {
		assert.Equal(t, http.StatusOK, serve(router, "POST", "/api/contact", "", nil).Code)
	}
	assert.Equal(t, 0, limiter.Visitors())
}

func TestRateLimiter_RunCleanupStopsOnCancel(t *testing.T) {
	limiter := NewRateLimiter("contact", 1, 1)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		limiter.RunCleanup(ctx, time.Millisecond)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunCleanup did not return after cancel")
	}
}

func TestSecurityHeaders(t *testing.T) {
	tests := []struct {
		name       string
		production bool
		wantHSTS   bool
	}{
		{"development", false, false},
		{"production", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(SecurityHeadersMiddleware(tt.production))
			router.GET("/api/healthcheck", func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			w := serve(router, "GET", "/api/healthcheck", "", nil)

			assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
			assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
			assert.Contains(t, w.Header().Get("Content-Security-Policy"), "default-src 'none'")
			assert.Contains(t, w.Header().Get("Cache-Control"), "no-store")
			assert.Equal(t, tt.wantHSTS, w.Header().Get("Strict-Transport-Security") != "")
		})
	}
}

func TestBodySizeLimit(t *testing.T) {
	newRouter := func() *gin.Engine {
		router := gin.New()
		router.POST("/api/contact", BodySizeLimitMiddleware(16), func(c *gin.Context) {
			data, err := io.ReadAll(c.Request.Body)
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				c.Status(http.StatusRequestEntityTooLarge)
				return
			}
			c.String(http.StatusOK, "%d", len(data))
		})
		return router
	}

	t.Run("within limit", func(t *testing.T) {
		w := serve(newRouter(), "POST", "/api/contact", `{"a":"b"}`, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "9", w.Body.String())
	})

	t.Run("declared length over limit", func(t *testing.T) {
		w := serve(newRouter(), "POST", "/api/contact", strings.Repeat("x", 32), nil)
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.JSONEq(t, `{"success":false,"error":"Request body too large"}`, w.Body.String())
	})

	t.Run("undeclared length over limit", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/contact", strings.NewReader(strings.Repeat("x", 32)))
		req.ContentLength = -1
		w := httptest.NewRecorder()
		newRouter().ServeHTTP(w, req)
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})

	t.Run("get skipped", func(t *testing.T) {
		router := gin.New()
		router.GET("/api/contact", BodySizeLimitMiddleware(16), func(c *gin.Context) {
			c.Status(http.StatusNoContent)
		})
		assert.Equal(t, http.StatusNoContent, serve(router, "GET", "/api/contact", "", nil).Code)
	})

	t.Run("non-positive uses default", func(t *testing.T) {
		router := gin.New()
		router.POST("/api/contact", BodySizeLimitMiddleware(0), func(c *gin.Context) {
			c.Status(http.StatusOK)
		})
		w := serve(router, "POST", "/api/contact", strings.Repeat("x", 1024), nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestObservability_AssignsRequestID(t *testing.T) {
	router := gin.New()
	router.Use(ObservabilityMiddleware("/api/healthcheck"))
	var seen string
	router.POST("/api/contact", func(c *gin.Context) {
		seen = RequestID(c)
		c.Status(http.StatusOK)
	})

	w := serve(router, "POST", "/api/contact", "", nil)

	require.NotEmpty(t, seen)
	assert.Equal(t, seen, w.Header().Get(RequestIDHeader))
}

func TestObservability_KeepsUpstreamRequestID(t *testing.T) {
	router := gin.New()
	router.Use(ObservabilityMiddleware())
	router.POST("/api/contact", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := serve(router, "POST", "/api/contact", "", map[string]string{RequestIDHeader: "edge-42"})

	assert.Equal(t, "edge-42", w.Header().Get(RequestIDHeader))
}

func TestObservability_SkipsListedPaths(t *testing.T) {
	router := gin.New()
	router.Use(ObservabilityMiddleware("/api/healthcheck"))
	router.GET("/api/healthcheck", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := serve(router, "GET", "/api/healthcheck", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get(RequestIDHeader))
}
