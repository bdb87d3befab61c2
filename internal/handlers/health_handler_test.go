package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestHealthHandler_Healthcheck(t *testing.T) {
	tests := []struct {
		name       string
		configured bool
		expected   string
	}{
		{name: "email configured", configured: true, expected: `{"status":"ok","email":"configured"}`},
		{name: "email not configured", configured: false, expected: `{"status":"ok","email":"not_configured"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHealthHandler(func() bool { return tt.configured })
			router := gin.New()
			router.GET("/healthcheck", handler.Healthcheck)

			w := httptest.NewRecorder()
			req := httptest.NewRequest("GET", "/healthcheck", http.NoBody)
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
			assert.Equal(t, "no-cache, no-store, max-age=0, must-revalidate", w.Header().Get("Cache-Control"))
			assert.JSONEq(t, tt.expected, w.Body.String())
		})
	}
}

func TestClientContextFromRequest(t *testing.T) {
	tests := []struct {
		name      string
		headers   map[string]string
		wantIP    string
		wantAgent string
	}{
		{
			name:      "first forwarded entry wins",
			headers:   map[string]string{"X-Forwarded-For": " 198.51.100.1 , 10.0.0.1", "X-Real-IP": "10.0.0.2", "User-Agent": "curl/8.0"},
			wantIP:    "198.51.100.1",
			wantAgent: "curl/8.0",
		},
		{
			name:      "real ip fallback",
			headers:   map[string]string{"X-Real-IP": "10.0.0.2"},
			wantIP:    "10.0.0.2",
			wantAgent: "unknown",
		},
		{
			name:      "nothing set",
			headers:   map[string]string{},
			wantIP:    "unknown",
			wantAgent: "unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest("POST", "/api/contact", http.NoBody)
			c.Request.Header.Del("User-Agent")
			for k, v := range tt.headers {
				c.Request.Header.Set(k, v)
			}

			got := ClientContextFromRequest(c)
			assert.Equal(t, tt.wantIP, got.IP)
			assert.Equal(t, tt.wantAgent, got.UserAgent)
		})
	}
}
