package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/0xobelisk/dubhe-website-sub001/config"
	"github.com/0xobelisk/dubhe-website-sub001/internal/handlers"
	"github.com/0xobelisk/dubhe-website-sub001/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// countingService accepts every submission and counts the calls.
type countingService struct {
	calls atomic.Int32
}

func (s *countingService) SubmitContactForm(context.Context, map[string]any, models.ClientContext) (*models.ContactResponse, error) {
	s.calls.Add(1)
	return &models.ContactResponse{Success: true, ID: "dev-1", Outcome: models.OutcomeAcceptedDev}, nil
}

func newContactRouter(cfg *config.Config, service *countingService) *gin.Engine {
	router := gin.New()
	registerContactRoutes(router.Group("/api"), cfg, newContactRateLimiter(cfg), handlers.NewContactHandler(service))
	return router
}

func submit(router http.Handler) int {
	req := httptest.NewRequest(http.MethodPost, "/api/contact",
		strings.NewReader(`{"name":"Alice","email":"alice@example.com","subject":"general","message":"hi"}`))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "198.51.100.7:40000"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w.Code
}

func TestContactRoute_DefaultConfigDoesNotRateLimit(t *testing.T) {
	chdir(t, t.TempDir())
	cfg, err := config.Load()
	require.NoError(t, err)

	service := &countingService{}
	router := newContactRouter(cfg, service)

	const submissions = 20
	for i := 0; i < submissions; i++ {
		require.Equal(t, http.StatusOK, submit(router), "submission %d", i+1)
	}
	assert.Equal(t, int32(submissions), service.calls.Load())
}

func TestContactRoute_OptInRateLimit(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("CONTACT_RATE_LIMIT_RPS", "0.1")
	t.Setenv("CONTACT_RATE_LIMIT_BURST", "2")
	cfg, err := config.Load()
	require.NoError(t, err)

	service := &countingService{}
	router := newContactRouter(cfg, service)

	assert.Equal(t, http.StatusOK, submit(router))
	assert.Equal(t, http.StatusOK, submit(router))
	assert.Equal(t, http.StatusTooManyRequests, submit(router))
	assert.Equal(t, int32(2), service.calls.Load())
}

func TestContactRoute_VersionedAlias(t *testing.T) {
	chdir(t, t.TempDir())
	cfg, err := config.Load()
	require.NoError(t, err)

	service := &countingService{}
	router := gin.New()
	registerContactRoutes(router.Group("/api/v1"), cfg, newContactRateLimiter(cfg), handlers.NewContactHandler(service))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/contact", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int32(1), service.calls.Load())
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, added in Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}
