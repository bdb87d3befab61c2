package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	emailConfigured func() bool
}

// NewHealthHandler creates the health handler. emailConfigured is evaluated
// on every request.
func NewHealthHandler(emailConfigured func() bool) *HealthHandler {
	return &HealthHandler{
		emailConfigured: emailConfigured,
	}
}

func (h *HealthHandler) Healthcheck(c *gin.Context) {
	c.Header("Cache-Control", "no-cache, no-store, max-age=0, must-revalidate")

	email := "not_configured"
	if h.emailConfigured() {
		email = "configured"
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"email":  email,
	})
}
