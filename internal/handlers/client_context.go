package handlers

import (
	"strings"

	"github.com/0xobelisk/dubhe-website-sub001/internal/models"
	"github.com/gin-gonic/gin"
)

const unknownClient = "unknown"

// ClientContextFromRequest identifies the caller from proxy headers. The value
// is only logged, so the headers are taken at face value.
func ClientContextFromRequest(c *gin.Context) models.ClientContext {
	ip := ""
	if forwarded := c.GetHeader("X-Forwarded-For"); forwarded != "" {
		ip = strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	if ip == "" {
		ip = strings.TrimSpace(c.GetHeader("X-Real-IP"))
	}
	if ip == "" {
		ip = unknownClient
	}

	userAgent := c.GetHeader("User-Agent")
	if userAgent == "" {
		userAgent = unknownClient
	}

	return models.ClientContext{IP: ip, UserAgent: userAgent}
}
