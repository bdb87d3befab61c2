package middleware

import (
	"net/http"

	"github.com/0xobelisk/dubhe-website-sub001/internal/models"
	"github.com/gin-gonic/gin"
)

// ErrMsgBodyTooLarge is returned with 413
const ErrMsgBodyTooLarge = "Request body too large"

// DefaultMaxBodyBytes bounds a contact submission: four short fields plus a
// message of at most 4000 characters of up to four bytes each.
const DefaultMaxBodyBytes int64 = 64 << 10

// BodySizeLimitMiddleware limits the size of request bodies
// SECURITY: Prevents denial-of-service attacks through oversized payloads
func BodySizeLimitMiddleware(maxBodySize int64) gin.HandlerFunc {
	if maxBodySize <= 0 {
		maxBodySize = DefaultMaxBodyBytes
	}

	return func(c *gin.Context) {
		// Skip for GET, HEAD, OPTIONS requests (no body)
		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead || c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		// Reject early when the client announces an oversized body
		if c.Request.ContentLength > maxBodySize {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, models.ContactResponse{
				Success: false,
				Error:   ErrMsgBodyTooLarge,
			})
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodySize)

		c.Next()
	}
}
