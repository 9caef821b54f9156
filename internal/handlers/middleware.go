package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const apiPrefix = "/api/"

// corsMiddleware lets the one configured origin call /api. Preflight
// requests are answered here with an empty 200.
func (h *Handler) corsMiddleware(c *gin.Context) {
	if !strings.HasPrefix(c.Request.URL.Path, apiPrefix) {
		c.Next()
		return
	}

	if origin := c.GetHeader("Origin"); origin != "" && origin == h.allowedOrigin {
		hdr := c.Writer.Header()
		hdr.Set("Access-Control-Allow-Origin", origin)
		hdr.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		hdr.Set("Access-Control-Allow-Headers", "Content-Type")
		hdr.Add("Vary", "Origin")
	}

	if c.Request.Method == http.MethodOptions {
		c.AbortWithStatus(http.StatusOK)
		return
	}
	c.Next()
}

// checkOrigin accepts non-browser clients (no Origin header) and the configured origin.
func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	return origin == "" || origin == h.allowedOrigin
}

func (h *Handler) requestLogger(c *gin.Context) {
	start := time.Now()
	c.Next()
	if h.log == nil {
		return
	}
	h.log.Debugw("http_request",
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"status", c.Writer.Status(),
		"latency", time.Since(start),
	)
}
