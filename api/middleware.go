package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"stock-lookup/logging"
)

const requestIDHeader = "X-Request-ID"

// requestID reuses the caller's X-Request-ID or mints one, and carries it
// in the request context for downstream loggers.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rqID := c.GetHeader(requestIDHeader)
		if rqID == "" {
			rqID = logging.NewRequestID()
		}
		c.Request = c.Request.WithContext(logging.WithRequestID(c.Request.Context(), rqID))
		c.Writer.Header().Set(requestIDHeader, rqID)
		c.Next()
	}
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logging.FromCtx(c.Request.Context(), logger).Info("http_request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("query", c.Request.URL.RawQuery),
			zap.Int("status", c.Writer.Status()),
			zap.String("ip", c.ClientIP()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

func cors(corsOrigin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		h := c.Writer.Header()
		h.Set("Vary", "Origin")
		h.Set("Access-Control-Allow-Headers", "Content-Type, "+requestIDHeader)
		h.Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		h.Set("Access-Control-Max-Age", "86400")
		if corsOrigin == "*" {
			h.Set("Access-Control-Allow-Origin", "*")
		} else if origin != "" && origin == corsOrigin {
			h.Set("Access-Control-Allow-Origin", corsOrigin)
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
