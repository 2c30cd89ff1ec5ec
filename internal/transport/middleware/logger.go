package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Logger records every pipeline API call once the handler has run. The
// route pattern is logged alongside the raw path so /generate/:name
// triggers aggregate per endpoint, not per asset.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		entry := logrus.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"route":   route,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start),
			"client":  c.ClientIP(),
		})

		switch {
		case c.Writer.Status() >= 500:
			entry.Error("Pipeline request failed")
		case c.Writer.Status() >= 400:
			entry.Warn("Pipeline request rejected")
		default:
			entry.Info("Pipeline request served")
		}
	}
}
