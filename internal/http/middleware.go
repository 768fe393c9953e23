package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kidopedia/kidopedia/internal/logger"
)

// RequestLogger logs every request and any errors handlers attached to it.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	log = logger.OrNop(log).With("component", "http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		kv := []interface{}{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		}
		for _, e := range c.Errors {
			log.Error("request error", append(kv, "context", e.Meta, "error", e.Err)...)
		}
		log.Debug("request", kv...)
	}
}
