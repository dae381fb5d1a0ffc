package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/seo-optimizer/metacheck/logging"
)

// TargetKey is the context key under which the analyze handler stores the
// analyzed URL.
const TargetKey = "metacheck.target"

// persistEvery controls how often statistics are saved, in analysis requests.
const persistEvery = 100

// Stats tracks visitors for every request and analysis requests for routes
// that set TargetKey.
func Stats(stats *logging.Statistics, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		start := time.Now()

		stats.TrackVisitor(c.ClientIP())

		c.Next()

		if c.Request.Method != http.MethodPost {
			return
		}
		target, ok := c.Get(TargetKey)
		if !ok {
			return
		}

		loadTime := float64(time.Since(start).Milliseconds())
		total := stats.TrackAnalysis(target.(string), loadTime, c.Writer.Status() >= 400)

		if total%persistEvery == 0 {
			go func() {
				if err := stats.Save(); err != nil {
					logger.Warn("Failed to save request statistics", zap.Error(err))
				}
			}()
		}
	}
}
