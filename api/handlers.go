package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/morikuni/failure/v2"
	"go.uber.org/zap"

	"github.com/seo-optimizer/metacheck/fetcher"
	"github.com/seo-optimizer/metacheck/inspector"
	"github.com/seo-optimizer/metacheck/logging"
	"github.com/seo-optimizer/metacheck/middleware"
)

// CodeInvalidRequest is reported for request bodies that do not bind.
const CodeInvalidRequest = "InvalidRequest"

const msgAnalysisFailed = "Failed to analyze the website. Please try again later."

type handler struct {
	inspector *inspector.Inspector
	stats     *logging.Statistics
	logger    *zap.Logger
	devMode   bool
}

type analyzeRequest struct {
	URL string `json:"url" binding:"required"`
	// HTML, when set, is analyzed instead of fetching URL.
	HTML string `json:"html"`
}

func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

func (h *handler) analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: a JSON body with a url field is required",
			"code":  CodeInvalidRequest,
		})
		return
	}
	req.URL = strings.TrimSpace(req.URL)
	c.Set(middleware.TargetKey, req.URL)

	if req.HTML != "" {
		u, err := fetcher.ValidateURL(req.URL)
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, h.inspector.InspectHTML(u.String(), req.HTML))
		return
	}

	report, err := h.inspector.Inspect(c.Request.Context(), req.URL)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// fail writes a classified error. The message is the user-facing text
// attached to the error.
func (h *handler) fail(c *gin.Context, err error) {
	code := fetcher.CodeOf(err)
	message := msgAnalysisFailed
	if msg := failure.MessageOf(err); msg != "" {
		message = msg.String()
	}

	status := StatusFor(code)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	h.logger.Debug("Analysis failed",
		zap.String("code", string(code)),
		zap.Int("status", status),
		zap.Error(err))

	body := gin.H{"error": message}
	if code != "" {
		body["code"] = string(code)
	}
	c.JSON(status, body)
}

// StatusFor maps a fetch error code to an HTTP status.
func StatusFor(code fetcher.ErrorCode) int {
	switch code {
	case fetcher.ErrInvalidURL:
		return http.StatusBadRequest
	case fetcher.ErrNotFound:
		return http.StatusNotFound
	case fetcher.ErrForbidden:
		return http.StatusForbidden
	case fetcher.ErrRateLimited:
		return http.StatusTooManyRequests
	case fetcher.ErrNetwork, fetcher.ErrFetchFailed:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (h *handler) statistics(c *gin.Context) {
	c.JSON(http.StatusOK, h.stats.GetStatistics(h.devMode))
}

func (h *handler) cacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.inspector.CacheStats())
}

func (h *handler) clearCache(c *gin.Context) {
	n := h.inspector.ClearCache()
	h.logger.Info("Report cache cleared", zap.Int("entries", n))
	c.JSON(http.StatusOK, gin.H{"cleared": n})
}
