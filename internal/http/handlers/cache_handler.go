// Response-cache HTTP handlers.
//
//   - GET  /cache/stats    (entry count, hits, savings estimate)
//   - POST /cache/cleanup  (evict stale cache entries and processed queue rows)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CacheStats godoc
// @ID          cacheStats
// @Summary     Response cache statistics
// @Description Returns cache size, accumulated hit count, and the estimated money saved by answering without live AI calls.
// @Tags        Cache
// @Produce     json
//
// @Success     200  {object} services.CacheReport
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /cache/stats [get]
func (h *Handlers) CacheStats(c *gin.Context) {
	report, err := h.maint.CacheStats(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, report)
}

// CleanupCache godoc
// @ID          cleanupCache
// @Summary     Evict stale rows
// @Description Removes cache entries unused past the retention window and processed queue rows older than it.
// @Tags        Cache
// @Produce     json
//
// @Success     200  {object} services.CleanupResult
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /cache/cleanup [post]
func (h *Handlers) CleanupCache(c *gin.Context) {
	res, err := h.maint.Cleanup(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeCleanupFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, res)
}
