package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"

	"bandsync/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store     store.Store
	adminName string
	respCache *cache.Cache
}

// NewHandler creates a new API handler. The response cache is flushed after
// every successful mutation so reads observe writes promptly.
func NewHandler(s store.Store, adminName string, respCache *cache.Cache) *Handler {
	return &Handler{
		store:     s,
		adminName: adminName,
		respCache: respCache,
	}
}

// flushReadCache drops all cached GET responses.
func (h *Handler) flushReadCache() {
	if h.respCache != nil {
		h.respCache.Flush()
	}
}

// parseRange extracts the mandatory start/end RFC3339 query parameters.
func parseRange(c *gin.Context) (start, end time.Time, ok bool) {
	var err error
	start, err = time.Parse(time.RFC3339, c.Query("start"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid 'start' timestamp format. Use RFC3339."})
		return
	}
	end, err = time.Parse(time.RFC3339, c.Query("end"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid 'end' timestamp format. Use RFC3339."})
		return
	}
	if !start.Before(end) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "'start' must be before 'end'"})
		return
	}
	return start, end, true
}
