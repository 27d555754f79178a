package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// CacheClearer is implemented by every service that owns a Redis
// keyspace.
type CacheClearer interface {
	ClearCache(ctx context.Context) error
}

// CacheHandler wipes all service caches on demand.
type CacheHandler struct {
	clearers []CacheClearer
}

func NewCacheHandler(clearers ...CacheClearer) *CacheHandler {
	return &CacheHandler{clearers: clearers}
}

// ClearAll clears every registered cache namespace. A failing
// namespace does not stop the others.
func (h *CacheHandler) ClearAll(c *gin.Context) {
	failed := 0
	for _, clearer := range h.clearers {
		if err := clearer.ClearCache(c.Request.Context()); err != nil {
			logrus.WithError(err).Error("Cache clear failed")
			failed++
		}
	}

	if failed == len(h.clearers) && len(h.clearers) > 0 {
		respondError(c, http.StatusInternalServerError, "Failed to clear cache")
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{
		"message": "All caches cleared",
	})
}
