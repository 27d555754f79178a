package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/plopa1535/BF-Interestrate-DART/internal/database"
	"github.com/shirou/gopsutil/v3/mem"
)

var startTime = time.Now()

// HealthHandler reports service and dependency status.
type HealthHandler struct {
	redis   *database.RedisClient
	version string
}

func NewHealthHandler(redis *database.RedisClient, version string) *HealthHandler {
	return &HealthHandler{
		redis:   redis,
		version: version,
	}
}

// HealthCheck reports dependency health and basic process stats.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	services := make(map[string]string)

	if h.redis != nil {
		if err := h.redis.HealthCheck(c.Request.Context()); err != nil {
			services["redis"] = "unhealthy: " + err.Error()
		} else {
			services["redis"] = "healthy"
		}
	} else {
		services["redis"] = "unhealthy: not configured"
	}

	overallStatus := "healthy"
	for _, status := range services {
		if status != "healthy" {
			overallStatus = "degraded"
			break
		}
	}

	system := gin.H{"goroutines": runtime.NumGoroutine()}
	if memInfo, err := mem.VirtualMemoryWithContext(c.Request.Context()); err == nil {
		system["memory_used_percent"] = round1(memInfo.UsedPercent)
	}

	// Degraded dependencies are reported in the payload; the check
	// itself succeeded, so the envelope stays a 200 success.
	respondSuccess(c, http.StatusOK, gin.H{
		"service":  "Interest Rate Monitor API",
		"version":  h.version,
		"healthy":  overallStatus == "healthy",
		"services": services,
		"system":   system,
		"uptime":   time.Since(startTime).String(),
	})
}
