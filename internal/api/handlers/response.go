package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// Response is the common envelope for every endpoint.
type Response struct {
	Status    string      `json:"status"`
	Timestamp string      `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
}

func respondSuccess(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, Response{
		Status:    "success",
		Timestamp: time.Now().Format(time.RFC3339),
		Data:      data,
	})
}

func respondError(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Response{
		Status:    "error",
		Timestamp: time.Now().Format(time.RFC3339),
		Error:     message,
	})
}

// clampInt bounds a query parameter instead of rejecting it.
func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// Display rounding goes through decimal so serialized rates do not
// pick up float artifacts (4.0500000000000007 and friends).
func round3(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(3).Float64()
	return f
}

func round1(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(1).Float64()
	return f
}
