package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// ParseLimit reads ?limit=. Missing, malformed or non-positive values fall
// back to DefaultLimit and larger values are capped at MaxLimit.
func ParseLimit(c *gin.Context) int {
	limit := DefaultLimit
	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return limit
}
