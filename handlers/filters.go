package handlers

import (
	"taxi-insights-api/filters"

	"github.com/gin-gonic/gin"
)

// ParseFilters reads the day, time and month query parameters. Unknown or
// out-of-range values leave their dimension unconstrained.
func ParseFilters(c *gin.Context) filters.Spec {
	return filters.Normalize(c.Query("day"), c.Query("time"), c.Query("month"))
}

// list keeps empty results serialized as [] rather than null.
func list[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}
