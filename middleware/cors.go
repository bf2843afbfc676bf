package middleware

import (
	"slices"
	"strings"
	"time"

	"taxi-insights-api/config"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const preflightMaxAge = time.Hour

// SetupCORS allows the dashboard's read-only requests. An empty origin list,
// or one containing "*", allows every origin.
func SetupCORS(cfg config.CORSConfig) gin.HandlerFunc {
	return cors.New(corsConfig(parseOrigins(cfg.AllowedOrigins)))
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods: []string{"GET", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       preflightMaxAge,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
	}
	return c
}

func parseOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" && !slices.Contains(origins, o) {
			origins = append(origins, o)
		}
	}
	return origins
}
