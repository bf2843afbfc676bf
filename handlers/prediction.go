package handlers

import (
	"net/http"

	"taxi-insights-api/analytics"

	"github.com/gin-gonic/gin"
)

func (h *InsightsHandler) GetPrediction(c *gin.Context) {
	origin, dest, err := analytics.ParseRoute(c.Query("from"), c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	est, err := h.svc.Predict(c.Request.Context(), origin, dest)
	if err != nil {
		queryFailed(c, err)
		return
	}
	c.JSON(http.StatusOK, est)
}
