package handlers

import (
	"net/http"

	"taxi-insights-api/analytics"
	"taxi-insights-api/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type InsightsHandler struct {
	svc         *analytics.Service
	alerts      *services.AlertBus
	logger      *zap.Logger
	concurrency int
}

func NewInsightsHandler(svc *analytics.Service, alerts *services.AlertBus, logger *zap.Logger, concurrency int) *InsightsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InsightsHandler{svc: svc, alerts: alerts, logger: logger, concurrency: concurrency}
}

func (h *InsightsHandler) Register(r gin.IRoutes) {
	r.GET("/kpis", h.GetKPIs)
	r.GET("/peak-valley", h.GetPeakValley)
	r.GET("/hourly", h.GetHourly)
	r.GET("/zones", h.GetZones)
	r.GET("/histogram", h.GetHistogram)
	r.GET("/top-zones", h.GetTopZones)
	r.GET("/alert", h.GetAlert)
	r.GET("/predict", h.GetPrediction)
	r.GET("/dashboard", h.GetDashboard)
}

// queryFailed hides backend details from the client; the error itself is
// attached to the context for the access log.
func queryFailed(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
}

func (h *InsightsHandler) GetKPIs(c *gin.Context) {
	kpis, err := h.svc.Summary(c.Request.Context(), ParseFilters(c))
	if err != nil {
		queryFailed(c, err)
		return
	}
	c.JSON(http.StatusOK, kpis)
}

func (h *InsightsHandler) GetPeakValley(c *gin.Context) {
	stats, err := h.svc.PeakValley(c.Request.Context(), ParseFilters(c))
	if err != nil {
		queryFailed(c, err)
		return
	}
	c.JSON(http.StatusOK, list(stats))
}

func (h *InsightsHandler) GetHourly(c *gin.Context) {
	counts, err := h.svc.HourlyVolume(c.Request.Context(), ParseFilters(c))
	if err != nil {
		queryFailed(c, err)
		return
	}
	c.JSON(http.StatusOK, list(counts))
}

func (h *InsightsHandler) GetZones(c *gin.Context) {
	zones, err := h.svc.ZoneCounts(c.Request.Context(), ParseFilters(c))
	if err != nil {
		queryFailed(c, err)
		return
	}
	c.JSON(http.StatusOK, zones)
}

func (h *InsightsHandler) GetHistogram(c *gin.Context) {
	bins, err := h.svc.Histogram(c.Request.Context(), ParseFilters(c))
	if err != nil {
		queryFailed(c, err)
		return
	}
	c.JSON(http.StatusOK, list(bins))
}

func (h *InsightsHandler) GetTopZones(c *gin.Context) {
	zones, err := h.svc.TopZones(c.Request.Context(), ParseFilters(c))
	if err != nil {
		queryFailed(c, err)
		return
	}
	c.JSON(http.StatusOK, list(zones))
}

// GetAlert returns the demand hotspot and announces it on the alert bus.
// Publishing is best effort and never fails the request.
func (h *InsightsHandler) GetAlert(c *gin.Context) {
	spec := ParseFilters(c)
	hotspot, err := h.svc.Hotspot(c.Request.Context(), spec)
	if err != nil {
		queryFailed(c, err)
		return
	}
	if hotspot != nil {
		if err := h.alerts.PublishHotspot(c.Request.Context(), spec.String(), hotspot); err != nil {
			h.logger.Warn("hotspot publish failed", zap.Error(err))
		}
	}
	c.JSON(http.StatusOK, hotspot)
}

func (h *InsightsHandler) GetDashboard(c *gin.Context) {
	d := h.svc.Dashboard(c.Request.Context(), ParseFilters(c), h.concurrency)
	if len(d.Errors) > 0 {
		h.logger.Warn("dashboard partially failed", zap.Any("errors", d.Errors))
	}
	c.JSON(http.StatusOK, d)
}
