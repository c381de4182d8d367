package handlers

import (
	"net/http"
	"strconv"

	"github.com/demandcast/backend-go/internal/service"
	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	service *service.ReportService
}

func NewReportHandler(service *service.ReportService) *ReportHandler {
	return &ReportHandler{service: service}
}

// GetReport handles GET /report: the aggregated view of the latest batch.
func (h *ReportHandler) GetReport(c *gin.Context) {
	payload, err := h.service.Report(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build report"})
		return
	}
	c.JSON(http.StatusOK, payload)
}

// GetAlerts handles GET /alerts: the full alert backlog, newest first.
func (h *ReportHandler) GetAlerts(c *gin.Context) {
	alerts, err := h.service.Alerts(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load alerts"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(alerts), "data": alerts})
}

// GetForecasts handles GET /forecasts?limit=N: recent persisted rows.
func (h *ReportHandler) GetForecasts(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	rows, err := h.service.Forecasts(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load forecasts"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(rows), "data": rows})
}
