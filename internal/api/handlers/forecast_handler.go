package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/demandcast/backend-go/internal/domain"
	"github.com/demandcast/backend-go/internal/service"
	"github.com/gin-gonic/gin"
)

type ForecastHandler struct {
	service        *service.ForecastService
	defaultHorizon int
}

func NewForecastHandler(service *service.ForecastService, defaultHorizon int) *ForecastHandler {
	if defaultHorizon <= 0 {
		defaultHorizon = 4
	}
	return &ForecastHandler{service: service, defaultHorizon: defaultHorizon}
}

// Forecast handles POST /forecast: a multipart upload plus an optional
// horizon form field.
func (h *ForecastHandler) Forecast(c *gin.Context) {
	resp, ok := h.runForecast(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Download handles POST /forecast/download: the same run rendered as CSV.
func (h *ForecastHandler) Download(c *gin.Context) {
	resp, ok := h.runForecast(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := service.WriteCSV(&buf, resp); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render csv"})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="forecast.csv"`)
	c.Data(http.StatusOK, "text/csv", buf.Bytes())
}

func (h *ForecastHandler) runForecast(c *gin.Context) (*domain.ForecastResponse, bool) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file upload"})
		return nil, false
	}

	horizon := h.defaultHorizon
	if raw := c.PostForm("horizon"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid horizon %q", raw)})
			return nil, false
		}
		horizon = parsed
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to open upload"})
		return nil, false
	}
	defer file.Close()

	resp, err := h.service.RunForecast(c.Request.Context(), file, fileHeader.Filename, horizon)
	if err != nil {
		status, body := classifyForecastError(err)
		c.JSON(status, body)
		return nil, false
	}

	return resp, true
}

// classifyForecastError maps pipeline errors onto HTTP statuses: input
// problems are 400 with the validation detail, everything else is 500.
func classifyForecastError(err error) (int, gin.H) {
	var (
		schemaErr *domain.SchemaError
		dateErr   *domain.DateError
		rangeErr  *domain.RangeError
	)

	switch {
	case errors.As(err, &schemaErr):
		return http.StatusBadRequest, gin.H{"error": schemaErr.Error(), "missing_columns": schemaErr.MissingColumns}
	case errors.As(err, &dateErr):
		return http.StatusBadRequest, gin.H{"error": dateErr.Error()}
	case errors.As(err, &rangeErr):
		return http.StatusBadRequest, gin.H{"error": rangeErr.Error()}
	case errors.Is(err, domain.ErrNoValidProducts):
		return http.StatusBadRequest, gin.H{"error": err.Error()}
	default:
		return http.StatusInternalServerError, gin.H{"error": "forecast run failed"}
	}
}
