package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/demandcast/backend-go/internal/config"
	"github.com/demandcast/backend-go/internal/domain"
	"github.com/demandcast/backend-go/internal/forecast"
	"github.com/demandcast/backend-go/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoPredictor struct{}

func (echoPredictor) Predict(_ context.Context, _ string, history []float64) (float64, error) {
	if len(history) == 0 {
		return 0, nil
	}
	return history[len(history)-1], nil
}

const handlerCSV = `Product_ID,Product_Name,Category,Week,Sales_Quantity,Price
A,Chips,Snacks,1/1/2024,10,2.50
A,Chips,Snacks,8/1/2024,12,2.50
`

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)

	orchestrator := forecast.NewOrchestrator(echoPredictor{}, forecast.Config{WorkerCount: 1})
	svc := service.NewForecastService(orchestrator, nil, nil, nil, config.ForecastConfig{})
	handler := NewForecastHandler(svc, 4)

	router := gin.New()
	router.POST("/forecast", handler.Forecast)
	router.POST("/forecast/download", handler.Download)
	return router
}

func multipartUpload(t *testing.T, fields map[string]string, filename, content string) (*bytes.Buffer, string) {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)

	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	require.NoError(t, writer.Close())

	return &body, writer.FormDataContentType()
}

func TestForecastEndpoint(t *testing.T) {
	router := newTestRouter()
	body, contentType := multipartUpload(t, map[string]string{"horizon": "2"}, "sales.csv", handlerCSV)

	req := httptest.NewRequest(http.MethodPost, "/forecast", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp domain.ForecastResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Products)
	assert.Equal(t, 2, resp.Horizon)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "A", resp.Data[0].ProductID)
	assert.Equal(t, []int{12, 12}, resp.Data[0].ForecastedSales)
}

func TestForecastEndpointMissingFile(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodPost, "/forecast", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestForecastEndpointBadHorizon(t *testing.T) {
	router := newTestRouter()

	for _, horizon := range []string{"abc", "0", "13"} {
		body, contentType := multipartUpload(t, map[string]string{"horizon": horizon}, "sales.csv", handlerCSV)

		req := httptest.NewRequest(http.MethodPost, "/forecast", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code, "horizon %q", horizon)
	}
}

func TestForecastEndpointBadSchema(t *testing.T) {
	router := newTestRouter()
	body, contentType := multipartUpload(t, nil, "sales.csv", "foo,bar\n1,2\n")

	req := httptest.NewRequest(http.MethodPost, "/forecast", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)

	var out struct {
		Error          string   `json:"error"`
		MissingColumns []string `json:"missing_columns"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Contains(t, out.Error, "missing required columns")
	assert.NotEmpty(t, out.MissingColumns)
}

func TestDownloadEndpoint(t *testing.T) {
	router := newTestRouter()
	body, contentType := multipartUpload(t, map[string]string{"horizon": "1"}, "sales.csv", handlerCSV)

	req := httptest.NewRequest(http.MethodPost, "/forecast/download", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "forecast.csv")
	assert.Contains(t, w.Body.String(), "Product_ID,Product_Name")
	assert.Contains(t, w.Body.String(), "A,Chips,Snacks")
}
