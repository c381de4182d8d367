package service

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/demandcast/backend-go/internal/config"
	"github.com/demandcast/backend-go/internal/domain"
	"github.com/demandcast/backend-go/internal/forecast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// naivePredictor echoes the last observed value.
type naivePredictor struct{}

func (naivePredictor) Predict(_ context.Context, _ string, history []float64) (float64, error) {
	if len(history) == 0 {
		return 0, nil
	}
	return history[len(history)-1], nil
}

const uploadCSV = `Product_ID,Product_Name,Category,Week,Sales_Quantity,Price
A,Chips,Snacks,1/1/2024,10,2.50
A,Chips,Snacks,8/1/2024,12,2.50
A,Chips,Snacks,15/1/2024,14,2.50
B,Cola,Beverages,1/1/2024,5,1.00
B,Cola,Beverages,8/1/2024,5,1.00
B,Cola,Beverages,15/1/2024,5,1.00
`

func newTestService() *ForecastService {
	orchestrator := forecast.NewOrchestrator(naivePredictor{}, forecast.Config{WorkerCount: 2})
	return NewForecastService(orchestrator, nil, nil, nil, config.ForecastConfig{})
}

func TestRunForecastEndToEnd(t *testing.T) {
	svc := newTestService()

	resp, err := svc.RunForecast(context.Background(), strings.NewReader(uploadCSV), "sales.csv", 2)
	require.NoError(t, err)

	assert.Equal(t, 2, resp.Products)
	assert.Equal(t, 2, resp.Horizon)
	require.Len(t, resp.Data, 2)

	a := resp.Data[0]
	assert.Equal(t, "A", a.ProductID)
	assert.Equal(t, "Chips", a.ProductName)
	assert.Equal(t, "Snacks", a.Category)
	assert.Equal(t, 2.50, a.Price)
	assert.Equal(t, "2024-01-15", a.LastWeek)
	assert.Equal(t, 14, a.LastWeekSales)
	assert.Equal(t, []int{14, 14}, a.ForecastedSales)
	assert.Equal(t, []int{14, 14}, a.FinalForecastedSales)
	assert.Equal(t, []float64{35.0, 35.0}, a.ForecastedRevenue)
	// The naive predictor repeats the last value, so the extended series is flat.
	assert.Equal(t, "→", a.TrendSymbol)

	b := resp.Data[1]
	assert.Equal(t, "B", b.ProductID)
	assert.Equal(t, []int{5, 5}, b.ForecastedSales)
	assert.Equal(t, []float64{5.0, 5.0}, b.ForecastedRevenue)
}

func TestRunForecastRejectsBadHorizon(t *testing.T) {
	svc := newTestService()

	_, err := svc.RunForecast(context.Background(), strings.NewReader(uploadCSV), "sales.csv", 0)

	var rangeErr *domain.RangeError
	require.ErrorAs(t, err, &rangeErr)
}

// countingReader tracks whether the upload body was ever consumed.
type countingReader struct {
	reads int
	inner io.Reader
}

func (r *countingReader) Read(p []byte) (int, error) {
	r.reads++
	return r.inner.Read(p)
}

func TestRunForecastValidatesHorizonBeforeReadingUpload(t *testing.T) {
	svc := newTestService()

	for _, horizon := range []int{0, -1, 13} {
		upload := &countingReader{inner: strings.NewReader(uploadCSV)}

		_, err := svc.RunForecast(context.Background(), upload, "sales.csv", horizon)

		var rangeErr *domain.RangeError
		require.ErrorAs(t, err, &rangeErr, "horizon %d", horizon)
		assert.Zero(t, upload.reads, "horizon %d: upload should not be read", horizon)
	}
}

// fractionalPredictor forces a forecast that rounds away from its raw value.
type fractionalPredictor struct{}

func (fractionalPredictor) Predict(context.Context, string, []float64) (float64, error) {
	return 120.4, nil
}

func TestPersistedValuesAreRoundedUnits(t *testing.T) {
	store := &fakeStore{}
	orchestrator := forecast.NewOrchestrator(fractionalPredictor{}, forecast.Config{WorkerCount: 1})
	svc := NewForecastService(orchestrator, store, nil, nil, config.ForecastConfig{})

	csvData := `Product_ID,Product_Name,Category,Week,Sales_Quantity,Price
A,Chips,Snacks,1/1/2024,100,2.00
`
	resp, err := svc.RunForecast(context.Background(), strings.NewReader(csvData), "sales.csv", 1)
	require.NoError(t, err)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, []int{120}, resp.Data[0].ForecastedSales)

	// The store sees the same rounded units the response shows.
	require.Len(t, store.forecasts, 1)
	assert.Equal(t, 120.0, store.forecasts[0].Forecast)

	// Classification runs on the rounded value: 120/100 sits exactly on the
	// restock boundary, which is exclusive.
	require.Len(t, store.alerts, 1)
	assert.Equal(t, 120.0, store.alerts[0].Forecast)
	assert.Equal(t, domain.DecisionHold, store.alerts[0].Decision)
	assert.Equal(t, domain.RiskLow, store.alerts[0].Risk)
	assert.Equal(t, "slightly upward, monitor", store.alerts[0].Message)
}

func TestRunForecastRejectsBadSchema(t *testing.T) {
	svc := newTestService()

	_, err := svc.RunForecast(context.Background(), strings.NewReader("foo,bar\n1,2\n"), "sales.csv", 2)

	var schemaErr *domain.SchemaError
	require.ErrorAs(t, err, &schemaErr)
}

func TestWriteCSV(t *testing.T) {
	svc := newTestService()
	resp, err := svc.RunForecast(context.Background(), strings.NewReader(uploadCSV), "sales.csv", 2)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, resp))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	// Header plus one row per product per horizon step.
	require.Len(t, lines, 5)
	assert.Equal(t, "Product_ID,Product_Name,Category,Price,Trend_Symbol,Last_Week,Last_Week_Sales,Week_Ahead,Forecasted_Sales,Forecasted_Revenue", lines[0])
	assert.Equal(t, "A,Chips,Snacks,2.50,→,2024-01-15,14,1,14,35.00", lines[1])
	assert.Equal(t, "B,Cola,Beverages,1.00,→,2024-01-15,5,2,5,5.00", lines[4])
}
