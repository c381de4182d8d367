package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/demandcast/backend-go/internal/cache"
	"github.com/demandcast/backend-go/internal/config"
	"github.com/demandcast/backend-go/internal/decision"
	"github.com/demandcast/backend-go/internal/domain"
	"github.com/demandcast/backend-go/internal/forecast"
	"github.com/demandcast/backend-go/internal/ingest"
	"github.com/demandcast/backend-go/internal/repository"
	"github.com/demandcast/backend-go/internal/storage"
	"github.com/rs/zerolog/log"
)

// ForecastService runs the upload-to-response pipeline: normalize, forecast,
// classify, persist. Persistence and archiving are side channels; their
// failures are logged but never fail the request.
type ForecastService struct {
	orchestrator *forecast.Orchestrator
	store        repository.ForecastStore
	cache        cache.ReportCache
	archive      storage.ObjectStorage
	storeTimeout time.Duration
}

func NewForecastService(
	orchestrator *forecast.Orchestrator,
	store repository.ForecastStore,
	cacheImpl cache.ReportCache,
	archive storage.ObjectStorage,
	cfg config.ForecastConfig,
) *ForecastService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopReportCache()
	}
	return &ForecastService{
		orchestrator: orchestrator,
		store:        store,
		cache:        cacheImpl,
		archive:      archive,
		storeTimeout: cfg.StoreTimeout,
	}
}

// RunForecast executes one forecast run over an uploaded file. The horizon is
// validated before the upload is read, so an out-of-range request does no work.
func (s *ForecastService) RunForecast(ctx context.Context, upload io.Reader, filename string, horizon int) (*domain.ForecastResponse, error) {
	if horizon < forecast.MinHorizon || horizon > forecast.MaxHorizon {
		return nil, &domain.RangeError{Horizon: horizon, Min: forecast.MinHorizon, Max: forecast.MaxHorizon}
	}

	raw, err := io.ReadAll(upload)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}

	s.archiveUpload(raw, filename)

	series, err := ingest.Normalize(bytes.NewReader(raw), filename)
	if err != nil {
		return nil, err
	}

	results, err := s.orchestrator.Run(ctx, series, horizon)
	if err != nil {
		return nil, err
	}

	resp := buildResponse(results, horizon)
	s.persistRun(ctx, results)

	return resp, nil
}

func buildResponse(results []forecast.Result, horizon int) *domain.ForecastResponse {
	data := make([]domain.ProductForecast, 0, len(results))
	for _, r := range results {
		last := r.Series.LastRow()

		data = append(data, domain.ProductForecast{
			ProductID:            r.Series.ProductID,
			ProductName:          last.ProductName,
			Category:             last.Category,
			Price:                last.Price,
			TrendSymbol:          forecast.Trend(r.Extended),
			LastWeek:             last.Week.Format("2006-01-02"),
			LastWeekSales:        int(math.Round(last.Sales)),
			ForecastedSales:      r.Final,
			ForecastedRevenue:    forecast.Revenue(r.Final, last.Price),
			FinalForecastedSales: r.Final,
		})
	}

	return &domain.ForecastResponse{
		Products: len(data),
		Horizon:  horizon,
		Data:     data,
	}
}

// persistRun stores the batch and its alerts. Forecast rows commit first;
// alerts second. A failure after the first commit leaves forecasts without
// alerts, which the report tolerates.
func (s *ForecastService) persistRun(ctx context.Context, results []forecast.Result) {
	if s.store == nil {
		return
	}

	var (
		rows   []domain.ForecastRow
		alerts []domain.Alert
	)
	for _, r := range results {
		last := r.Series.LastRow()
		// Stored values are the rounded display units, same as the response;
		// the unrounded values exist only inside the autoregressive loop.
		for _, v := range r.Final {
			rows = append(rows, domain.ForecastRow{
				ProductID:     r.Series.ProductID,
				Value:         float64(v),
				Category:      last.Category,
				LastWeekSales: last.Sales,
			})
		}
		alerts = append(alerts, decision.Analyze(r.Series.ProductID, last.Category, float64(r.Final[0]), last.Sales))
	}

	storeCtx := context.WithoutCancel(ctx)
	if s.storeTimeout > 0 {
		var cancel context.CancelFunc
		storeCtx, cancel = context.WithTimeout(storeCtx, s.storeTimeout)
		defer cancel()
	}

	if err := s.store.BulkInsertForecasts(storeCtx, rows); err != nil {
		log.Error().Err(err).Int("rows", len(rows)).Msg("failed to persist forecast batch")
		return
	}

	if err := s.store.BulkInsertAlerts(storeCtx, alerts); err != nil {
		// Partial write: the batch exists without its alerts.
		log.Error().Err(err).Int("alerts", len(alerts)).Msg("forecasts persisted but alerts failed")
	}

	if err := s.cache.Invalidate(storeCtx); err != nil {
		log.Warn().Err(err).Msg("failed to invalidate report cache")
	}
}

func (s *ForecastService) archiveUpload(data []byte, filename string) {
	if s.archive == nil {
		return
	}

	key := fmt.Sprintf("uploads/%s/%s", time.Now().UTC().Format("2006-01-02"), filename)
	contentType := "text/csv"
	if len(filename) > 5 && filename[len(filename)-5:] == ".xlsx" {
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.archive.UploadObject(ctx, key, data, contentType); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("failed to archive upload")
		}
	}()
}

// WriteCSV renders a forecast response as CSV, one row per product and
// horizon step.
func WriteCSV(w io.Writer, resp *domain.ForecastResponse) error {
	cw := csv.NewWriter(w)

	header := []string{
		"Product_ID", "Product_Name", "Category", "Price",
		"Trend_Symbol", "Last_Week", "Last_Week_Sales",
		"Week_Ahead", "Forecasted_Sales", "Forecasted_Revenue",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, p := range resp.Data {
		for i, units := range p.ForecastedSales {
			record := []string{
				p.ProductID,
				p.ProductName,
				p.Category,
				strconv.FormatFloat(p.Price, 'f', 2, 64),
				p.TrendSymbol,
				p.LastWeek,
				strconv.Itoa(p.LastWeekSales),
				strconv.Itoa(i + 1),
				strconv.Itoa(units),
				strconv.FormatFloat(p.ForecastedRevenue[i], 'f', 2, 64),
			}
			if err := cw.Write(record); err != nil {
				return fmt.Errorf("failed to write csv row: %w", err)
			}
		}
	}

	cw.Flush()
	return cw.Error()
}
