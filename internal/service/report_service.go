package service

import (
	"context"
	"time"

	"github.com/demandcast/backend-go/internal/cache"
	"github.com/demandcast/backend-go/internal/domain"
	"github.com/demandcast/backend-go/internal/report"
	"github.com/demandcast/backend-go/internal/repository"
	"github.com/rs/zerolog/log"
)

// ReportService reconstructs the latest-batch report from persisted rows.
type ReportService struct {
	store repository.ForecastStore
	cache cache.ReportCache
}

func NewReportService(store repository.ForecastStore, cacheImpl cache.ReportCache) *ReportService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopReportCache()
	}
	return &ReportService{store: store, cache: cacheImpl}
}

// Report aggregates the most recent batch. An empty store yields a zeroed
// payload with empty collections, not an error.
func (s *ReportService) Report(ctx context.Context) (*domain.ReportPayload, error) {
	if cached, ok, err := s.cache.GetReport(ctx); err == nil && ok {
		return cached, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("report: cache get failed")
	}

	ts, err := s.store.LatestBatchTimestamp(ctx)
	if err != nil {
		return nil, err
	}
	if ts == nil {
		empty := report.Aggregate(nil, nil, time.Time{})
		return &empty, nil
	}

	rows, err := s.store.ForecastsInWindow(ctx, *ts)
	if err != nil {
		return nil, err
	}

	alerts, err := s.store.AllAlerts(ctx)
	if err != nil {
		return nil, err
	}

	// The forecast row query tolerates a window around the anchor, but alert
	// membership is anchored at the batch timestamp itself: alerts commit
	// after their forecast rows, so the batch's own alerts are never older.
	payload := report.Aggregate(rows, alerts, *ts)

	if err := s.cache.SetReport(ctx, payload); err != nil {
		log.Warn().Err(err).Msg("report: cache set failed")
	}

	return &payload, nil
}

// Alerts returns the full alert backlog, newest first.
func (s *ReportService) Alerts(ctx context.Context) ([]domain.StoredAlert, error) {
	return s.store.AllAlerts(ctx)
}

// Forecasts returns the most recent persisted forecast rows.
func (s *ReportService) Forecasts(ctx context.Context, limit int) ([]domain.StoredForecast, error) {
	return s.store.RecentForecasts(ctx, limit)
}
