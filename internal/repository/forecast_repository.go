// internal/repository/forecast_repository.go
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/demandcast/backend-go/internal/domain"
	"github.com/demandcast/backend-go/internal/repository/postgres"
)

// ForecastStore is the durable side of the pipeline. Forecast and alert rows
// are independent bulk inserts per request; batches are identified by
// timestamp proximity rather than an explicit batch id.
type ForecastStore interface {
	BulkInsertForecasts(ctx context.Context, rows []domain.ForecastRow) error
	BulkInsertAlerts(ctx context.Context, alerts []domain.Alert) error
	LatestBatchTimestamp(ctx context.Context) (*time.Time, error)
	ForecastsInWindow(ctx context.Context, ref time.Time) ([]domain.StoredForecast, error)
	AllAlerts(ctx context.Context) ([]domain.StoredAlert, error)
	RecentForecasts(ctx context.Context, limit int) ([]domain.StoredForecast, error)
}

type forecastRepository struct {
	db *postgres.DB
	// window tolerates multi-statement commits of one logical run landing at
	// slightly different wall-clock times.
	window time.Duration
}

func NewForecastRepository(db *postgres.DB, window time.Duration) ForecastStore {
	if window <= 0 {
		window = 60 * time.Second
	}
	return &forecastRepository{db: db, window: window}
}

func (r *forecastRepository) BulkInsertForecasts(ctx context.Context, rows []domain.ForecastRow) error {
	if len(rows) == 0 {
		return nil
	}

	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
            INSERT INTO forecasts (product, forecast, category, last_week_sales, created_at)
            VALUES ($1, $2, $3, $4, NOW())
        `)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, row := range rows {
			if _, err := stmt.ExecContext(ctx, row.ProductID, row.Value, row.Category, row.LastWeekSales); err != nil {
				return fmt.Errorf("failed to insert forecast for %s: %w", row.ProductID, err)
			}
		}
		return nil
	})
}

func (r *forecastRepository) BulkInsertAlerts(ctx context.Context, alerts []domain.Alert) error {
	if len(alerts) == 0 {
		return nil
	}

	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
            INSERT INTO alerts (product, forecast, message, decision, risk_level, category, created_at)
            VALUES ($1, $2, $3, $4, $5, $6, NOW())
        `)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, a := range alerts {
			if _, err := stmt.ExecContext(ctx, a.ProductID, a.Forecast, a.Message, a.Decision, a.Risk, a.Category); err != nil {
				return fmt.Errorf("failed to insert alert for %s: %w", a.ProductID, err)
			}
		}
		return nil
	})
}

func (r *forecastRepository) LatestBatchTimestamp(ctx context.Context) (*time.Time, error) {
	var ts sql.NullTime
	err := r.db.GetContext(ctx, &ts, `SELECT MAX(created_at) FROM forecasts`)
	if err != nil {
		return nil, fmt.Errorf("error getting latest batch timestamp: %w", err)
	}
	if !ts.Valid {
		return nil, nil
	}
	return &ts.Time, nil
}

func (r *forecastRepository) ForecastsInWindow(ctx context.Context, ref time.Time) ([]domain.StoredForecast, error) {
	query := `
        SELECT product, category, last_week_sales, forecast, created_at
        FROM forecasts
        WHERE created_at >= $1
        ORDER BY id ASC
    `

	var rows []domain.StoredForecast
	if err := r.db.SelectContext(ctx, &rows, query, ref.Add(-r.window)); err != nil {
		return nil, fmt.Errorf("error getting forecasts in window: %w", err)
	}
	return rows, nil
}

func (r *forecastRepository) AllAlerts(ctx context.Context) ([]domain.StoredAlert, error) {
	query := `
        SELECT product, category, forecast, message, decision, risk_level, created_at
        FROM alerts
        ORDER BY created_at DESC, id DESC
    `

	var alerts []domain.StoredAlert
	if err := r.db.SelectContext(ctx, &alerts, query); err != nil {
		return nil, fmt.Errorf("error getting alerts: %w", err)
	}
	return alerts, nil
}

func (r *forecastRepository) RecentForecasts(ctx context.Context, limit int) ([]domain.StoredForecast, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
        SELECT product, category, last_week_sales, forecast, created_at
        FROM forecasts
        ORDER BY created_at DESC, id DESC
        LIMIT $1
    `

	var rows []domain.StoredForecast
	if err := r.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("error getting recent forecasts: %w", err)
	}
	return rows, nil
}
