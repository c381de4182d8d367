// internal/report/aggregator.go
package report

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/demandcast/backend-go/internal/domain"
	"github.com/rs/zerolog/log"
)

// TopProductCount is how many products the ranking keeps.
const TopProductCount = 5

// Trend labels for the top-products ranking, comparing a product's first and
// last horizon-step values.
const (
	labelUpward   = "Upward ↗"
	labelDownward = "Downward ↘"
	labelStable   = "Stable"
)

// Aggregate reconstructs the batch report from persisted forecast rows and
// the alert backlog. rows must be in persistence order, which matches
// horizon-step order within a product. ref is the batch anchor timestamp;
// alerts at or after it belong to the report. An empty batch yields a zeroed
// overview and empty collections.
func Aggregate(rows []domain.StoredForecast, alerts []domain.StoredAlert, ref time.Time) domain.ReportPayload {
	payload := domain.ReportPayload{
		Categories:  []domain.CategorySummary{},
		TopProducts: []domain.ProductRanking{},
		Alerts:      []domain.StoredAlert{},
	}

	if len(rows) == 0 {
		return payload
	}

	type categoryData struct {
		products map[string]struct{}
		total    float64
	}

	var (
		productOrder  []string
		valuesByID    = make(map[string][]float64)
		lastWeekSales = make(map[string]float64)
		categoryOrder []string
		categories    = make(map[string]*categoryData)
	)

	for _, r := range rows {
		cat := r.Category
		if cat == "" {
			cat = "Unknown"
		}

		if _, seen := valuesByID[r.ProductID]; !seen {
			productOrder = append(productOrder, r.ProductID)
		}
		valuesByID[r.ProductID] = append(valuesByID[r.ProductID], r.Forecast)
		lastWeekSales[r.ProductID] = r.LastWeekSales

		cd, ok := categories[cat]
		if !ok {
			cd = &categoryData{products: make(map[string]struct{})}
			categories[cat] = cd
			categoryOrder = append(categoryOrder, cat)
		}
		cd.products[r.ProductID] = struct{}{}
		cd.total += r.Forecast
	}

	// Horizon comes from the first product; a batch is assumed uniform.
	horizon := len(valuesByID[productOrder[0]])
	for _, pid := range productOrder {
		if len(valuesByID[pid]) != horizon {
			log.Warn().Str("product", pid).
				Int("expected", horizon).
				Int("got", len(valuesByID[pid])).
				Msg("mixed horizon in batch, overview uses first product's horizon")
			break
		}
	}

	var forecastTotal, totalLastWeek float64
	for _, pid := range productOrder {
		for _, v := range valuesByID[pid] {
			forecastTotal += v
		}
		totalLastWeek += lastWeekSales[pid]
	}

	avgGrowth := 0.0
	if horizon > 0 && totalLastWeek > 0 {
		avgWeeklyForecast := forecastTotal / float64(horizon)
		avgGrowth = (avgWeeklyForecast/totalLastWeek - 1) * 100
	}

	payload.Overview = domain.BatchOverview{
		Products:      len(productOrder),
		Horizon:       horizon,
		ForecastTotal: int(forecastTotal),
		AvgGrowth:     math.Round(avgGrowth*100) / 100,
	}

	for _, cat := range categoryOrder {
		cd := categories[cat]
		count := len(cd.products)
		payload.Categories = append(payload.Categories, domain.CategorySummary{
			Category:      cat,
			Products:      count,
			Total:         int(cd.total),
			AvgPerProduct: int(cd.total / float64(count)),
		})
	}

	payload.TopProducts = rankProducts(productOrder, valuesByID)

	for _, a := range alerts {
		if !a.CreatedAt.Before(ref) {
			payload.Alerts = append(payload.Alerts, a)
		}
	}

	return payload
}

// rankProducts sorts products by total forecast descending and keeps the top
// entries. The sort is stable, so ties keep first-seen product order.
func rankProducts(productOrder []string, valuesByID map[string][]float64) []domain.ProductRanking {
	type productTotal struct {
		id    string
		total float64
	}

	totals := make([]productTotal, 0, len(productOrder))
	for _, pid := range productOrder {
		var sum float64
		for _, v := range valuesByID[pid] {
			sum += v
		}
		totals = append(totals, productTotal{id: pid, total: sum})
	}

	sort.SliceStable(totals, func(a, b int) bool {
		return totals[a].total > totals[b].total
	})

	if len(totals) > TopProductCount {
		totals = totals[:TopProductCount]
	}

	ranking := make([]domain.ProductRanking, 0, len(totals))
	for _, pt := range totals {
		vals := valuesByID[pt.id]

		label := labelStable
		if len(vals) > 1 {
			switch {
			case vals[len(vals)-1] > vals[0]:
				label = labelUpward
			case vals[len(vals)-1] < vals[0]:
				label = labelDownward
			}
		}

		ranking = append(ranking, domain.ProductRanking{
			ID:    pt.id,
			Name:  pt.id,
			Trend: fmt.Sprintf("%d units (%s)", int(pt.total), label),
		})
	}

	return ranking
}
