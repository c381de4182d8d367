// internal/domain/models.go
package domain

import "time"

// RawRecord is one validated row of an uploaded sales series.
type RawRecord struct {
	ProductID   string
	ProductName string
	Category    string
	Week        time.Time
	Sales       float64
	Price       float64
}

// ProductSeries is one product's rows, sorted ascending by week.
type ProductSeries struct {
	ProductID string
	Rows      []RawRecord
}

// LastRow returns the chronologically last row of the series.
func (s ProductSeries) LastRow() RawRecord {
	return s.Rows[len(s.Rows)-1]
}

// SalesHistory returns the ordered sales quantities as floats.
func (s ProductSeries) SalesHistory() []float64 {
	history := make([]float64, len(s.Rows))
	for i, r := range s.Rows {
		history[i] = r.Sales
	}
	return history
}

// DecisionTag is the coarse inventory action recommendation.
type DecisionTag string

const (
	DecisionRestock DecisionTag = "RESTOCK"
	DecisionHold    DecisionTag = "HOLD"
	DecisionReduce  DecisionTag = "REDUCE"
)

// RiskLevel is the severity accompanying a decision tag.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// ForecastRow is one horizon step of a product's forecast, ready for persistence.
type ForecastRow struct {
	ProductID     string  `db:"product"`
	Value         float64 `db:"forecast"`
	Category      string  `db:"category"`
	LastWeekSales float64 `db:"last_week_sales"`
}

// Alert is the inventory risk classification for one product's forecast run,
// derived from the first horizon step only.
type Alert struct {
	ProductID string      `db:"product"`
	Forecast  float64     `db:"forecast"`
	Message   string      `db:"message"`
	Decision  DecisionTag `db:"decision"`
	Risk      RiskLevel   `db:"risk_level"`
	Category  string      `db:"category"`
}

// StoredForecast is a forecast row read back from the store.
type StoredForecast struct {
	ProductID     string    `json:"product" db:"product"`
	Category      string    `json:"category" db:"category"`
	LastWeekSales float64   `json:"last_week_sales" db:"last_week_sales"`
	Forecast      float64   `json:"forecast" db:"forecast"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// StoredAlert is an alert row read back from the store.
type StoredAlert struct {
	ProductID string      `json:"product" db:"product"`
	Category  string      `json:"category" db:"category"`
	Forecast  float64     `json:"forecast" db:"forecast"`
	Message   string      `json:"alert" db:"message"`
	Decision  DecisionTag `json:"decision" db:"decision"`
	Risk      RiskLevel   `json:"risk_level" db:"risk_level"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`
}

// ProductForecast is one product entry of the forecast response.
type ProductForecast struct {
	ProductID            string    `json:"Product_ID"`
	ProductName          string    `json:"Product_Name"`
	Category             string    `json:"Category"`
	Price                float64   `json:"Price"`
	TrendSymbol          string    `json:"Trend_Symbol"`
	LastWeek             string    `json:"Last_Week"`
	LastWeekSales        int       `json:"Last_Week_Sales"`
	ForecastedSales      []int     `json:"Forecasted_Sales"`
	ForecastedRevenue    []float64 `json:"Forecasted_Revenue"`
	FinalForecastedSales []int     `json:"Final_Forecasted_Sales"`
}

// ForecastResponse is the per-request forecast payload.
type ForecastResponse struct {
	Products int               `json:"products"`
	Horizon  int               `json:"horizon"`
	Data     []ProductForecast `json:"data"`
}

// BatchOverview aggregates one persisted batch of forecast rows.
type BatchOverview struct {
	Products      int     `json:"products"`
	Horizon       int     `json:"horizon"`
	ForecastTotal int     `json:"forecast_total"`
	AvgGrowth     float64 `json:"avg_growth"`
}

// CategorySummary summarizes one category within a batch.
type CategorySummary struct {
	Category      string `json:"category"`
	Products      int    `json:"products"`
	Total         int    `json:"total"`
	AvgPerProduct int    `json:"avgPerProduct"`
}

// ProductRanking is one entry of the top-products list.
type ProductRanking struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Trend string `json:"trend"`
}

// ReportPayload is the full batch report.
type ReportPayload struct {
	Overview    BatchOverview     `json:"overview"`
	Categories  []CategorySummary `json:"categories"`
	TopProducts []ProductRanking  `json:"top_products"`
	Alerts      []StoredAlert     `json:"alerts"`
}
