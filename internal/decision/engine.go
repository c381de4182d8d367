// internal/decision/engine.go
package decision

import "github.com/demandcast/backend-go/internal/domain"

// Ratio boundaries for classifying next-week forecast against last-period
// sales. These are exact contract values, not tunables.
const (
	restockRatio = 1.2
	reduceRatio  = 0.5
	monitorRatio = 1.05
)

// Analyze classifies a product's next-week forecast against its last-period
// sales into an inventory alert. Only the first horizon step of a forecast
// run is classified.
func Analyze(productID, category string, forecast, lastPeriodSales float64) domain.Alert {
	alert := domain.Alert{
		ProductID: productID,
		Category:  category,
		Forecast:  forecast,
	}

	if lastPeriodSales <= 0 {
		if forecast > 0 {
			alert.Decision = domain.DecisionRestock
			alert.Risk = domain.RiskHigh
			alert.Message = "critical: zero history but demand expected"
		} else {
			alert.Decision = domain.DecisionHold
			alert.Risk = domain.RiskLow
			alert.Message = "no history, no demand"
		}
		return alert
	}

	ratio := forecast / lastPeriodSales
	switch {
	case ratio > restockRatio:
		alert.Decision = domain.DecisionRestock
		alert.Risk = domain.RiskHigh
		alert.Message = "high acceleration, stock-out risk"
	case ratio < reduceRatio:
		alert.Decision = domain.DecisionReduce
		alert.Risk = domain.RiskMedium
		alert.Message = "slowing demand"
	case ratio > monitorRatio:
		alert.Decision = domain.DecisionHold
		alert.Risk = domain.RiskLow
		alert.Message = "slightly upward, monitor"
	default:
		alert.Decision = domain.DecisionHold
		alert.Risk = domain.RiskLow
		alert.Message = "stable demand"
	}

	return alert
}
