// internal/forecast/revenue.go
package forecast

import "math"

// Revenue converts rounded unit forecasts into monetary projections at the
// product's last known price, rounded to 2 decimal places per step.
func Revenue(finalForecasts []int, price float64) []float64 {
	out := make([]float64, len(finalForecasts))
	for i, units := range finalForecasts {
		out[i] = math.Round(float64(units)*price*100) / 100
	}
	return out
}
